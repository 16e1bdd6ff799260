// Package dispatch detects the CPU capabilities that quantized GEMM kernels
// can be selected on.
//
// Detection runs once per process, on first use, and the resulting
// Capabilities snapshot is immutable. Setting QGEMM_NO_SIMD to a true value
// makes Detect report no extensions, which forces every caller onto the
// scalar reference kernel.
package dispatch

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

// Level represents the widest SIMD instruction set a snapshot reports.
type Level int

const (
	// LevelScalar indicates no usable SIMD extension.
	LevelScalar Level = iota

	// LevelAVX2 indicates AVX2 (256-bit integer SIMD).
	LevelAVX2

	// LevelAVX512 indicates AVX-512 F+BW (512-bit integer SIMD).
	LevelAVX512

	// LevelNEON indicates ARM Advanced SIMD (128-bit).
	LevelNEON
)

// String returns a human-readable name for the level.
func (l Level) String() string {
	switch l {
	case LevelScalar:
		return "scalar"
	case LevelAVX2:
		return "avx2"
	case LevelAVX512:
		return "avx512"
	case LevelNEON:
		return "neon"
	default:
		return "unknown"
	}
}

// Capabilities is an immutable snapshot of the CPU features relevant to
// integer GEMM.
type Capabilities struct {
	Arch  string
	Level Level

	// Width is the SIMD register width in bytes for Level.
	// 16 for scalar/NEON, 32 for AVX2, 64 for AVX-512.
	Width int

	// x86-64
	HasAVX2       bool
	HasAVX512F    bool
	HasAVX512BW   bool
	HasAVX512VNNI bool

	// arm64
	HasASIMD   bool
	HasASIMDDP bool // SDOT/UDOT, ARMv8.2-A
}

// Features lists the extensions present in the snapshot.
func (c Capabilities) Features() []string {
	var features []string
	add := func(ok bool, name string) {
		if ok {
			features = append(features, name)
		}
	}
	add(c.HasAVX2, "avx2")
	add(c.HasAVX512F, "avx512f")
	add(c.HasAVX512BW, "avx512bw")
	add(c.HasAVX512VNNI, "avx512vnni")
	add(c.HasASIMD, "asimd")
	add(c.HasASIMDDP, "asimddp")
	return features
}

// String formats the snapshot as "arch/level[feature,...]".
func (c Capabilities) String() string {
	return c.Arch + "/" + c.Level.String() + "[" + strings.Join(c.Features(), ",") + "]"
}

// Scalar returns a snapshot reporting no extensions for the running
// architecture.
func Scalar() Capabilities {
	return Capabilities{
		Arch:  runtime.GOARCH,
		Level: LevelScalar,
		Width: 16, // Keep 16-byte geometry even without SIMD
	}
}

var detected = sync.OnceValue(detect)

func detect() Capabilities {
	if NoSimdEnv() {
		return Scalar()
	}
	c := Scalar()
	detectFeatures(&c)
	return c
}

// Detect returns the process-wide capability snapshot. The first call
// performs detection; concurrent first calls are safe and observe the same
// value.
func Detect() Capabilities {
	return detected()
}

// NoSimdEnv checks if the QGEMM_NO_SIMD environment variable is set.
// Any non-empty value that does not parse as false counts as set.
func NoSimdEnv() bool {
	val := os.Getenv("QGEMM_NO_SIMD")
	if val == "" {
		return false
	}
	if b, err := strconv.ParseBool(val); err == nil {
		return b
	}
	return true
}
