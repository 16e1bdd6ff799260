//go:build arm64

package dispatch

import "golang.org/x/sys/cpu"

// detectFeatures fills in arm64 flags. ASIMD is part of the ARMv8-A base
// architecture, but it is still read from the cpu package for consistency.
func detectFeatures(c *Capabilities) {
	c.HasASIMD = cpu.ARM64.HasASIMD
	c.HasASIMDDP = cpu.ARM64.HasASIMDDP

	if c.HasASIMD {
		c.Level = LevelNEON
		c.Width = 16 // NEON is 128-bit
	}
}
