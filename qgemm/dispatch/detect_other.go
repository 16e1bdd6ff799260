//go:build !amd64 && !arm64

package dispatch

// Other architectures use the scalar snapshot.
func detectFeatures(c *Capabilities) {}
