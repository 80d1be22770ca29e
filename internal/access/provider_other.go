//go:build !unix

package access

// NewDefaultProvider returns the provider for this platform.
func NewDefaultProvider() Provider { return Passthrough{} }
