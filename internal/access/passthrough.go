package access

// Passthrough is a Provider for platforms without a token facility. It
// stores nothing and always grants access.
type Passthrough struct{}

func (Passthrough) DeriveToken(string) ([]byte, error) { return nil, nil }

func (Passthrough) ResolveToken([]byte) (string, bool, error) {
	return "", false, errNoTokens
}

func (Passthrough) OpenAccess(string) bool { return true }

func (Passthrough) CloseAccess(string) {}
