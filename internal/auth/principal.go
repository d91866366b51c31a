package auth

// Principal is the authenticated identity attached to a request.
// It is resolved from the bearer token once per request and passed
// down to services, which never touch credentials themselves.
type Principal struct {
	ID         int64
	Email      string
	Name       string
	SuperAdmin bool
}

// Elevated reports whether the principal holds super-admin privilege
func (p *Principal) Elevated() bool {
	return p != nil && p.SuperAdmin
}
