package domain

// Principal is the identity resolved from a request credential.
type Principal struct {
	UserID      int64
	Role        string
	DisplayName string
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// Scope is the owner filter evaluated for a single request. When All is
// true no owner filter applies and OwnerID is ignored.
type Scope struct {
	OwnerID int64
	All     bool
}

// Includes reports whether a row owned by ownerID falls inside the scope.
func (s Scope) Includes(ownerID int64) bool {
	return s.All || s.OwnerID == ownerID
}
