package service

import (
	"github.com/earnings-tracker/ledger-api/internal/core/domain"
)

// Action names what a caller wants to do with a resource.
type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionDelete Action = "delete"
	// ActionAdmin is reserved to the admin role whoever owns the resource.
	ActionAdmin Action = "admin"
)

// Authorize is the single ownership decision of the service: the caller may
// act on a resource when it owns it or holds the admin role.
func Authorize(caller domain.Principal, resourceOwnerID int64, action Action) error {
	if caller.UserID <= 0 || !domain.ValidRole(caller.Role) {
		return domain.ErrUnauthenticated
	}
	if caller.IsAdmin() {
		return nil
	}
	if action == ActionAdmin {
		return domain.ErrForbidden
	}
	if caller.UserID != resourceOwnerID {
		return domain.ErrForbidden
	}
	return nil
}

// ResolveScope computes the owner scope of one request. Only admins may widen
// it to every owner or narrow it to another user (impersonation); for
// anybody else the parameters are ignored and the scope is their own id.
func ResolveScope(caller domain.Principal, requestedUserID int64, all bool) domain.Scope {
	if !caller.IsAdmin() {
		return domain.Scope{OwnerID: caller.UserID}
	}
	if all {
		return domain.Scope{All: true}
	}
	if requestedUserID > 0 {
		return domain.Scope{OwnerID: requestedUserID}
	}
	return domain.Scope{OwnerID: caller.UserID}
}
