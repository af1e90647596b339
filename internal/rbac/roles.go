package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleAdmin      = "admin"
	RoleDispatcher = "dispatcher"
	RoleViewer     = "viewer"
)

// Roles allowed to create or cancel batches.
var WriteRoles = []string{RoleDispatcher}

// Roles allowed to read batch details.
var ReadRoles = []string{RoleDispatcher, RoleViewer}

func IsAdmin(role string) bool { return role == RoleAdmin }

// Valid reports whether role is a known role name.
func Valid(role string) bool {
	switch role {
	case RoleAdmin, RoleDispatcher, RoleViewer:
		return true
	default:
		return false
	}
}
