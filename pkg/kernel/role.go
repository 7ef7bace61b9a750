package kernel

// Role is the closed set of user roles.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleManager      Role = "manager"
	RoleReceptionist Role = "receptionist"
	RoleStaff        Role = "staff"
)

// Roles lists every role in descending privilege order.
var Roles = []Role{RoleAdmin, RoleManager, RoleReceptionist, RoleStaff}

func (r Role) String() string { return string(r) }

// IsValid reports whether r belongs to the closed role set.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleReceptionist, RoleStaff:
		return true
	}
	return false
}

// Description returns the human-readable summary shown in the role catalog.
func (r Role) Description() string {
	switch r {
	case RoleAdmin:
		return "System administrator with full access"
	case RoleManager:
		return "Manager with access to management and reports"
	case RoleReceptionist:
		return "Receptionist with access to reservations and check-in/out"
	case RoleStaff:
		return "Staff member with basic access"
	default:
		return ""
	}
}

// In reports whether r is one of roles. An empty set admits every role.
func (r Role) In(roles ...Role) bool {
	if len(roles) == 0 {
		return r.IsValid()
	}
	for _, allowed := range roles {
		if r == allowed {
			return true
		}
	}
	return false
}
