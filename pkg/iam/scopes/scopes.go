// Package scopes names the role groups that route gates admit.
package scopes

import "github.com/karua/hostcore/pkg/kernel"

var (
	// HostAdmins manage the host itself and its users' roles.
	HostAdmins = []kernel.Role{kernel.RoleAdmin}

	// Managers maintain users and the lodging catalog.
	Managers = []kernel.Role{kernel.RoleAdmin, kernel.RoleManager}

	// FrontDesk registers and updates guests.
	FrontDesk = []kernel.Role{kernel.RoleAdmin, kernel.RoleManager, kernel.RoleReceptionist}
)

// Groups maps each group name to its roles, for the role catalog and docs.
var Groups = map[string][]kernel.Role{
	"host_admins": HostAdmins,
	"managers":    Managers,
	"front_desk":  FrontDesk,
}

// Allows reports whether role belongs to group.
func Allows(group []kernel.Role, role kernel.Role) bool {
	return role.IsValid() && role.In(group...)
}
