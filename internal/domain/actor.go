package domain

const (
	RoleEmployee  = "employee"
	RoleManager   = "manager"
	RoleDeveloper = "developer"
	RoleDesigner  = "designer"
	RoleHR        = "hr"

	// RoleSystem is used by scheduled jobs and never issued in a token.
	RoleSystem = "system"
)

var Roles = []string{RoleEmployee, RoleManager, RoleDeveloper, RoleDesigner, RoleHR}

func IsValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Actor is the caller identity resolved at the edge and passed explicitly
// into every service call.
type Actor struct {
	EmployeeID string
	Role       string
}

func SystemActor() Actor {
	return Actor{EmployeeID: "system", Role: RoleSystem}
}

// CanManage reports whether the actor may act on other employees' records.
func (a Actor) CanManage() bool {
	return a.Role == RoleManager || a.Role == RoleHR || a.Role == RoleSystem
}

// CanAccessEmployee is true for the employee themself and for managers.
func (a Actor) CanAccessEmployee(employeeID string) bool {
	return a.CanManage() || (a.EmployeeID != "" && a.EmployeeID == employeeID)
}
