package rbac

import "go-ems/internal/domain"

var staffPermissions = []RolePermissionRow{
	{Resource: "employee", Action: "read"},
	{Resource: "attendance", Action: "checkin"},
	{Resource: "attendance", Action: "read"},
	{Resource: "leave", Action: "create"},
	{Resource: "leave", Action: "read"},
	{Resource: "performance", Action: "read"},
	{Resource: "alert", Action: "read"},
	{Resource: "salary", Action: "read"},
	{Resource: "events", Action: "subscribe"},
}

var managerPermissions = []RolePermissionRow{
	{Resource: "attendance", Action: "*"},
	{Resource: "leave", Action: "*"},
	{Resource: "performance", Action: "*"},
	{Resource: "alert", Action: "*"},
	{Resource: "salary", Action: "*"},
	{Resource: "employee", Action: "*"},
	{Resource: "events", Action: "subscribe"},
}

// DefaultPolicies is used when the role_permissions table is empty.
func DefaultPolicies() []RolePermissionRow {
	out := make([]RolePermissionRow, 0, 64)
	for _, role := range []string{domain.RoleEmployee, domain.RoleDeveloper, domain.RoleDesigner} {
		for _, p := range staffPermissions {
			out = append(out, RolePermissionRow{Role: role, Resource: p.Resource, Action: p.Action})
		}
	}
	for _, role := range []string{domain.RoleManager, domain.RoleHR, domain.RoleSystem} {
		for _, p := range managerPermissions {
			out = append(out, RolePermissionRow{Role: role, Resource: p.Resource, Action: p.Action})
		}
	}
	return out
}
