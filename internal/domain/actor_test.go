package domain_test

import (
	"testing"

	"go-ems/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestActor_CanAccessEmployee(t *testing.T) {
	self := domain.Actor{EmployeeID: "e1", Role: domain.RoleDeveloper}
	manager := domain.Actor{EmployeeID: "m1", Role: domain.RoleManager}

	assert.True(t, self.CanAccessEmployee("e1"))
	assert.False(t, self.CanAccessEmployee("e2"))
	assert.True(t, manager.CanAccessEmployee("e2"))
	assert.True(t, domain.SystemActor().CanManage())
	assert.False(t, domain.Actor{}.CanAccessEmployee(""))
}

func TestIsValidRole(t *testing.T) {
	assert.True(t, domain.IsValidRole("hr"))
	assert.False(t, domain.IsValidRole("system"))
	assert.False(t, domain.IsValidRole("admin"))
}
