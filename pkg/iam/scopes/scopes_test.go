package scopes_test

import (
	"testing"

	"github.com/karua/hostcore/pkg/iam/scopes"
	"github.com/karua/hostcore/pkg/kernel"
	"github.com/stretchr/testify/assert"
)

func TestGroupsAreNested(t *testing.T) {
	for _, r := range scopes.HostAdmins {
		assert.True(t, scopes.Allows(scopes.Managers, r))
	}
	for _, r := range scopes.Managers {
		assert.True(t, scopes.Allows(scopes.FrontDesk, r))
	}
}

func TestAllows(t *testing.T) {
	assert.True(t, scopes.Allows(scopes.FrontDesk, kernel.RoleReceptionist))
	assert.False(t, scopes.Allows(scopes.FrontDesk, kernel.RoleStaff))
	assert.False(t, scopes.Allows(scopes.Managers, kernel.RoleReceptionist))
	assert.False(t, scopes.Allows(scopes.HostAdmins, kernel.Role("owner")))
}

func TestEveryGroupIsNamed(t *testing.T) {
	assert.Len(t, scopes.Groups, 3)
	assert.Equal(t, scopes.FrontDesk, scopes.Groups["front_desk"])
}
