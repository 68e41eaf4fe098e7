package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockround/mockround/internal/auth"
)

func TestNewRoleSet(t *testing.T) {
	set, err := auth.NewRoleSet(auth.RoleUser, auth.RoleAdmin, auth.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, []auth.Role{auth.RoleUser, auth.RoleAdmin}, set.Roles())
	assert.True(t, set.Contains(auth.RoleAdmin))
	assert.False(t, set.Contains(auth.RoleInterviewer))

	_, err = auth.NewRoleSet(auth.RoleUser)
	assert.Error(t, err)

	_, err = auth.NewRoleSet(auth.RoleUser, auth.RoleAdmin, auth.Role("owner"))
	assert.Error(t, err)
}

func TestDefaultRoleSetAcceptsKnownRoles(t *testing.T) {
	set := auth.DefaultRoleSet()
	for _, r := range auth.KnownRoles {
		assert.True(t, set.Contains(r), r)
	}
	assert.False(t, auth.Role("root").Valid())
}

func TestIdentityStripsHash(t *testing.T) {
	u := auth.User{ID: "1", Username: "ann", Email: "a@x.io", PasswordHash: "secret", Role: auth.RoleAdmin}
	id := u.Identity()
	assert.Equal(t, "ann", id.Username)
	assert.True(t, id.IsAdmin())
}
