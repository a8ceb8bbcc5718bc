package sessionmanager

import (
	"testing"

	"github.com/omnifs/omnifs/pkg/usermanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeUser() *usermanager.User {
	return &usermanager.User{Username: "admin", Role: usermanager.RoleAdmin, IsActive: true}
}

func TestCreateSessionAndValidate(t *testing.T) {
	m := New()
	id, err := m.CreateSession(activeUser(), 1000)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Len(t, id, 128)

	assert.True(t, m.Validate(id))
}

func TestCreateSessionInactiveUserFails(t *testing.T) {
	m := New()
	user := activeUser()
	user.IsActive = false

	id, err := m.CreateSession(user, 1000)
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestCreateSessionNilUserFails(t *testing.T) {
	m := New()
	id, err := m.CreateSession(nil, 1000)
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestSessionIDsAreUnique(t *testing.T) {
	m := New()
	id1, _ := m.CreateSession(activeUser(), 1000)
	id2, _ := m.CreateSession(activeUser(), 1000)
	assert.NotEqual(t, id1, id2)
}

func TestDestroySession(t *testing.T) {
	m := New()
	id, _ := m.CreateSession(activeUser(), 1000)

	m.Destroy(id)
	assert.False(t, m.Validate(id))
}

func TestUpdateActivity(t *testing.T) {
	m := New()
	id, _ := m.CreateSession(activeUser(), 1000)

	m.UpdateActivity(id, 2000)
	sess := m.Get(id)
	require.NotNil(t, sess)
	assert.Equal(t, uint64(2000), sess.LastActivity)
	assert.Equal(t, uint64(1), sess.OperationsCount)
}

func TestValidateUnknownSession(t *testing.T) {
	m := New()
	assert.False(t, m.Validate("nonexistent"))
}
