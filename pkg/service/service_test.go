package service

import (
	"path/filepath"
	"testing"

	"github.com/omnifs/omnifs/internal/omnierr"
	"github.com/omnifs/omnifs/pkg/container"
	"github.com/omnifs/omnifs/pkg/usermanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.omni")
	state, err := container.Format(path, container.FormatOptions{
		TotalSize: 1 << 16,
		BlockSize: 4096,
		MaxUsers:  8,
	})
	require.NoError(t, err)
	return New(state, nil)
}

func TestDirCreateRejectsFileCollision(t *testing.T) {
	s := newTestService(t)
	require.Nil(t, s.FileCreate("/a", 0))

	err := s.DirCreate("/a")
	require.NotNil(t, err)
	assert.Equal(t, omnierr.FileExists, err.Code)
}

func TestDirDeleteRequiresEmpty(t *testing.T) {
	s := newTestService(t)
	require.Nil(t, s.DirCreate("/a"))
	require.Nil(t, s.FileCreate("/a/f", 0))

	err := s.DirDelete("/a")
	require.NotNil(t, err)

	require.Nil(t, s.FileDelete("/a/f"))
	require.Nil(t, s.DirDelete("/a"))
}

func TestFileCreateReadEditRoundTrip(t *testing.T) {
	s := newTestService(t)
	require.Nil(t, s.FileCreate("/f", 10))

	require.Nil(t, s.FileEdit("/f", []byte("hello"), 0))
	content, err := s.FileRead("/f")
	require.Nil(t, err)
	assert.Equal(t, "hello", string(content[:5]))
}

func TestFileCreateExhaustsAllocator(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiny.omni")
	state, err := container.Format(path, container.FormatOptions{TotalSize: 4096, BlockSize: 4096, MaxUsers: 1})
	require.NoError(t, err)
	s := New(state, nil)

	require.Nil(t, s.FileCreate("/a", 0))
	err2 := s.FileCreate("/b", 0)
	require.NotNil(t, err2)

	entries, listErr := s.DirList("/")
	require.Nil(t, listErr)
	assert.Len(t, entries, 1)
}

func TestFileRenameRejectsDestinationCollision(t *testing.T) {
	s := newTestService(t)
	require.Nil(t, s.FileCreate("/a", 0))
	require.Nil(t, s.FileCreate("/b", 0))

	err := s.FileRename("/a", "/b")
	require.NotNil(t, err)

	require.Nil(t, s.FileRename("/a", "/c"))
	assert.False(t, s.FileExists("/a"))
	assert.True(t, s.FileExists("/c"))
}

func TestSetPermissionsRoundTrip(t *testing.T) {
	s := newTestService(t)
	require.Nil(t, s.FileCreate("/f", 0))
	require.Nil(t, s.SetPermissions("/f", 0600))

	meta, err := s.GetMetadata("/f")
	require.Nil(t, err)
	assert.Equal(t, uint32(0600), meta.Entry.Permissions)
}

func TestUserCreateRequiresAdminSession(t *testing.T) {
	s := newTestService(t)
	_, createErr := s.Users.CreateUser("admin", "admin123", usermanager.RoleAdmin, 0)
	require.Nil(t, createErr)
	_, createErr = s.Users.CreateUser("bob", "pw", usermanager.RoleNormal, 0)
	require.Nil(t, createErr)

	adminSession, loginErr := s.UserLogin("admin", "admin123")
	require.Nil(t, loginErr)
	bobSession, loginErr := s.UserLogin("bob", "pw")
	require.Nil(t, loginErr)

	err := s.UserCreate(bobSession, "carol", "pw", usermanager.RoleNormal)
	require.NotNil(t, err)

	err = s.UserCreate(adminSession, "carol", "pw", usermanager.RoleNormal)
	require.Nil(t, err)

	err = s.UserCreate(adminSession, "carol", "pw", usermanager.RoleNormal)
	require.NotNil(t, err)
}

func TestUserLoginRejectsBadPassword(t *testing.T) {
	s := newTestService(t)
	_, err := s.Users.CreateUser("admin", "admin123", usermanager.RoleAdmin, 0)
	require.Nil(t, err)

	_, loginErr := s.UserLogin("admin", "wrong")
	require.NotNil(t, loginErr)
}

func TestGetStatsReflectsAllocatorOccupancy(t *testing.T) {
	s := newTestService(t)
	require.Nil(t, s.FileCreate("/a", 0))
	require.Nil(t, s.DirCreate("/dir"))

	stats := s.GetStats()
	assert.Equal(t, 1, stats.TotalFiles)
	assert.Equal(t, 2, stats.TotalDirectories) // root + /dir
	assert.Equal(t, uint64(4096), stats.UsedSpace)
}
