package dispatch

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/omnifs/omnifs/internal/omnierr"
	"github.com/omnifs/omnifs/pkg/container"
	"github.com/omnifs/omnifs/pkg/metrics"
	"github.com/omnifs/omnifs/pkg/service"
	"github.com/omnifs/omnifs/pkg/usermanager"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFixture(t *testing.T) (*service.Service, *metrics.Metrics) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.omni")
	state, err := container.Format(path, container.FormatOptions{
		TotalSize: 1 << 16,
		BlockSize: 4096,
		MaxUsers:  8,
	})
	require.NoError(t, err)

	svc := service.New(state, nil)
	_, createErr := svc.Users.CreateUser("admin", "admin123", usermanager.RoleAdmin, 0)
	require.Nil(t, createErr)

	return svc, metrics.New(prometheus.NewRegistry())
}

func login(t *testing.T, svc *service.Service, m *metrics.Metrics) string {
	t.Helper()
	resp := Dispatch(context.Background(), svc, m, &Request{
		Operation: "user_login",
		RequestID: "1",
		Payload:   &LoginPayload{Username: "admin", Password: "admin123"},
	})
	require.Equal(t, "success", resp.Status)
	data := resp.Data.(map[string]any)
	return data["session_id"].(string)
}

func TestDispatchLoginReturns128CharSessionID(t *testing.T) {
	svc, m := newTestFixture(t)
	sessionID := login(t, svc, m)
	assert.Len(t, sessionID, 128)
}

func TestDispatchRejectsMissingSession(t *testing.T) {
	svc, m := newTestFixture(t)
	resp := Dispatch(context.Background(), svc, m, &Request{Operation: "dir_list", RequestID: "2", Path: "/"})
	assert.Equal(t, int(omnierr.InvalidSession), resp.Code)
}

func TestDispatchEndToEndScenario(t *testing.T) {
	svc, m := newTestFixture(t)
	session := login(t, svc, m)

	resp := Dispatch(context.Background(), svc, m, &Request{
		Operation: "dir_create", RequestID: "2", SessionID: session, Path: "/a",
	})
	require.Equal(t, "success", resp.Status)

	resp = Dispatch(context.Background(), svc, m, &Request{
		Operation: "dir_list", RequestID: "3", SessionID: session, Path: "/",
	})
	require.Equal(t, "success", resp.Status)
	entries := resp.Data.(map[string]any)["entries"].([]string)
	assert.Contains(t, entries, "a/")

	resp = Dispatch(context.Background(), svc, m, &Request{
		Operation: "file_create", RequestID: "4", SessionID: session, Path: "/a/f", Size: 10,
	})
	require.Equal(t, "success", resp.Status)

	resp = Dispatch(context.Background(), svc, m, &Request{
		Operation: "file_edit", RequestID: "5", SessionID: session, Path: "/a/f", Index: 0, Data: "hello",
	})
	require.Equal(t, "success", resp.Status)

	resp = Dispatch(context.Background(), svc, m, &Request{
		Operation: "file_read", RequestID: "6", SessionID: session, Path: "/a/f",
	})
	require.Equal(t, "success", resp.Status)
	content := resp.Data.(map[string]any)["content"].(string)
	assert.Equal(t, "hello", content[:5])

	resp = Dispatch(context.Background(), svc, m, &Request{
		Operation: "dir_delete", RequestID: "7", SessionID: session, Path: "/a",
	})
	assert.Equal(t, int(omnierr.DirectoryNotEmpty), resp.Code)

	resp = Dispatch(context.Background(), svc, m, &Request{
		Operation: "file_delete", RequestID: "8", SessionID: session, Path: "/a/f",
	})
	require.Equal(t, "success", resp.Status)

	resp = Dispatch(context.Background(), svc, m, &Request{
		Operation: "dir_delete", RequestID: "9", SessionID: session, Path: "/a",
	})
	require.Equal(t, "success", resp.Status)
}

func TestDispatchUserCreateRoleGating(t *testing.T) {
	svc, m := newTestFixture(t)
	adminSession := login(t, svc, m)

	_, err := svc.Users.CreateUser("bob", "pw", usermanager.RoleNormal, 0)
	require.Nil(t, err)
	bobSession, loginErr := svc.UserLogin("bob", "pw")
	require.Nil(t, loginErr)

	resp := Dispatch(context.Background(), svc, m, &Request{
		Operation: "user_create", RequestID: "2", SessionID: bobSession,
		Username: "carol", PasswordHash: "pw",
	})
	assert.Equal(t, int(omnierr.PermissionDenied), resp.Code)

	resp = Dispatch(context.Background(), svc, m, &Request{
		Operation: "user_create", RequestID: "3", SessionID: adminSession,
		Username: "carol", PasswordHash: "pw",
	})
	require.Equal(t, "success", resp.Status)

	resp = Dispatch(context.Background(), svc, m, &Request{
		Operation: "user_create", RequestID: "4", SessionID: adminSession,
		Username: "carol", PasswordHash: "pw",
	})
	assert.Equal(t, int(omnierr.InvalidOperation), resp.Code)
}

func TestDispatchUnknownOperation(t *testing.T) {
	svc, m := newTestFixture(t)
	session := login(t, svc, m)

	resp := Dispatch(context.Background(), svc, m, &Request{
		Operation: "not_a_real_op", RequestID: "2", SessionID: session,
	})
	assert.Equal(t, int(omnierr.InvalidOperation), resp.Code)
	assert.Equal(t, "not_a_real_op", resp.Operation)
}
