package server

import (
	"bufio"
	"encoding/json"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/omnifs/omnifs/pkg/container"
	"github.com/omnifs/omnifs/pkg/dispatch"
	"github.com/omnifs/omnifs/pkg/metrics"
	"github.com/omnifs/omnifs/pkg/service"
	"github.com/omnifs/omnifs/pkg/usermanager"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func startTestServer(t *testing.T) (addr string, srv *Server) {
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

	m := metrics.New(prometheus.NewRegistry())
	srv = New(svc, m, 16)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr = ln.Addr().String()
	ln.Close()

	go srv.Serve(addr)
	time.Sleep(50 * time.Millisecond)
	return addr, srv
}

func TestServerRoundTripsLoginOverTCP(t *testing.T) {
	addr, srv := startTestServer(t)
	defer srv.Shutdown()

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	req := dispatch.Request{
		Operation: "user_login",
		RequestID: "1",
		Payload:   &dispatch.LoginPayload{Username: "admin", Password: "admin123"},
	}
	line, err := json.Marshal(req)
	require.NoError(t, err)

	_, err = conn.Write(append(line, '\n'))
	require.NoError(t, err)

	reader := bufio.NewReader(conn)
	respLine, err := reader.ReadBytes('\n')
	require.NoError(t, err)

	var resp dispatch.Response
	require.NoError(t, json.Unmarshal(respLine, &resp))
	require.Equal(t, "success", resp.Status)
}

func TestServerShutdownDrainsQueue(t *testing.T) {
	_, srv := startTestServer(t)
	srv.Shutdown()
}
