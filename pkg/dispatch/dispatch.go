// Package dispatch maps wire-level JSON requests onto *service.Service
// method calls: session precheck, per-operation field contracts, panic
// recovery, and structured request logging all live here.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/omnifs/omnifs/internal/logger"
	"github.com/omnifs/omnifs/internal/omnierr"
	"github.com/omnifs/omnifs/pkg/metrics"
	"github.com/omnifs/omnifs/pkg/service"
	"github.com/omnifs/omnifs/pkg/usermanager"
)

// LoginPayload is the nested credentials object for user_login.
type LoginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Request is the flat wire request object. Fields unused by a given
// operation are simply left zero-valued.
type Request struct {
	Operation    string        `json:"operation"`
	RequestID    string        `json:"request_id"`
	SessionID    string        `json:"session_id,omitempty"`
	Path         string        `json:"path,omitempty"`
	OldPath      string        `json:"old_path,omitempty"`
	NewPath      string        `json:"new_path,omitempty"`
	Username     string        `json:"username,omitempty"`
	PasswordHash string        `json:"password_hash,omitempty"`
	Role         int           `json:"role,omitempty"`
	Size         uint64        `json:"size,omitempty"`
	Index        uint64        `json:"index,omitempty"`
	Data         string        `json:"data,omitempty"`
	Permissions  uint32        `json:"permissions,omitempty"`
	Payload      *LoginPayload `json:"payload,omitempty"`
}

// Response is the flat wire response object.
type Response struct {
	Status       string      `json:"status"`
	Code         int         `json:"code"`
	Operation    string      `json:"operation"`
	RequestID    string      `json:"request_id"`
	Data         interface{} `json:"data,omitempty"`
	ErrorMessage string      `json:"error_message,omitempty"`
}

func success(op, reqID string, data interface{}) *Response {
	return &Response{Status: "success", Code: int(omnierr.Success), Operation: op, RequestID: reqID, Data: data}
}

func failure(op, reqID string, err *omnierr.Error) *Response {
	return &Response{Status: "error", Code: int(err.Code), Operation: op, RequestID: reqID, ErrorMessage: err.Message}
}

func failureCode(op, reqID string, code omnierr.Code, message string) *Response {
	return &Response{Status: "error", Code: int(code), Operation: op, RequestID: reqID, ErrorMessage: message}
}

// Dispatch resolves the session precheck, routes to the matching Service
// method, recovers any panic into an INTERNAL response, and logs the
// outcome through the LogContext carried on ctx.
func Dispatch(ctx context.Context, svc *service.Service, m *metrics.Metrics, req *Request) (resp *Response) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorCtx(ctx, "dispatcher panic recovered",
				logger.KeyOperation, req.Operation,
				logger.KeyError, fmt.Sprintf("%v", r))
			resp = failureCode(req.Operation, req.RequestID, omnierr.Internal, "internal error")
		}
		m.RecordRequest(req.Operation, resp.Code)
		logger.InfoCtx(ctx, "request dispatched",
			logger.KeyOperation, req.Operation,
			logger.KeyRequestID, req.RequestID,
			logger.KeyErrorCode, resp.Code,
			logger.KeyDurationMs, logger.Duration(start))
	}()

	if req.Operation != "user_login" {
		if !svc.Sessions.Validate(req.SessionID) {
			return failureCode(req.Operation, req.RequestID, omnierr.InvalidSession, "missing or invalid session")
		}
		svc.Sessions.UpdateActivity(req.SessionID, uint64(time.Now().Unix()))
	}

	return route(svc, req)
}

func route(svc *service.Service, req *Request) *Response {
	op, reqID := req.Operation, req.RequestID

	switch op {
	case "user_login":
		if req.Payload == nil {
			return failureCode(op, reqID, omnierr.InvalidOperation, "missing login payload")
		}
		sessionID, err := svc.UserLogin(req.Payload.Username, req.Payload.Password)
		if err != nil {
			return failure(op, reqID, err)
		}
		return success(op, reqID, map[string]any{"session_id": sessionID})

	case "user_logout":
		if err := svc.UserLogout(req.SessionID); err != nil {
			return failure(op, reqID, err)
		}
		return success(op, reqID, nil)

	case "user_create":
		if err := svc.UserCreate(req.SessionID, req.Username, req.PasswordHash, usermanager.Role(req.Role)); err != nil {
			return failure(op, reqID, err)
		}
		return success(op, reqID, nil)

	case "user_delete":
		if err := svc.UserDelete(req.SessionID, req.Username); err != nil {
			return failure(op, reqID, err)
		}
		return success(op, reqID, nil)

	case "user_list":
		users, err := svc.UserList(req.SessionID)
		if err != nil {
			return failure(op, reqID, err)
		}
		out := make([]map[string]any, 0, len(users))
		for _, u := range users {
			out = append(out, map[string]any{
				"username":     u.Username,
				"role":         int(u.Role),
				"created_time": u.CreatedTime,
				"last_login":   u.LastLogin,
				"is_active":    u.IsActive,
			})
		}
		return success(op, reqID, map[string]any{"users": out})

	case "dir_create":
		if err := svc.DirCreate(req.Path); err != nil {
			return failure(op, reqID, err)
		}
		return success(op, reqID, nil)

	case "dir_delete":
		if err := svc.DirDelete(req.Path); err != nil {
			return failure(op, reqID, err)
		}
		return success(op, reqID, nil)

	case "dir_exists":
		return success(op, reqID, map[string]any{"exists": svc.DirExists(req.Path)})

	case "dir_list":
		entries, err := svc.DirList(req.Path)
		if err != nil {
			return failure(op, reqID, err)
		}
		return success(op, reqID, map[string]any{"entries": entries})

	case "file_create":
		if err := svc.FileCreate(req.Path, req.Size); err != nil {
			return failure(op, reqID, err)
		}
		return success(op, reqID, nil)

	case "file_read":
		content, err := svc.FileRead(req.Path)
		if err != nil {
			return failure(op, reqID, err)
		}
		return success(op, reqID, map[string]any{"content": string(content)})

	case "file_edit":
		if err := svc.FileEdit(req.Path, []byte(req.Data), req.Index); err != nil {
			return failure(op, reqID, err)
		}
		return success(op, reqID, nil)

	case "file_truncate":
		if err := svc.FileTruncate(req.Path, req.Size); err != nil {
			return failure(op, reqID, err)
		}
		return success(op, reqID, nil)

	case "file_delete":
		if err := svc.FileDelete(req.Path); err != nil {
			return failure(op, reqID, err)
		}
		return success(op, reqID, nil)

	case "file_rename":
		if err := svc.FileRename(req.OldPath, req.NewPath); err != nil {
			return failure(op, reqID, err)
		}
		return success(op, reqID, nil)

	case "file_exists":
		return success(op, reqID, map[string]any{"exists": svc.FileExists(req.Path)})

	case "get_metadata":
		meta, err := svc.GetMetadata(req.Path)
		if err != nil {
			return failure(op, reqID, err)
		}
		return success(op, reqID, map[string]any{
			"path":         meta.Path,
			"size":         meta.Entry.Size,
			"blocks_used":  1,
			"actual_size":  meta.ActualSize,
			"owner":        meta.Entry.Owner,
			"content_type": meta.ContentType,
		})

	case "set_permissions":
		if err := svc.SetPermissions(req.Path, req.Permissions); err != nil {
			return failure(op, reqID, err)
		}
		return success(op, reqID, nil)

	case "get_stats":
		stats := svc.GetStats()
		return success(op, reqID, map[string]any{
			"total_size":        stats.TotalSize,
			"used_space":        stats.UsedSpace,
			"free_space":        stats.FreeSpace,
			"total_files":       stats.TotalFiles,
			"total_directories": stats.TotalDirectories,
			"total_users":       stats.TotalUsers,
			"active_sessions":   stats.ActiveSessions,
			"fragmentation":     stats.Fragmentation,
		})

	default:
		return failureCode(op, reqID, omnierr.InvalidOperation, fmt.Sprintf("unknown operation %q", op))
	}
}
