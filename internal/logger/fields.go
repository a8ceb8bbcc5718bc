package logger

import (
	"log/slog"
)

// Standard field keys for structured logging across the dispatcher, the
// container persistence layer, and the server loop. Use these keys
// consistently so log lines aggregate cleanly.
const (
	// Request / session correlation
	KeyTraceID    = "trace_id"
	KeyRequestID  = "request_id"
	KeySessionID  = "session_id"
	KeyOperation  = "operation"
	KeyUsername   = "username"
	KeyClientAddr = "client_addr"

	// Filesystem operations
	KeyPath    = "path"
	KeyOldPath = "old_path"
	KeyNewPath = "new_path"
	KeySize    = "size"
	KeyInode   = "inode"

	// Outcome
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyErrorCode  = "error_code"

	// Container / allocator
	KeyContainerPath = "container_path"
	KeyBlocksUsed    = "blocks_used"
	KeyBlocksTotal   = "blocks_total"
)

// RequestID returns a slog.Attr for the client-supplied request id.
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// SessionID returns a slog.Attr for the session id.
func SessionID(id string) slog.Attr {
	return slog.String(KeySessionID, id)
}

// Operation returns a slog.Attr for the dispatched operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Path returns a slog.Attr for a filesystem path.
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// ErrorCode returns a slog.Attr for a taxonomy error code.
func ErrorCode(code int) slog.Attr {
	return slog.Int(KeyErrorCode, code)
}

// DurationMsAttr returns a slog.Attr for an operation duration in milliseconds.
func DurationMsAttr(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Inode returns a slog.Attr for a block/inode index.
func Inode(idx uint32) slog.Attr {
	return slog.Uint64(KeyInode, uint64(idx))
}

// Err returns a slog.Attr for an error, or a zero-value attr for nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
