package redisconn

import (
	"strings"

	"github.com/joomcode/errorx"

	"github.com/flowredis/redispipe/redis"
)

var (
	// EKConnection - key for connection that handled request.
	EKConnection = errorx.RegisterProperty("connection")
	// EKDb - db number to select.
	EKDb = errorx.RegisterProperty("db")

	connectNamespace = errorx.NewNamespace("redisconn.connect")
	// ErrDialFailed wraps a failed net.Dial/TLS-handshake attempt.
	ErrDialFailed = connectNamespace.NewType("dial")
	// ErrAuthFailed wraps an AUTH or SELECT rejection during connection setup.
	ErrAuthFailed = connectNamespace.NewType("auth")
	// ErrReadyCheckFailed wraps an INFO probe failure during the ready check.
	ErrReadyCheckFailed = connectNamespace.NewType("ready_check")
)

func withNewProperty(err *errorx.Error, p errorx.Property, v interface{}) *errorx.Error {
	_, ok := err.Property(p)
	if ok {
		return err
	}
	return err.WithProperty(p, v)
}

func wrapConnectErr(t *errorx.Type, cause error, addr string, db int) *errorx.Error {
	err := t.Wrap(cause, "")
	err = withNewProperty(err, EKConnection, addr)
	if db != 0 {
		err = withNewProperty(err, EKDb, db)
	}
	return err
}

// abortError builds the error for one queued command being flushed: a
// redis.Error carrying the abort code, the uppercased command name, its
// args, origin, and (for in-flight commands) an "It might have been
// processed." suffix appended only for that queue.
func abortError(code redis.ErrorCode, cmd *redis.Command, inFlight bool) *redis.Error {
	msg := defMessageFor(code)
	if inFlight && !strings.Contains(msg, "might have been processed") {
		msg = msg + " It might have been processed."
	}
	err := redis.NewErrMsg(redis.ErrKindAbort, code, msg).
		With("command", strings.ToUpper(cmd.Name)).
		With("args", cmd.Args)
	if cmd.Origin != "" {
		err = err.With("origin", cmd.Origin)
	}
	return err
}

func defMessageFor(code redis.ErrorCode) string {
	switch code {
	case redis.ErrClosed:
		return "connection already closed"
	case redis.ErrUncertainState:
		return "Redis connection lost and command aborted."
	case redis.ErrConnectionBroken:
		return "Redis connection in broken state: retry exhausted"
	case redis.ErrFatal:
		return "Fatal error encountered. Command aborted."
	default:
		return code.String()
	}
}

// flushQueue drains q, completing every command with an error built
// from code. Commands whose sink has already fired (Completed() true)
// are skipped; every other command is completed, including one whose
// bare callback ignores the value. inFlight controls
// whether the "It might have been processed." suffix is appended —
// only the in-flight queue gets it.
func flushQueue(q *cmdQueue, code redis.ErrorCode, inFlight bool) []error {
	var collected []error
	for cmd := q.ShiftFront(); cmd != nil; cmd = q.ShiftFront() {
		err := abortError(code, cmd, inFlight)
		if cmd.Completed() {
			continue
		}
		cmd.Complete(err)
		collected = append(collected, err)
	}
	return collected
}
