// Package redis holds the data model shared by the wire codec and the
// connection controller: structured errors, the command record, the
// Sender/Future contract, and the synchronous convenience wrappers built
// on top of it.
package redis

import (
	"fmt"
	"strings"
)

type ErrorKind uint32
type ErrorCode uint32

// Error is the single structured-error type used across the module.
type Error struct {
	Kind ErrorKind
	Code ErrorCode
	*kv
}

const (
	// options are wrong
	ErrKindOpts ErrorKind = iota + 1
	// context explicitly closed
	ErrKindContext
	// Connection was not established at the moment request were done,
	// Request is definitely not sent anywhere.
	ErrKindConnection
	// io error: read/write error, or timeout, or connection closed while reading/writing
	// It is not known if request were processed or not
	ErrKindIO
	// request malformed
	// Can not serialize request, no reason to retry.
	ErrKindRequest
	// response malformed
	// Redis returns unexpected response
	ErrKindResponse
	// cluster configuration inconsistent (unused by the single-connection core;
	// kept for Sender implementations that range over shards)
	ErrKindCluster
	// Just regular redis error response
	ErrKindResult
	// Connection state machine aborted queued commands: closing, offline
	// queue disabled, retry budget exhausted, or fatal parser error.
	ErrKindAbort
)

var kindName = map[ErrorKind]string{
	ErrKindOpts:       "ErrKindOpts",
	ErrKindContext:    "ErrKindContext",
	ErrKindConnection: "ErrKindConnection",
	ErrKindIO:         "ErrKindIO",
	ErrKindRequest:    "ErrKindRequest",
	ErrKindResponse:   "ErrKindResponse",
	ErrKindCluster:    "ErrKindCluster",
	ErrKindResult:     "ErrKindResult",
	ErrKindAbort:      "ErrKindAbort",
}

func (k ErrorKind) String() string {
	if s, ok := kindName[k]; ok {
		return s
	}
	return fmt.Sprintf("ErrKindUnknown%d", k)
}

const (
	// context is not passed to constructor
	// (ErrKindOpts)
	ErrContextIsNil ErrorCode = iota + 1
	// (ErrKindOpts)
	ErrNoAddressProvided
	// context were explicitly closed (connection shut down)
	// (ErrKindContext)
	ErrContextClosed
	// connection were not established at the moment
	// (ErrKindConnection)
	ErrNotConnected
	// connection establishing not successful
	// (ErrKindConnection)
	ErrDial
	// password didn't match
	// (ErrKindConnection)
	ErrAuth
	// other connection initializing error
	// (ErrKindConnection)
	ErrConnSetup
	// connection were closed, or other read-write error
	// (ErrKindIO or ErrKindConnection)
	ErrIO
	// Argument is not serializable
	// (ErrKindRequest)
	ErrArgumentType
	// Some other command in batch is malformed
	// (ErrKindRequest)
	ErrBatchFormat
	// Response is not valid Redis response
	// (ErrKindResponse)
	ErrResponseFormat
	// Response is valid redis response, but its structure/type unexpected
	// (ErrKindResponse)
	ErrResponseUnexpected
	// Header line too large
	// (ErrKindResponse)
	ErrHeaderlineTooLarge
	// Header line is empty
	// (ErrKindResponse)
	ErrHeaderlineEmpty
	// Integer malformed
	// (ErrKindResponse)
	ErrIntegerParsing
	// No final "\r\n"
	// (ErrKindResponse)
	ErrNoFinalRN
	// Unknown header type
	// (ErrKindResponse)
	ErrUnknownHeaderType
	// Ping receives wrong response
	// (ErrKindResponse)
	ErrPing
	// Just regular redis response
	// (ErrKindResult)
	ErrResult
	// No key to determine a prefix/rename target
	// (ErrKindRequest)
	ErrNoSlotKey
	// Request already cancelled
	// (ErrKindRequest)
	ErrRequestCancelled
	// EXEC returns nil (WATCH failed)
	// (ErrKindResult)
	ErrExecEmpty
	// Special case for MOVED (cluster redirection reply; detection only,
	// no retry: rerouting is a cluster collaborator's concern)
	// (ErrKindResult)
	ErrMoved
	// Special case for ASK
	// (ErrKindResult)
	ErrAsk
	// Special case for LOADING
	// (ErrKindResult)
	ErrLoading

	// --- abort/connection error kinds, routed to command sinks or the client's error event ---

	// send_command while closing, or offline queueing disabled
	// (ErrKindAbort)
	ErrClosed
	// in-flight command at disconnect, retry_unfulfilled_commands is false
	// (ErrKindAbort)
	ErrUncertainState
	// retry budget (max_attempts or connect_timeout_ms) exhausted
	// (ErrKindAbort)
	ErrConnectionBroken
	// fatal parser error: stream desynchronized, connection recycled
	// (ErrKindAbort)
	ErrFatal
)

var codeName = map[ErrorCode]string{
	ErrContextIsNil:       "ErrContextIsNil",
	ErrNoAddressProvided:  "ErrNoAddressProvided",
	ErrContextClosed:      "ErrContextClosed",
	ErrNotConnected:       "ErrNotConnected",
	ErrDial:               "ErrDial",
	ErrAuth:               "ErrAuth",
	ErrConnSetup:          "ErrConnSetup",
	ErrIO:                 "ErrIO",
	ErrArgumentType:       "ErrArgumentType",
	ErrBatchFormat:        "ErrBatchFormat",
	ErrResponseFormat:     "ErrResponseFormat",
	ErrResponseUnexpected: "ErrResponseUnexpected",
	ErrHeaderlineTooLarge: "ErrHeaderlineTooLarge",
	ErrHeaderlineEmpty:    "ErrHeaderlineEmpty",
	ErrIntegerParsing:     "ErrIntegerParsing",
	ErrNoFinalRN:          "ErrNoFinalRN",
	ErrUnknownHeaderType:  "ErrUnknownHeaderType",
	ErrPing:               "ErrPing",
	ErrResult:             "ErrResult",
	ErrNoSlotKey:          "ErrNoSlotKey",
	ErrRequestCancelled:   "ErrRequestCancelled",
	ErrExecEmpty:          "ErrExecEmpty",
	ErrMoved:              "ErrMoved",
	ErrAsk:                "ErrAsk",
	ErrLoading:            "ErrLoading",
	ErrClosed:             "ErrClosed",
	ErrUncertainState:     "ErrUncertainState",
	ErrConnectionBroken:   "ErrConnectionBroken",
	ErrFatal:              "ErrFatal",
}

func (c ErrorCode) String() string {
	if s, ok := codeName[c]; ok {
		return s
	}
	return fmt.Sprintf("ErrUnknown%d", c)
}

var defMessage = map[ErrorCode]string{
	ErrContextIsNil:      "context is not set",
	ErrNoAddressProvided: "no address provided",
	ErrContextClosed:     "context is closed",
	ErrNotConnected:      "connection is not established",
	ErrDial:              "could not connect",
	ErrAuth:              "auth is not successful",
	ErrConnSetup:         "connection setup unsuccessful",
	ErrIO:                "io error",
	ErrArgumentType:      "command argument type not supported",
	ErrBatchFormat:       "one of batch command is malformed",
	ErrResponseFormat:    "redis response is malformed",
	ErrPing:              "ping response doesn't match",
	ErrNoSlotKey:         "no key to determine prefix target",
	ErrRequestCancelled:  "request was already cancelled",
	ErrExecEmpty:         "exec failed because of WATCH",
	ErrMoved:             "slot moved",
	ErrAsk:               "ask another",
	ErrLoading:           "host is loading",

	ErrClosed:           "connection already closed",
	ErrUncertainState:   "Redis connection lost and command aborted. It might have been processed.",
	ErrConnectionBroken: "Redis connection in broken state: retry exhausted",
	ErrFatal:            "Fatal error encountered. Command aborted. It might have been processed.",

	ErrResponseUnexpected: "redis response is unexpected",
	ErrHeaderlineTooLarge: "headerline too large",
	ErrHeaderlineEmpty:    "headerline is empty",
	ErrIntegerParsing:     "integer is not integer",
	ErrNoFinalRN:          "no final \r\n in response",
	ErrUnknownHeaderType:  "header type is not known",
}

func NewErr(kind ErrorKind, code ErrorCode) *Error {
	return &Error{Kind: kind, Code: code}
}

func NewErrMsg(kind ErrorKind, code ErrorCode, msg string) *Error {
	return Error{Kind: kind, Code: code}.With("message", msg)
}

func NewErrWrap(kind ErrorKind, code ErrorCode, err error) *Error {
	return Error{Kind: kind, Code: code}.With("cause", err)
}

func (copy Error) WithMsg(msg string) *Error {
	return copy.With("message", msg)
}

func (copy Error) Wrap(err error) *Error {
	return copy.With("cause", err)
}

// With returns a copy of the error carrying an extra key/value; since
// a single *Error may be attached to many queued commands concurrently
// during a flush, it must never be mutated in place.
func (copy Error) With(name string, value interface{}) *Error {
	copy.kv = &kv{name: name, value: value, next: copy.kv}
	return &copy
}

// HardError reports whether the error represents a connection/protocol
// failure rather than a regular Redis error reply.
func (e *Error) HardError() bool {
	return e != nil && e.Kind != ErrKindResult
}

// KindOf reports whether the error carries the given code.
func (e *Error) KindOf(code ErrorCode) bool {
	return e != nil && e.Code == code
}

func (e Error) Error() string {
	typ := e.Code.String()
	msg := e.Msg()
	rest := e.restAsString()
	if rest != "" {
		return fmt.Sprintf("%s (%s %s)", msg, typ, rest)
	}
	return fmt.Sprintf("%s (%s)", msg, typ)
}

func (e Error) Msg() string {
	msg, ok := e.Get("message").(string)
	if !ok {
		if err := e.Cause(); err != nil {
			msg = err.Error()
			ok = true
		}
	}
	if !ok {
		msg = defMessage[e.Code]
		if msg == "" {
			msg = "generic "
		}
	}
	return msg
}

func (e Error) Cause() error {
	if ierr := e.Get("cause"); ierr != nil {
		if err, ok := ierr.(error); ok {
			return err
		}
	}
	return nil
}

func (e Error) restAsString() string {
	var parts []string
	kv := e.kv
	for kv != nil {
		if kv.name != "message" && kv.name != "cause" {
			parts = append(parts, fmt.Sprintf("%s: %v", kv.name, kv.value))
		}
		kv = kv.next
	}
	if len(parts) > 0 {
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return ""
}

func (e Error) ToMap() map[string]interface{} {
	res := map[string]interface{}{
		"kind": e.Kind,
		"code": e.Code,
	}
	kv := e.kv
	for kv != nil {
		res[kv.name] = kv.value
		kv = kv.next
	}
	return res
}

type kv struct {
	name  string
	value interface{}
	next  *kv
}

func (kv *kv) Get(name string) interface{} {
	for kv != nil {
		if kv.name == name {
			return kv.value
		}
		kv = kv.next
	}
	return nil
}

// AsError returns v as an error, or nil if it isn't one.
func AsError(v interface{}) error {
	e, _ := v.(error)
	return e
}

// AsRedisError returns v as a *Error, or nil if it isn't one. Panics if
// v is a different error type: replies are expected to resolve to
// either *Error or a non-error value, never a foreign error type.
func AsRedisError(v interface{}) *Error {
	e, _ := v.(*Error)
	if e == nil {
		if _, ok := v.(error); ok {
			panic(fmt.Errorf("result should be either *redis.Error, or not error at all, but got %#v", v))
		}
	}
	return e
}

// AggregateError collects more than one error produced by a single
// flush, e.g. draining both queues on a fatal transition with no sink
// to receive some of them.
type AggregateError struct {
	Errors []error
}

func (a *AggregateError) Error() string {
	parts := make([]string, len(a.Errors))
	for i, e := range a.Errors {
		parts[i] = e.Error()
	}
	return fmt.Sprintf("%d errors: [%s]", len(a.Errors), strings.Join(parts, "; "))
}
