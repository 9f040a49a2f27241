package redisconn

import (
	"regexp"
	"strings"

	"github.com/flowredis/redispipe/internal"
	"github.com/flowredis/redispipe/redis"
)

// replyCodeRe extracts the leading uppercase error code redis prefixes
// its `-` replies with, e.g. "WRONGTYPE Operation against a key...".
var replyCodeRe = regexp.MustCompile(`^([A-Z]+)\s+(.+)$`)

// monitorLineRe matches one MONITOR push line:
// "<unix>.<usec> [<db> <addr>] \"cmd\" \"arg\" ...".
var monitorLineRe = regexp.MustCompile(`^(\d+\.\d+) \[(\d+) ([^\]]+)\] (.*)$`)

func logKindForFrame(kind string) LogKind {
	switch kind {
	case "subscribe":
		return LogSubscribe
	case "unsubscribe":
		return LogUnsubscribe
	case "psubscribe":
		return LogPSubscribe
	default:
		return LogPUnsubscribe
	}
}

// dispatchReply routes every reply from the parser: first to monitor
// detection, then to the pub/sub overlay, then to the head of the
// in-flight queue. It assumes res is not a top-level HardError —
// readLoop handles those itself (connectionGone for transport errors,
// fatalParserError for the rest) before reaching here.
func (conn *Connection) dispatchReply(res interface{}) {
	conn.mu.Lock()
	monitoring := conn.monitoring
	mode := conn.ps.Mode
	conn.mu.Unlock()

	if monitoring {
		if text, ok := res.(string); ok {
			if m := monitorLineRe.FindStringSubmatch(text); m != nil {
				conn.report(LogMonitor, m[1], m[4], text)
				return
			}
		}
	}

	if mode != 0 {
		if mode == 1 {
			if arr, ok := res.([]interface{}); ok && len(arr) > 2 {
				if frame, ok := parsePubSubFrame(arr); ok {
					conn.handlePubSubFrame(frame)
					return
				}
			}
		} else {
			conn.mu.Lock()
			conn.ps.Mode--
			conn.mu.Unlock()
		}
	}

	conn.completeNormalReply(res)
}

func (conn *Connection) handlePubSubFrame(f pubSubFrame) {
	switch f.Kind {
	case "message":
		conn.report(LogMessage, f.Channel, f.Payload)
	case "pmessage":
		conn.report(LogPMessage, f.Pattern, f.Channel, f.Payload)
	default:
		conn.handleSubAck(f)
	}
}

// handleSubAck implements the subscribe-family acknowledgement rules:
// it tracks how many acks remain across the multiple acks a single
// multi-channel SUBSCRIBE/UNSUBSCRIBE produces, updates the
// subscription set, completes the in-flight command once it is fully
// acknowledged, and recomputes pub_sub_mode when an unsubscribe drains
// the server's count to zero.
func (conn *Connection) handleSubAck(f pubSubFrame) {
	conn.mu.Lock()

	// first is true for the first ack of a command: the counter is set up
	// here and only checked and decremented from the next ack on.
	first := false
	if conn.subInFlight == nil {
		conn.subInFlight = conn.inflight.Peek()
		if conn.subInFlight != nil {
			conn.subLeft = subCommandsLeft(conn.subInFlight, f.Count)
			first = true
		}
	}
	cmd := conn.subInFlight

	if redis.IsSubscribeKind(f.Kind) {
		conn.ps.insert(f.Kind, f.Channel)
	} else {
		conn.ps.remove(f.Kind, f.Channel)
	}

	done := false
	if cmd != nil {
		switch {
		case len(cmd.Args) == 1:
			done = true
		case !first && conn.subLeft == 1:
			done = true
		case len(cmd.Args) == 0 && f.Count == 0:
			done = true
		}
		if !first {
			conn.subLeft--
		}
	}

	if f.Count == 0 && redis.IsUnsubscribeKind(f.Kind) {
		newMode := uint32(0)
		// index 0 is the command being acknowledged; look past it.
		for i := 1; ; i++ {
			c := conn.inflight.At(i)
			if c == nil {
				break
			}
			if redis.IsSubscribeFamily(c.Name) {
				newMode = uint32(i)
				break
			}
		}
		conn.ps.Mode = newMode
		conn.report(LogPubSubMode, newMode)
	}

	var complete func()
	if done {
		shifted := conn.inflight.ShiftFront()
		conn.subInFlight, conn.subLeft = nil, 0
		if shifted != nil {
			complete = func() { shifted.Complete(f.Channel) }
		}
	}
	conn.mu.Unlock()

	conn.report(logKindForFrame(f.Kind), f.Channel, f.Count)
	if complete != nil {
		// run off the read loop: a slow subscribe/unsubscribe callback
		// must not stall every other reply waiting behind it.
		internal.Go(complete)
	}
}

// completeNormalReply implements the non-pub/sub reply path: shift
// the in-flight head, run handle_reply post-processing, and invoke its
// sink. A `-` reply is decorated with command/args/origin/code before
// being handed back; the command has no knowledge its reply was an
// error versus a value.
func (conn *Connection) completeNormalReply(res interface{}) {
	conn.mu.Lock()
	cmd := conn.inflight.ShiftFront()
	conn.mu.Unlock()

	if cmd == nil {
		if rerr, ok := res.(*redis.Error); ok {
			conn.report(LogError, rerr)
		}
		return
	}

	// handed off the read loop: a command's completion sink runs on the
	// application's time, not this connection's only reader goroutine.
	if rerr, ok := res.(*redis.Error); ok {
		decorated := conn.decorateReplyError(cmd, rerr)
		internal.Go(func() { cmd.Complete(decorated) })
		return
	}

	processed := conn.postProcessReply(cmd, res)
	internal.Go(func() { cmd.Complete(processed) })
}

func (conn *Connection) decorateReplyError(cmd *redis.Command, rerr *redis.Error) *redis.Error {
	out := rerr.With("command", strings.ToUpper(cmd.Name)).With("args", cmd.Args)
	if cmd.Origin != "" {
		out = out.With("origin", cmd.Origin)
	}
	if m := replyCodeRe.FindStringSubmatch(rerr.Msg()); m != nil {
		out = out.With("replyCode", m[1])
	}
	return out
}

// postProcessReply applies per-client reply shaping: it flattens
// HGETALL's flat array into a map, and (when DetectBuffers is set and
// this command sent no binary argument) converts []byte leaves back to
// text.
func (conn *Connection) postProcessReply(cmd *redis.Command, res interface{}) interface{} {
	if strings.EqualFold(cmd.Name, "HGETALL") {
		if arr, ok := res.([]interface{}); ok {
			res = flattenToMap(arr)
		}
	}
	if conn.opts.DetectBuffers && !cmd.BufferArgs {
		res = detectBuffersToText(res)
	}
	return res
}

func flattenToMap(arr []interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(arr)/2)
	for i := 0; i+1 < len(arr); i += 2 {
		key, _ := redis.ArgToString(arr[i])
		m[key] = arr[i+1]
	}
	return m
}

func detectBuffersToText(v interface{}) interface{} {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = detectBuffersToText(e)
		}
		return out
	default:
		return v
	}
}
