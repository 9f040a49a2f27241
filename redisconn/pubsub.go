package redisconn

import "github.com/flowredis/redispipe/redis"

// subKey identifies one subscription-set entry: kind is either
// "subscribe" or "psubscribe", channel is the channel name or pattern.
type subKey struct {
	Kind    string
	Channel string
}

// pubSub holds the pub_sub_mode integer and the subscription set
// that survives reconnects. pub_sub_mode == 0 iff Subs is empty and no
// subscribe-family command is in flight (Connection enforces this by
// only ever mutating Mode alongside a matching queue change).
type pubSub struct {
	Mode uint32
	Subs map[subKey]struct{}
}

func newPubSub() *pubSub {
	return &pubSub{Subs: make(map[subKey]struct{})}
}

func (p *pubSub) Empty() bool {
	return len(p.Subs) == 0
}

// EnterOnIssue implements "set pub_sub_mode = command_queue.length + 1
// if zero", called when a subscribe-family command is about to be
// written while not already in pub/sub mode.
func (p *pubSub) EnterOnIssue(inFlightLen int) {
	if p.Mode == 0 {
		p.Mode = uint32(inFlightLen) + 1
	}
}

func (p *pubSub) insert(kind, channel string) {
	p.Subs[subKey{kind, channel}] = struct{}{}
}

func (p *pubSub) remove(unsubKind, channel string) {
	delete(p.Subs, subKey{pairedSubscribeKind(unsubKind), channel})
}

// pairedSubscribeKind maps an unsubscribe-family reply kind to the
// subscribe-family kind it undoes, so the subscription set can be
// addressed by a single canonical key regardless of which command
// touched it.
func pairedSubscribeKind(kind string) string {
	switch kind {
	case "unsubscribe":
		return "subscribe"
	case "punsubscribe":
		return "psubscribe"
	default:
		return kind
	}
}

// entries returns the subscription set as (kind, channel) pairs, for
// resubscribe-on-reconnect. Order is unspecified.
func (p *pubSub) entries() []subKey {
	out := make([]subKey, 0, len(p.Subs))
	for k := range p.Subs {
		out = append(out, k)
	}
	return out
}

// pubSubFrame is a parsed server push: message, pmessage, or a
// subscribe-family acknowledgement.
type pubSubFrame struct {
	Kind     string
	Pattern  string
	Channel  string
	Payload  interface{}
	Count    int64
	HasCount bool
}

// parsePubSubFrame decodes a reply array already known to have more
// than two elements into a pubSubFrame, or reports ok == false if the
// first element isn't a recognized frame kind.
func parsePubSubFrame(arr []interface{}) (pubSubFrame, bool) {
	kind, ok := arr[0].(string)
	if !ok {
		if b, ok2 := arr[0].([]byte); ok2 {
			kind = string(b)
		} else {
			return pubSubFrame{}, false
		}
	}
	switch kind {
	case "message":
		if len(arr) < 3 {
			return pubSubFrame{}, false
		}
		return pubSubFrame{Kind: kind, Channel: asText(arr[1]), Payload: arr[2]}, true
	case "pmessage":
		if len(arr) < 4 {
			return pubSubFrame{}, false
		}
		return pubSubFrame{Kind: kind, Pattern: asText(arr[1]), Channel: asText(arr[2]), Payload: arr[3]}, true
	case "subscribe", "unsubscribe", "psubscribe", "punsubscribe":
		if len(arr) < 3 {
			return pubSubFrame{}, false
		}
		f := pubSubFrame{Kind: kind, Channel: asText(arr[1])}
		if n, ok := arr[2].(int64); ok {
			f.Count, f.HasCount = n, true
		}
		return f, true
	default:
		return pubSubFrame{}, false
	}
}

func asText(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return ""
	}
}

func isSubscribeFamilyReply(kind string) bool {
	switch kind {
	case "subscribe", "unsubscribe", "psubscribe", "punsubscribe":
		return true
	default:
		return false
	}
}

// subCommandsLeft initializes the remaining-acknowledgement counter
// from len(args)-1 when the command named channels, or from the
// server's reported count when it did not (a bare SUBSCRIBE/UNSUBSCRIBE
// with no channel never happens in practice, but PSUBSCRIBE * does land
// here). The two branches are not equivalent and are kept distinct
// rather than reconciled into one formula.
func subCommandsLeft(cmd *redis.Command, count int64) int {
	if len(cmd.Args) > 0 {
		return len(cmd.Args) - 1
	}
	return int(count)
}
