package redis

import "strings"

// keyPositions holds the argument positions that name keys, used to
// apply a configured key prefix before serialization. Most commands
// take their key as the first argument; this table only needs entries
// that deviate from that default or that have no key at all.
var keyPositions = map[string][]int{
	"PING": {}, "ECHO": {}, "SELECT": {}, "AUTH": {}, "INFO": {},
	"SUBSCRIBE": {}, "UNSUBSCRIBE": {}, "PSUBSCRIBE": {}, "PUNSUBSCRIBE": {},
	"PUBLISH": {}, "MULTI": {}, "EXEC": {}, "DISCARD": {}, "QUIT": {},
	"CLIENT": {}, "CONFIG": {}, "SHUTDOWN": {}, "RANDOMKEY": {},
	"SCAN": {}, "FLUSHALL": {}, "FLUSHDB": {}, "DBSIZE": {}, "TIME": {},
	"SWAPDB": {},

	"MSET": evenPositions(8), "MSETNX": evenPositions(8),
	"MGET": allPositions(8),
	"DEL":  allPositions(8), "UNLINK": allPositions(8), "EXISTS": allPositions(8),
	"WATCH": allPositions(8),

	"EVAL": {1}, "EVALSHA": {1}, "BITOP": {1},
}

func evenPositions(n int) []int {
	pos := make([]int, 0, n/2)
	for i := 0; i < n; i += 2 {
		pos = append(pos, i)
	}
	return pos
}

func allPositions(n int) []int {
	pos := make([]int, n)
	for i := range pos {
		pos[i] = i
	}
	return pos
}

// KeyPositions reports which argument indices of cmd hold keys. Commands
// with variable-length key lists (MGET, DEL, MSET...) return a
// best-effort table sized for common call shapes; callers needing exact
// coverage for a longer argument list should prefix every position up
// to len(args) for those commands, which PrefixKeys does.
func KeyPositions(cmd string) ([]int, bool) {
	pos, ok := keyPositions[strings.ToUpper(cmd)]
	return pos, ok
}

// PrefixKeys rewrites the key-bearing arguments of args in place,
// prepending prefix to each. Commands absent from the table default to
// "first argument is the key", matching the common case.
func PrefixKeys(cmd string, args []interface{}, prefix string) []interface{} {
	if prefix == "" || len(args) == 0 {
		return args
	}
	upper := strings.ToUpper(cmd)
	pos, known := keyPositions[upper]
	if !known {
		return prefixAt(args, prefix, 0)
	}
	switch upper {
	case "MSET", "MSETNX", "MGET", "DEL", "UNLINK", "EXISTS", "WATCH":
		// variable length: prefix every position the table's stride implies
		stride := 1
		if upper == "MSET" || upper == "MSETNX" {
			stride = 2
		}
		out := args
		for i := 0; i < len(out); i += stride {
			out = prefixAt(out, prefix, i)
		}
		return out
	}
	out := args
	for _, p := range pos {
		out = prefixAt(out, prefix, p)
	}
	return out
}

func prefixAt(args []interface{}, prefix string, i int) []interface{} {
	if i < 0 || i >= len(args) {
		return args
	}
	if s, ok := ArgToString(args[i]); ok {
		args[i] = prefix + s
	}
	return args
}

// replicaSafeCommands/blockingCommands/dangerousCommands classify
// commands for collaborators that route reads to replicas, guard
// against accidental head-of-line blocking inside the pipeline, or warn
// before sending a command that changes connection-wide behavior.
var replicaSafeCommands = buildSet(
	"GET", "MGET", "GETRANGE", "STRLEN", "EXISTS", "TYPE", "TTL", "PTTL",
	"HGET", "HGETALL", "HKEYS", "HLEN", "HMGET", "HVALS", "HSTRLEN", "HEXISTS",
	"LRANGE", "LINDEX", "LLEN", "SCARD", "SMEMBERS", "SISMEMBER", "SRANDMEMBER",
	"ZCARD", "ZRANGE", "ZSCORE", "ZRANK", "ZREVRANK", "ZCOUNT",
	"KEYS", "RANDOMKEY", "DUMP", "SCAN", "HSCAN", "SSCAN", "ZSCAN",
)

var blockingCommands = buildSet(
	"BLPOP", "BRPOP", "BRPOPLPUSH", "BLMOVE", "BZPOPMIN", "BZPOPMAX",
	"XREAD", "XREADGROUP", "WAIT",
)

var dangerousCommands = buildSet(
	"SUBSCRIBE", "PSUBSCRIBE", "UNSUBSCRIBE", "PUNSUBSCRIBE",
	"MONITOR", "SHUTDOWN", "FLUSHALL", "FLUSHDB", "CONFIG", "DEBUG",
)

func buildSet(cmds ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(cmds))
	for _, c := range cmds {
		m[strings.ToUpper(c)] = struct{}{}
	}
	return m
}

// ReplicaSafe reports whether cmd is a read-only command safe to route
// to a replica.
func ReplicaSafe(cmd string) bool {
	_, ok := replicaSafeCommands[strings.ToUpper(cmd)]
	return ok
}

// Blocking reports whether cmd can block the server from replying,
// which would stall the whole pipeline behind it.
func Blocking(cmd string) bool {
	_, ok := blockingCommands[strings.ToUpper(cmd)]
	return ok
}

// Dangerous reports whether cmd changes connection-wide or
// server-wide behavior (pub/sub mode, monitor mode, flushing data).
func Dangerous(cmd string) bool {
	_, ok := dangerousCommands[strings.ToUpper(cmd)]
	return ok
}

// IsSubscribeFamily reports whether cmd is one of the four commands
// that enter or leave pub/sub mode.
func IsSubscribeFamily(cmd string) bool {
	switch strings.ToUpper(cmd) {
	case "SUBSCRIBE", "PSUBSCRIBE", "UNSUBSCRIBE", "PUNSUBSCRIBE":
		return true
	}
	return false
}

// IsSubscribeKind and IsUnsubscribeKind split the subscribe family
// further, matching the "kind" field of a tracked subscription.
func IsSubscribeKind(cmd string) bool {
	u := strings.ToUpper(cmd)
	return u == "SUBSCRIBE" || u == "PSUBSCRIBE"
}

func IsUnsubscribeKind(cmd string) bool {
	u := strings.ToUpper(cmd)
	return u == "UNSUBSCRIBE" || u == "PUNSUBSCRIBE"
}

// PairedKind returns the subscribe-family counterpart used to look up
// the Subscription set entry for an unsubscribe acknowledgement: e.g.
// UNSUBSCRIBE pairs with SUBSCRIBE entries.
func PairedKind(cmd string) string {
	switch strings.ToUpper(cmd) {
	case "UNSUBSCRIBE":
		return "subscribe"
	case "PUNSUBSCRIBE":
		return "psubscribe"
	case "SUBSCRIBE":
		return "subscribe"
	case "PSUBSCRIBE":
		return "psubscribe"
	}
	return strings.ToLower(cmd)
}
