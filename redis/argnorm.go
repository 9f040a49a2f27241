package redis

import (
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// maxTextArgSize is the text-argument threshold: 30000 bytes stays
// text, 30001 is promoted to a binary buffer.
const maxTextArgSize = 30000

// Undefined is the sentinel value NormalizeArgs serializes as the
// four-character text "undefined". Pass it explicitly where a dynamic
// client would receive a JS `undefined`; a Go nil already means "send
// the literal null".
type Undefined struct{}

// WarnFunc receives the one-time deprecation warnings raised by
// argument normalization (null, undefined, or unrecognized-object
// arguments). Overwrite it to route warnings to your own logger.
var WarnFunc = func(msg string) { log.Print("redis: warning: " + msg) }

var (
	warnNullOnce      sync.Once
	warnUndefinedOnce sync.Once
	warnObjectOnce    sync.Once
)

// NormalizeArgs applies the per-argument conversion rules in order and
// reports whether any argument was passed as a raw []byte (bufferArgs)
// and whether any text argument was promoted to []byte because of its
// size (bigData); a promoted string sets only bigData.
func NormalizeArgs(args []interface{}) (out []interface{}, bufferArgs, bigData bool) {
	out = args
	for i, v := range args {
		nv, isBuffer, isBig := normalizeArg(v)
		if isBuffer {
			bufferArgs = true
		}
		if isBig {
			bigData = true
		}
		if nv != v {
			if same(out, args) {
				out = append([]interface{}(nil), args...)
			}
			out[i] = nv
		}
	}
	return out, bufferArgs, bigData
}

func same(a, b []interface{}) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return &a[0] == &b[0]
}

func normalizeArg(v interface{}) (out interface{}, isBuffer, isBig bool) {
	switch val := v.(type) {
	case nil:
		warnNullOnce.Do(func() {
			WarnFunc("null argument converted to the string \"null\"; pass redis.Undefined{} or an explicit value instead")
		})
		return "null", false, false
	case Undefined:
		warnUndefinedOnce.Do(func() {
			WarnFunc("undefined argument converted to the string \"undefined\"")
		})
		return "undefined", false, false
	case string:
		if len(val) > maxTextArgSize {
			return []byte(val), false, true
		}
		return val, false, false
	case []byte:
		return val, true, true
	case decimal.Decimal:
		return val.String(), false, false
	case *decimal.Decimal:
		return val.String(), false, false
	case time.Time:
		return val.Format(time.RFC3339Nano), false, false
	case int, uint, int64, uint64, int32, uint32, int16, uint16, int8, uint8, float32, float64:
		// left for the wire encoder's native fast path
		return val, false, false
	case bool:
		if val {
			return "1", false, false
		}
		return "0", false, false
	case fmt.Stringer:
		return val.String(), false, false
	default:
		warnObjectOnce.Do(func() {
			WarnFunc("argument of unrecognized type converted with its default text form")
		})
		return fmt.Sprintf("%v", val), false, false
	}
}

// ArgToString extracts a string form from a command argument if it is
// text or binary; used by Request.Key() to find the key argument for
// prefixing and slot-routing collaborators.
func ArgToString(v interface{}) (string, bool) {
	switch s := v.(type) {
	case nil:
		return "", true
	case string:
		return s, true
	case []byte:
		return string(s), true
	case bool:
		if s {
			return "1", true
		}
		return "0", true
	case int, uint, int64, uint64, int32, uint32, int16, uint16, int8, uint8, float32, float64:
		return formatNumber(v), true
	default:
		return "", false
	}
}

// formatNumber renders a Go numeric value in decimal text form, used
// where a caller needs the "numbers -> decimal text form" rule applied
// explicitly rather than left to the wire encoder.
func formatNumber(v interface{}) string {
	switch n := v.(type) {
	case int:
		return strconv.FormatInt(int64(n), 10)
	case int64:
		return strconv.FormatInt(n, 10)
	case uint64:
		return strconv.FormatUint(n, 10)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32)
	default:
		return fmt.Sprintf("%v", v)
	}
}
