package resp

import (
	"strconv"

	"github.com/flowredis/redispipe/redis"
)

// Fragment is one command's serialized RESP multi-bulk form, as the
// corking batcher sees it. When every argument is text, Text carries
// the whole "*<argc>\r\n...$<len>\r\n<bytes>\r\n..." encoding as a
// single buffer safe to concatenate with sibling fragments (the
// strings/fire_strings path). When any argument is binary, Segments
// holds the pieces a writer must emit as separate, unmerged writes —
// the bulk header, the raw payload (no copy), and the trailing CRLF —
// so Binary is true and the batch containing this fragment must use
// the buffers path instead.
type Fragment struct {
	Text     []byte
	Segments [][]byte
	Binary   bool
}

// AppendCommand serializes a command name and its normalized argument
// list (see redis.NormalizeArgs) into a Fragment.
func AppendCommand(cmd string, args []interface{}) (Fragment, *redis.Error) {
	head := appendHead(nil, '*', int64(len(args)+1))
	head = appendHead(head, '$', int64(len(cmd)))
	head = append(head, cmd...)
	head = append(head, '\r', '\n')

	var segments [][]byte
	binary := false
	text := head

	flushText := func() {
		if len(text) > 0 {
			segments = append(segments, text)
			text = nil
		}
	}

	for i, val := range args {
		switch v := val.(type) {
		case string:
			text = appendHead(text, '$', int64(len(v)))
			text = append(text, v...)
			text = append(text, '\r', '\n')
		case []byte:
			binary = true
			flushText()
			bhead := appendHead(nil, '$', int64(len(v)))
			segments = append(segments, bhead, v, crlf)
		case int:
			text = appendBulkInt(text, int64(v))
		case uint:
			text = appendBulkUint(text, uint64(v))
		case int64:
			text = appendBulkInt(text, v)
		case uint64:
			text = appendBulkUint(text, v)
		case int32:
			text = appendBulkInt(text, int64(v))
		case uint32:
			text = appendBulkUint(text, uint64(v))
		case int8:
			text = appendBulkInt(text, int64(v))
		case uint8:
			text = appendBulkUint(text, uint64(v))
		case int16:
			text = appendBulkInt(text, int64(v))
		case uint16:
			text = appendBulkUint(text, uint64(v))
		case float32:
			s := strconv.FormatFloat(float64(v), 'f', -1, 32)
			text = appendHead(text, '$', int64(len(s)))
			text = append(text, s...)
			text = append(text, '\r', '\n')
		case float64:
			s := strconv.FormatFloat(v, 'f', -1, 64)
			text = appendHead(text, '$', int64(len(s)))
			text = append(text, s...)
			text = append(text, '\r', '\n')
		default:
			return Fragment{}, redis.NewErr(redis.ErrKindRequest, redis.ErrArgumentType).
				With("command", cmd).With("argpos", i).With("value", v)
		}
	}
	flushText()

	if !binary {
		// every segment is text: merge back into one buffer so siblings
		// can cheaply concatenate it on the strings path.
		whole := segments[0]
		for _, s := range segments[1:] {
			whole = append(whole, s...)
		}
		return Fragment{Text: whole}, nil
	}
	return Fragment{Segments: segments, Binary: true}, nil
}

var crlf = []byte{'\r', '\n'}

func appendInt(b []byte, i int64) []byte {
	var u uint64
	if i == 0 {
		return append(b, '0')
	}
	if i > 0 {
		u = uint64(i)
	} else {
		b = append(b, '-')
		u = uint64(-i)
	}
	return appendUintDigits(b, u)
}

func appendUintDigits(b []byte, u uint64) []byte {
	if u == 0 {
		return append(b, '0')
	}
	var digits [20]byte
	p := 20
	for u > 0 {
		n := u / 10
		p--
		digits[p] = byte(u-n*10) + '0'
		u = n
	}
	return append(b, digits[p:]...)
}

func appendHead(b []byte, t byte, i int64) []byte {
	b = append(b, t)
	b = appendInt(b, i)
	return append(b, '\r', '\n')
}

// appendBulkInt appends a signed integer argument as a bulk string
// ("$<len>\r\n<digits>\r\n"), computing the digit length up front rather
// than guessing a fixed-width header and patching it afterward.
func appendBulkInt(b []byte, i int64) []byte {
	var digits [20]byte
	n := appendInt(digits[:0], i)
	b = appendHead(b, '$', int64(len(n)))
	b = append(b, n...)
	return append(b, '\r', '\n')
}

// appendBulkUint is appendBulkInt for values too large to fit in an
// int64 (e.g. a uint64 above math.MaxInt64).
func appendBulkUint(b []byte, u uint64) []byte {
	var digits [20]byte
	n := appendUintDigits(digits[:0], u)
	b = appendHead(b, '$', int64(len(n)))
	b = append(b, n...)
	return append(b, '\r', '\n')
}
