package resp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flowredis/redispipe/redis"
)

func appendCommandText(t *testing.T, args ...interface{}) []byte {
	t.Helper()
	frag, err := AppendCommand("CMD", args)
	assert.Nil(t, err)
	if err != nil {
		return nil
	}
	assert.False(t, frag.Binary)
	return frag.Text
}

func TestAppendCommandIntegers(t *testing.T) {
	assert.Equal(t, []byte("*2\r\n$3\r\nCMD\r\n$1\r\n0\r\n"), appendCommandText(t, int(0)))
	assert.Equal(t, []byte("*2\r\n$3\r\nCMD\r\n$1\r\n1\r\n"), appendCommandText(t, uint(1)))
	assert.Equal(t, []byte("*2\r\n$3\r\nCMD\r\n$1\r\n6\r\n"), appendCommandText(t, int8(6)))
	assert.Equal(t, []byte("*2\r\n$3\r\nCMD\r\n$3\r\n-31\r\n"), appendCommandText(t, int8(-31)))
	assert.Equal(t, []byte("*2\r\n$3\r\nCMD\r\n$3\r\n156\r\n"), appendCommandText(t, uint8(156)))
	assert.Equal(t, []byte("*2\r\n$3\r\nCMD\r\n$3\r\n781\r\n"), appendCommandText(t, int16(781)))
	assert.Equal(t, []byte("*2\r\n$3\r\nCMD\r\n$5\r\n-3906\r\n"), appendCommandText(t, int16(-3906)))
	assert.Equal(t, []byte("*2\r\n$3\r\nCMD\r\n$5\r\n19351\r\n"), appendCommandText(t, uint16(19351)))
	assert.Equal(t, []byte("*2\r\n$3\r\nCMD\r\n$5\r\n97656\r\n"), appendCommandText(t, int32(97656)))
	assert.Equal(t, []byte("*2\r\n$3\r\nCMD\r\n$7\r\n-488281\r\n"), appendCommandText(t, int32(-488281)))
	assert.Equal(t, []byte("*2\r\n$3\r\nCMD\r\n$7\r\n2441406\r\n"), appendCommandText(t, uint32(2441406)))
	assert.Equal(t, []byte("*2\r\n$3\r\nCMD\r\n$8\r\n12207031\r\n"), appendCommandText(t, int64(12207031)))
	assert.Equal(t, []byte("*2\r\n$3\r\nCMD\r\n$9\r\n-61035156\r\n"), appendCommandText(t, int64(-61035156)))
	assert.Equal(t, []byte("*2\r\n$3\r\nCMD\r\n$9\r\n305175781\r\n"), appendCommandText(t, uint64(305175781)))
	assert.Equal(t, []byte("*2\r\n$3\r\nCMD\r\n$19\r\n9223372036854775807\r\n"), appendCommandText(t, int64(9223372036854775807)))
	assert.Equal(t, []byte("*2\r\n$3\r\nCMD\r\n$20\r\n-9223372036854775808\r\n"), appendCommandText(t, int64(-9223372036854775808)))
	assert.Equal(t, []byte("*2\r\n$3\r\nCMD\r\n$20\r\n18446744073709551615\r\n"), appendCommandText(t, uint64(18446744073709551615)))
}

func TestAppendCommandFloats(t *testing.T) {
	assert.Equal(t, []byte("*2\r\n$3\r\nCMD\r\n$1\r\n0\r\n"), appendCommandText(t, float32(0.0)))
	assert.Equal(t, []byte("*2\r\n$3\r\nCMD\r\n$4\r\n0.25\r\n"), appendCommandText(t, float32(0.25)))
	assert.Equal(t, []byte("*2\r\n$3\r\nCMD\r\n$9\r\n-10000.25\r\n"), appendCommandText(t, float32(-10000.25)))
	assert.Equal(t, []byte("*2\r\n$3\r\nCMD\r\n$1\r\n0\r\n"), appendCommandText(t, float64(0.0)))
	assert.Equal(t, []byte("*2\r\n$3\r\nCMD\r\n$4\r\n0.25\r\n"), appendCommandText(t, float64(0.25)))
	assert.Equal(t, []byte("*2\r\n$3\r\nCMD\r\n$9\r\n-10000.25\r\n"), appendCommandText(t, float64(-10000.25)))
}

func TestAppendCommandStringsAndBinary(t *testing.T) {
	assert.Equal(t, []byte("*2\r\n$3\r\nCMD\r\n$4\r\nasdf\r\n"), appendCommandText(t, "asdf"))

	frag, err := AppendCommand("CMD", []interface{}{[]byte("asdf")})
	assert.Nil(t, err)
	assert.True(t, frag.Binary)
	assembled := append([]byte{}, frag.Segments[0]...)
	for _, s := range frag.Segments[1:] {
		assembled = append(assembled, s...)
	}
	assert.Equal(t, []byte("*2\r\n$3\r\nCMD\r\n$4\r\nasdf\r\n"), assembled)
}

func TestAppendCommandUnsupportedArgument(t *testing.T) {
	frag, err := AppendCommand("CMD", []interface{}{make(chan int)})
	assert.Equal(t, Fragment{}, frag)
	assert.NotNil(t, err)
	assert.Equal(t, redis.ErrKindRequest, err.Kind)
	assert.Equal(t, redis.ErrArgumentType, err.Code)
}
