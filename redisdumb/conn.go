// Package redisdumb is a synchronous, one-command-at-a-time client used
// only by tests and benchmarks to talk to a real server without going
// through the pipelined Connection: a known-good baseline to compare
// pipeline behavior against.
package redisdumb

import (
	"bufio"
	"net"
	"time"

	"github.com/flowredis/redispipe/redis"
	"github.com/flowredis/redispipe/resp"
)

var DefaultTimeout time.Duration = 5 * time.Second

type Conn struct {
	Addr    string
	C       net.Conn
	R       *bufio.Reader
	Timeout time.Duration
}

func (c *Conn) Do(cmd string, args ...interface{}) interface{} {
	timeout := c.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if c.C == nil {
		conn, err := net.DialTimeout("tcp", c.Addr, timeout)
		if err != nil {
			return redis.NewErr(redis.ErrKindIO, redis.ErrDial).Wrap(err)
		}
		c.C = conn
		c.R = bufio.NewReader(c.C)
	}
	c.C.SetDeadline(time.Now().Add(timeout))

	normalized, _, _ := redis.NormalizeArgs(args)
	frag, rerr := resp.AppendCommand(cmd, normalized)
	if rerr != nil {
		return rerr
	}
	var err error
	if frag.Binary {
		for _, seg := range frag.Segments {
			if _, err = c.C.Write(seg); err != nil {
				break
			}
		}
	} else {
		_, err = c.C.Write(frag.Text)
	}
	if err != nil {
		c.Close()
		return redis.NewErr(redis.ErrKindIO, redis.ErrIO).Wrap(err)
	}
	return resp.Read(c.R)
}

func (c *Conn) Close() {
	if c.C != nil {
		c.C.Close()
		c.C = nil
	}
}

// Do opens a one-shot connection, issues a single command, and closes.
func Do(addr string, cmd string, args ...interface{}) interface{} {
	conn := &Conn{Addr: addr}
	defer conn.Close()
	return conn.Do(cmd, args...)
}
