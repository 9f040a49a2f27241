package redisconn_test

import (
	"bufio"
	"context"
	"net"
	"testing"

	"github.com/flowredis/redispipe/redis"
	"github.com/flowredis/redispipe/resp"

	"github.com/flowredis/redispipe/redisconn"
)

// echoServer answers every request with +OK, as fast as it can read and
// write, so these benchmarks measure the pipeline's own overhead rather
// than network or a real server's command execution time.
func echoServer(b *testing.B) (addr string, stop func()) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		b.Fatal(err)
	}
	done := make(chan struct{})
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		r := bufio.NewReader(c)
		w := bufio.NewWriter(c)
		for {
			select {
			case <-done:
				return
			default:
			}
			v := resp.Read(r)
			if _, ok := v.(*redis.Error); ok {
				return
			}
			w.WriteString("+OK\r\n")
			w.Flush()
		}
	}()
	return ln.Addr().String(), func() {
		close(done)
		ln.Close()
	}
}

func BenchmarkSerialSet(b *testing.B) {
	addr, stop := echoServer(b)
	defer stop()

	conn, err := redisconn.Connect(context.Background(), addr, redisconn.Opts{})
	if err != nil {
		b.Fatal(err)
	}
	defer conn.Close()

	sync := redis.Sync{S: conn}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if res := sync.Do("SET", "foo", "bar"); redis.AsError(res) != nil {
			b.Fatal(res)
		}
	}
}

func BenchmarkPipelinedSet(b *testing.B) {
	addr, stop := echoServer(b)
	defer stop()

	conn, err := redisconn.Connect(context.Background(), addr, redisconn.Opts{})
	if err != nil {
		b.Fatal(err)
	}
	defer conn.Close()

	const batch = 50
	reqs := make([]redis.Request, batch)
	for i := range reqs {
		reqs[i] = redis.Req("SET", "foo", "bar")
	}
	sync := redis.Sync{S: conn}
	b.ResetTimer()
	for i := 0; i < b.N; i += batch {
		for _, res := range sync.SendMany(reqs) {
			if redis.AsError(res) != nil {
				b.Fatal(res)
			}
		}
	}
}
