package redis_test

import (
	"testing"

	"github.com/flowredis/redispipe/redis"
	"github.com/stretchr/testify/assert"
)

// fakeSender resolves every request synchronously against a canned
// reply table, standing in for a real Connection so ChanFutured can be
// exercised without a server.
type fakeSender struct {
	reply func(r redis.Request) interface{}
}

func (f fakeSender) Send(r redis.Request, cb redis.Future, n uint64) {
	cb.Resolve(f.reply(r), n)
}

func (f fakeSender) SendMany(rs []redis.Request, cb redis.Future, n uint64) {
	for i, r := range rs {
		cb.Resolve(f.reply(r), n+uint64(i))
	}
}

func (f fakeSender) SendTransaction(rs []redis.Request, cb redis.Future, n uint64) {
	res := make([]interface{}, len(rs))
	for i, r := range rs {
		res[i] = f.reply(r)
	}
	cb.Resolve(res, n)
}

func (f fakeSender) Scanner(redis.ScanOpts) redis.Scanner { panic("not used") }
func (f fakeSender) EachShard(func(redis.Sender, error))  { panic("not used") }
func (f fakeSender) Close()                               {}

func TestChanFuturedSend(t *testing.T) {
	snd := redis.ChanFutured{S: fakeSender{reply: func(r redis.Request) interface{} {
		return r.Cmd
	}}}

	f := snd.Send(redis.Req("PING"))
	assert.False(t, f.Cancelled())
	assert.Equal(t, "PING", f.Value())
	<-f.Done()
}

func TestChanFuturedSendMany(t *testing.T) {
	snd := redis.ChanFutured{S: fakeSender{reply: func(r redis.Request) interface{} {
		return r.Cmd
	}}}

	futures := snd.SendMany([]redis.Request{redis.Req("GET", "a"), redis.Req("GET", "b")})
	assert.False(t, futures.Cancelled())
	assert.Equal(t, "GET", futures[0].Value())
	assert.Equal(t, "GET", futures[1].Value())
}

func TestChanFuturedSendTransaction(t *testing.T) {
	snd := redis.ChanFutured{S: fakeSender{reply: func(r redis.Request) interface{} {
		return r.Cmd
	}}}

	txn := snd.SendTransaction([]redis.Request{redis.Req("SET", "a", 1), redis.Req("SET", "b", 2)})
	assert.False(t, txn.Cancelled())
	res, err := txn.Results()
	assert.NoError(t, err)
	assert.Equal(t, []interface{}{"SET", "SET"}, res)
}
