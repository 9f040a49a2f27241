package redispipe_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/flowredis/redispipe/redis"
	"github.com/flowredis/redispipe/redisconn"
)

const databaseno = 0
const password = ""

var myhandle interface{} = nil

func Example_usage() {
	ctx := context.Background()

	opts := redisconn.Opts{
		DB:       databaseno,
		Password: password,
		Logger:   redisconn.NoopLogger{}, // shut up logging. Could be your custom implementation.
		Handle:   myhandle,               // custom data, useful for custom logging
		// Other parameters (usually, no need to change):
		// IOTimeout, DialTimeout, TCPKeepAlive, RetryStrategy, DetectBuffers
	}
	conn, err := redisconn.Connect(ctx, "127.0.0.1:6379", opts)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	var sender redis.Sender = conn
	sync := redis.SyncCtx{S: sender} // wrapper for synchronous api

	res := sync.Do(ctx, "SET", "key", "ho")
	if err := redis.AsError(res); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("result: %q\n", res)

	res = sync.Do(ctx, "GET", "key")
	if err := redis.AsError(res); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("result: %q\n", res)

	res = sync.Send(ctx, redis.Req("HMSET", "hashkey", "field1", "val1", "field2", "val2"))
	if err := redis.AsError(res); err != nil {
		log.Fatal(err)
	}

	res = sync.Send(ctx, redis.Req("HMGET", "hashkey", "field1", "field2", "field3"))
	if err := redis.AsError(res); err != nil {
		log.Fatal(err)
	}
	for i, v := range res.([]interface{}) {
		fmt.Printf("%d: %T %q\n", i, v, v)
	}

	res = sync.Send(ctx, redis.Req("HMGET", "key", "field1"))
	if err := redis.AsError(res); err != nil {
		if rerr := redis.AsRedisError(res); rerr != nil && rerr.KindOf(redis.ErrResult) {
			fmt.Printf("expected error: %s (%v)\n", rerr.Msg(), rerr.Code)
		} else {
			fmt.Printf("unexpected error: %v\n", err)
		}
	} else {
		fmt.Printf("unexpected missed error\n")
	}

	results := sync.SendMany(ctx, []redis.Request{
		redis.Req("GET", "key"),
		redis.Req("HMGET", "hashkey", "field1", "field3"),
	}).([]interface{})
	// results is []interface{}, each element is result for corresponding request
	for i, res := range results {
		fmt.Printf("result[%d]: %T %q\n", i, res, res)
	}

	tresults, err := sync.SendTransaction(ctx, []redis.Request{
		redis.Req("SET", "a", "b"),
		redis.Req("SET", "b", 0),
		redis.Req("INCRBY", "b", 3),
	})
	if err != nil {
		log.Fatal(err)
	}
	for i, res := range tresults {
		fmt.Printf("tresult[%d]: %T %q\n", i, res, res)
	}

	// Output:
	// result: "OK"
	// result: "ho"
	// 0: []uint8 "val1"
	// 1: []uint8 "val2"
	// 2: <nil> %!q(<nil>)
	// expected error: WRONGTYPE Operation against a key holding the wrong kind of value (ErrResult)
	// result[0]: []uint8 "ho"
	// result[1]: []interface {} ["val1" <nil>]
	// tresult[0]: string "OK"
	// tresult[1]: string "OK"
	// tresult[2]: int64 '\x03'
}

// Example_pubsub shows subscribing on the same connection used for
// ordinary commands: SUBSCRIBE/PSUBSCRIBE push messages are delivered
// through the Logger hook rather than through the command's own
// completion, so a custom Logger is how a caller observes them.
func Example_pubsub() {
	ctx := context.Background()

	messages := make(chan string, 1)
	logger := subscriberLogger{messages: messages}

	conn, err := redisconn.Connect(ctx, "127.0.0.1:6379", redisconn.Opts{Logger: logger})
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	sync := redis.SyncCtx{S: conn}
	if res := sync.Send(ctx, redis.Req("SUBSCRIBE", "news")); redis.AsError(res) != nil {
		log.Fatal(res)
	}

	publisher, err := redisconn.Connect(ctx, "127.0.0.1:6379", redisconn.Opts{})
	if err != nil {
		log.Fatal(err)
	}
	defer publisher.Close()
	redis.Sync{S: publisher}.Do("PUBLISH", "news", "hello")

	select {
	case msg := <-messages:
		fmt.Println(msg)
	case <-time.After(time.Second):
		fmt.Println("timed out waiting for a message")
	}

	// Output:
	// hello
}

type subscriberLogger struct {
	messages chan<- string
}

func (l subscriberLogger) Report(event redisconn.LogKind, _ *redisconn.Connection, v ...interface{}) {
	if event == redisconn.LogMessage {
		l.messages <- fmt.Sprintf("%s", v[1])
	}
}
