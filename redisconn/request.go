package redisconn

import "github.com/flowredis/redispipe/redis"

// Request, Callback and Future are re-exported from redis so callers
// don't need a second import for the convenience surface (the flat
// Request builder, multi/exec batching) that sits on top of this
// package's Connection.
type Request = redis.Request
type Callback = redis.Callback
type Future = redis.Future
