package redisconn

import "github.com/flowredis/redispipe/redis"

// EachShard collapses to a single connection: call back once with this
// Connection, then once more with (nil, nil) to signal completion,
// matching what a real sharding Sender does when it has just one shard.
// Lets callers range over shards uniformly regardless of topology.
func (c *Connection) EachShard(cb func(redis.Sender, error)) {
	cb(c, nil)
	cb(nil, nil)
}
