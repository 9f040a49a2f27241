/*
Package redispipe - high throughput Redis connector with implicit pipelining.

https://redis.io/topics/pipelining

Pipelining improves maximum throughput that redis can serve, and reduces CPU usage both on
redis server and on client. Mostly it comes from saving system CPU consumption.

But it is not always possible to use pipelining explicitly: usually there are dozens of
concurrent goroutines, each sends just one request at a time. To handle usual workload,
pipelining has to be implicit.

Connection-per-request working models with a connection pool and only explicit pipelining
show far from optimal performance under highly concurrent load.

This connector is implicitly pipelined from the ground up to achieve maximum performance
in a highly concurrent environment. It writes all requests to a single connection to redis, and
continuously reads answers from another goroutine.

Note that it trades a bit of latency for throughput, and therefore may be not optimal for
non-concurrent usage.

Capabilities

- fast,

- thread-safe: no need to lock around connection, no need to "return to pool", etc,

- pipelining is implicit,

- transactions supported (but without WATCH),

- pub/sub subscriptions, restored automatically across reconnects,

- hook for custom logging,

- the logging hook also reports connection, pub/sub and monitor events; there is no
per-request timing hook.

Limitations

- `WATCH` is not rejected by the client, but it is useless and even harmful when
concurrent goroutines use the same connection.

Structure

- root package is empty

- common functionality is in redis subpackage

- the RESP wire codec is in resp subpackage

- the single connection controller is in redisconn subpackage

- redisdumb is a synchronous one-command-at-a-time client used by tests to
talk to a real server without going through the pipelined Connection

Usage

redisconn.Connect creates an implementation of redis.Sender. redis.Sender provides an
asynchronous api for sending request/requests/transactions. That api accepts redis.Future
interface implementations as an argument and fulfills it asynchronously. Usually you don't
need to provide your own redis.Future implementation, but rather use synchronous wrappers.

To use convenient synchronous api, one should wrap "sender" with one of wrappers:

- redis.Sync{sender} - provides simple synchronous api,

- redis.SyncCtx{sender} - provides same api, but all methods accept context.Context, and
methods return immediately if that context is closed.

Types accepted as command arguments: nil, []byte, string, int (and all other integer types),
float64, float32, bool. All arguments are converted to redis bulk strings as usual (ie
string and bytes - as is; numbers - in decimal notation). bool converted as "0/1",
nil converted to the string "null".

In difference to other redis packages, no custom types are used for request results. Results
are de-serialized into plain go types and are returned as interface{}:

  redis        | go
  -------------|-------
  plain string | string
  bulk string  | []byte
  integer      | int64
  array        | []interface{}
  error        | error (*redis.Error)

IO, connection, and other errors are not returned separately but as result (and have the same
*redis.Error underlying type).
*/
package redispipe
