/*
Package redisconn implements a connection to a single redis server.

Connection is a "wrapper" around a single tcp connection. All requests
are fed into that one connection, and responses are read back
asynchronously by a dedicated goroutine and routed to whichever command
is waiting for them; pub/sub pushes and MONITOR lines are routed the
same way, ahead of ordinary replies. Connection is thread-safe: it
needs no external synchronization.

Connect is responsible for reconnection with backoff, replaying queued
commands once a connection becomes ready again, and restoring any
subscriptions that were active before the drop. It does not retry
individual commands across reconnects unless Opts.RetryUnfulfilledCommands
is set.
*/
package redisconn
