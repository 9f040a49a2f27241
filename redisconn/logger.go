package redisconn

import "log"

// LogKind enumerates the events a Connection reports, routed through a
// single pluggable Logger rather than a direct dependency on a specific
// logging library.
type LogKind int

const (
	LogConnecting LogKind = iota
	LogConnected
	LogConnectFailed
	LogDisconnected
	LogContextClosed

	LogReady
	LogReconnecting
	LogRetryExhausted
	LogPubSubMode

	LogDrain
	LogWarning
	LogError
	LogMonitor

	LogMessage
	LogPMessage
	LogSubscribe
	LogUnsubscribe
	LogPSubscribe
	LogPUnsubscribe

	LogMAX
)

// Logger receives state-transition and protocol-event reports.
type Logger interface {
	Report(event LogKind, conn *Connection, v ...interface{})
}

// NoopLogger discards every report; use it to silence the default
// logger without writing a custom implementation.
type NoopLogger struct{}

func (NoopLogger) Report(event LogKind, conn *Connection, v ...interface{}) {}

type defaultLogger struct{}

func (d defaultLogger) Report(event LogKind, conn *Connection, v ...interface{}) {
	switch event {
	case LogConnecting:
		log.Printf("redis: connecting to %s", conn.Addr())
	case LogConnected:
		log.Printf("redis: connected to %s (local %s, remote %s)", conn.Addr(), v[0], v[1])
	case LogConnectFailed:
		log.Printf("redis: connect to %s failed: %s", conn.Addr(), v[0])
	case LogDisconnected:
		log.Printf("redis: connection to %s broken: %s", conn.Addr(), v[0])
	case LogContextClosed:
		log.Printf("redis: connection to %s closed", conn.Addr())
	case LogReady:
		log.Printf("redis: %s ready", conn.Addr())
	case LogReconnecting:
		log.Printf("redis: %s reconnecting: attempt=%v delay=%v totalRetry=%v err=%v", conn.Addr(), v[0], v[1], v[2], v[3])
	case LogRetryExhausted:
		log.Printf("redis: %s retry budget exhausted: %s", conn.Addr(), v[0])
	case LogPubSubMode:
		log.Printf("redis: %s pub/sub mode -> %v", conn.Addr(), v[0])
	case LogDrain:
		log.Printf("redis: %s drained", conn.Addr())
	case LogWarning:
		log.Printf("redis: %s warning: %s", conn.Addr(), v[0])
	case LogError:
		log.Printf("redis: %s error: %s", conn.Addr(), v[0])
	case LogMonitor:
		log.Printf("redis: %s monitor: %v", conn.Addr(), v[0])
	case LogMessage:
		log.Printf("redis: %s message on %v", conn.Addr(), v[0])
	case LogPMessage:
		log.Printf("redis: %s pmessage on %v/%v", conn.Addr(), v[0], v[1])
	case LogSubscribe, LogUnsubscribe, LogPSubscribe, LogPUnsubscribe:
		log.Printf("redis: %s %v %v (count=%v)", conn.Addr(), event, v[0], v[1])
	default:
		args := []interface{}{"redis: unexpected event:", event, conn}
		args = append(args, v...)
		log.Print(args...)
	}
}
