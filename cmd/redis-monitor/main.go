// Command redis-monitor issues MONITOR against a server and prints the
// colorized command stream to stdout, the way a developer would tail
// traffic against a running connection.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"regexp"

	"github.com/fatih/color"

	"github.com/flowredis/redispipe/redis"
	"github.com/flowredis/redispipe/redisconn"
)

var (
	colorTimestamp = color.New(color.FgHiBlack)
	colorCommand   = color.New(color.FgHiYellow, color.Bold)
	colorArgs      = color.New(color.FgHiBlue)
)

var firstQuoted = regexp.MustCompile(`^"((?:[^"\\]|\\.)*)"\s*(.*)$`)

// monitorLogger prints every LogMonitor event and otherwise stays quiet;
// connection lifecycle noise would drown out the command stream.
type monitorLogger struct{}

func (monitorLogger) Report(event redisconn.LogKind, conn *redisconn.Connection, v ...interface{}) {
	switch event {
	case redisconn.LogMonitor:
		ts, _ := v[0].(string)
		rest, _ := v[1].(string)
		colorTimestamp.Printf("%s ", ts)
		if m := firstQuoted.FindStringSubmatch(rest); m != nil {
			colorCommand.Print(m[1])
			fmt.Print(" ")
			colorArgs.Println(m[2])
		} else {
			colorArgs.Println(rest)
		}
	case redisconn.LogConnectFailed, redisconn.LogDisconnected, redisconn.LogRetryExhausted:
		fmt.Fprintln(os.Stderr, v...)
	}
}

func main() {
	addr := flag.String("addr", "127.0.0.1:6379", "redis server address")
	password := flag.String("password", "", "redis AUTH password")
	flag.Parse()

	ctx := context.Background()
	conn, err := redisconn.Connect(ctx, *addr, redisconn.Opts{
		Password: *password,
		Logger:   monitorLogger{},
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect:", err)
		os.Exit(1)
	}
	defer conn.Close()

	sync := redis.Sync{S: conn}
	if res := sync.Do("MONITOR"); redis.AsError(res) != nil {
		fmt.Fprintln(os.Stderr, "monitor:", res)
		os.Exit(1)
	}

	select {}
}
