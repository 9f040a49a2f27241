package redisconn

import "github.com/flowredis/redispipe/redis"

// Scanner adapts redis.ScannerBase (SCAN/HSCAN/SSCAN/ZSCAN cursor
// iteration) onto this package's single-connection send_command entry
// point, exercising the same offline-queue/ready gate as any other
// command.
type scanner struct {
	redis.ScannerBase
	conn *Connection
}

func (c *Connection) Scanner(opts redis.ScanOpts) redis.Scanner {
	return &scanner{ScannerBase: redis.ScannerBase{ScanOpts: opts}, conn: c}
}

func (s *scanner) Next(cb redis.Future) {
	if s.IterLast() {
		cb.Resolve(redis.ScanEOF, 0)
		return
	}
	s.DoNext(cb, s.conn)
}
