package redisconn

import "time"

// Retry arithmetic defaults.
const (
	defaultRetryDelay      = 200 * time.Millisecond
	defaultRetryBackoff    = 1.7
	defaultConnectTimeout  = 3600 * time.Second
	defaultLoadingRecheck  = 1 * time.Second
	defaultReplicaRecheck  = 50 * time.Millisecond
	defaultLoadingAuthWait = 100 * time.Millisecond

	defaultIOTimeout = 1 * time.Second
	defaultKeepAlive = 300 * time.Millisecond
)

// maxStringWrite is the 4 MiB boundary for the corking batcher's
// strings path: concatenated text fragments are split into writes no
// larger than this, to avoid allocating a pathologically large string.
const maxStringWrite = 4 * 1024 * 1024
