package redisconn

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/flowredis/redispipe/redis"
	"github.com/flowredis/redispipe/resp"
)

// connState is the controller state vector: disconnected -> connecting
// -> connected_not_ready -> ready, with closing/ended as the two
// terminal branches.
type connState int32

const (
	stDisconnected connState = iota
	stConnecting
	stConnectedNotReady
	stReady
	stClosing
	stEnded
)

func (s connState) String() string {
	switch s {
	case stDisconnected:
		return "disconnected"
	case stConnecting:
		return "connecting"
	case stConnectedNotReady:
		return "connected_not_ready"
	case stReady:
		return "ready"
	case stClosing:
		return "closing"
	case stEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// CLIENT REPLY modes.
const (
	replyOn uint32 = iota
	replyOff
	replySkipOneMore
)

// RetryStrategy decides the next reconnect delay given the attempt
// count, the error that tore the connection down, the cumulative time
// already spent retrying, and how many times this Connection has ever
// reached ready. Returning ok == false ends the connection instead of
// retrying.
type RetryStrategy func(attempt int, err error, totalRetry time.Duration, timesConnected int) (delay time.Duration, ok bool)

// Opts configures a Connection. Zero value is usable: every field has a
// sensible default applied by Connect.
type Opts struct {
	DB       int
	Password string
	Handle   interface{}

	DialTimeout  time.Duration
	IOTimeout    time.Duration
	TCPKeepAlive time.Duration

	Logger Logger
	Async  bool

	// DisableOfflineQueue rejects commands immediately while not ready,
	// instead of the default of queuing them for replay.
	DisableOfflineQueue bool
	// DisableResubscribing skips replaying the subscription set after a
	// reconnect; subscriptions are still tracked and reported.
	DisableResubscribing bool
	// NoReadyCheck skips the post-connect INFO probe and treats the
	// connection as ready immediately after the AUTH/SELECT handshake.
	NoReadyCheck bool

	// RetryStrategy overrides the default exponential backoff. If nil,
	// InitialRetryDelay/RetryBackoff/ConnectTimeout govern retries.
	RetryStrategy     RetryStrategy
	InitialRetryDelay time.Duration
	RetryBackoff      float64
	RetryMaxDelay     time.Duration
	ConnectTimeout    time.Duration
	// MaxAttempts is a deprecated alias for ConnectTimeout that caps the
	// retry budget by attempt count instead of elapsed time. Every
	// reconnection attempt advances a counter that starts at 0 in Connect
	// and restarts at 1 whenever the connection becomes ready; a failure
	// seen once that counter has reached MaxAttempts ends the connection
	// with ErrConnectionBroken instead of retrying further (before the
	// first ready: the initial dial plus MaxAttempts reconnection
	// attempts). Zero disables the cap. Ignored when RetryStrategy is set.
	MaxAttempts int
	// RetryUnfulfilledCommands moves in-flight commands back to the head
	// of the offline queue on disconnect instead of aborting them with
	// ErrUncertainState.
	RetryUnfulfilledCommands bool

	DetectBuffers  bool
	Prefix         string
	RenameCommands map[string]string

	// CompressThreshold gates SendCompressed; see compress.go.
	CompressThreshold int
}

func (o *Opts) setDefaults() {
	if o.DialTimeout <= 0 {
		o.DialTimeout = 10 * time.Second
	}
	if o.IOTimeout == 0 {
		o.IOTimeout = defaultIOTimeout
	} else if o.IOTimeout < 0 {
		o.IOTimeout = 0
	}
	if o.TCPKeepAlive == 0 {
		o.TCPKeepAlive = defaultKeepAlive
	} else if o.TCPKeepAlive < 0 {
		o.TCPKeepAlive = 0
	}
	if o.Logger == nil {
		o.Logger = defaultLogger{}
	}
	if o.InitialRetryDelay <= 0 {
		o.InitialRetryDelay = defaultRetryDelay
	}
	if o.RetryBackoff <= 1 {
		o.RetryBackoff = defaultRetryBackoff
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = defaultConnectTimeout
	}
}

// Connection is the single-connection controller: a connection
// controller, two-queue pipeline, pub/sub overlay and corking batcher
// combined behind the redis.Sender contract. All mutable state is
// guarded by mu; completion callbacks are always invoked after mu is
// released, since a callback is free to call back into Send.
type Connection struct {
	ctx    context.Context
	cancel context.CancelFunc

	addr string
	opts Opts
	id   ksuid.KSUID

	mu  sync.Mutex
	st  connState
	c   net.Conn
	cw  *corkWriter
	gen uint64

	offline  cmdQueue
	inflight cmdQueue

	ps            *pubSub
	replyMode     uint32
	monitoring    bool
	awaitingReady bool

	subInFlight *redis.Command
	subLeft     int

	info *ServerInfo

	attempts       int
	retryDelay     time.Duration
	retryTotal     time.Duration
	retryTimer     *time.Timer
	readyTimer     *time.Timer
	timesConnected int
	emittedEnd     bool
	closeErr       error

	onSettle func(error)
}

// Connect dials addr and returns a Connection that manages its own
// lifecycle: reconnecting with backoff until Close is called, queuing
// commands offline while not ready, restoring subscriptions after every
// reconnect. Unless Opts.Async, Connect blocks until the first
// connection attempt settles (succeeds, or exhausts its first retry
// window according to RetryStrategy/ConnectTimeout).
func Connect(ctx context.Context, addr string, opts Opts) (*Connection, error) {
	if ctx == nil {
		return nil, redis.NewErr(redis.ErrKindOpts, redis.ErrContextIsNil)
	}
	if addr == "" {
		return nil, redis.NewErr(redis.ErrKindOpts, redis.ErrNoAddressProvided)
	}
	opts.setDefaults()

	conn := &Connection{
		addr: addr,
		opts: opts,
		id:   ksuid.New(),
		ps:   newPubSub(),
	}
	conn.ctx, conn.cancel = context.WithCancel(ctx)
	conn.retryDelay = opts.InitialRetryDelay

	ready := make(chan struct{})
	var firstErr error
	var once sync.Once
	conn.onSettle = func(err error) {
		once.Do(func() {
			firstErr = err
			close(ready)
		})
	}

	go conn.openStream()

	if opts.Async {
		return conn, nil
	}
	select {
	case <-ready:
	case <-ctx.Done():
		return conn, ctx.Err()
	}
	conn.mu.Lock()
	st := conn.st
	conn.mu.Unlock()
	if firstErr != nil && st != stReady {
		return conn, firstErr
	}
	return conn, nil
}

// onSettle, when non-nil, is invoked exactly once: the first time the
// connection either becomes ready or gives up for good. It exists only
// to make the synchronous half of Connect block correctly; later
// reconnects after Close/retry exhaustion don't use it.
func (conn *Connection) signalSettle(err error) {
	if conn.onSettle != nil {
		conn.onSettle(err)
	}
}

func (conn *Connection) report(event LogKind, v ...interface{}) {
	conn.opts.Logger.Report(event, conn, v...)
}

func (conn *Connection) String() string {
	return fmt.Sprintf("*redisconn.Connection{addr: %s}", conn.addr)
}

func (conn *Connection) Addr() string { return conn.addr }

func (conn *Connection) RemoteAddr() string {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	if conn.c == nil {
		return ""
	}
	return conn.c.RemoteAddr().String()
}

func (conn *Connection) LocalAddr() string {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	if conn.c == nil {
		return ""
	}
	return conn.c.LocalAddr().String()
}

func (conn *Connection) Handle() interface{} { return conn.opts.Handle }

// ConnectionID returns the ksuid minted for this Connection at Connect
// time, a stable identifier across reconnects (unlike RemoteAddr, which
// is only meaningful while a stream is live).
func (conn *Connection) ConnectionID() string { return conn.id.String() }

func (conn *Connection) ConnectedNow() bool {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	return conn.st == stReady
}

func (conn *Connection) MayBeConnected() bool {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	return conn.st == stReady || conn.st == stConnecting || conn.st == stConnectedNotReady
}

func (conn *Connection) ServerInfo() *ServerInfo {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	return conn.info
}

func (conn *Connection) CommandQueueLength() int {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	return conn.inflight.Len()
}

func (conn *Connection) OfflineQueueLength() int {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	return conn.offline.Len()
}

func (conn *Connection) ShouldBuffer() bool {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	return conn.cw != nil && conn.cw.shouldBuffer
}

// openStream dials, runs the AUTH/SELECT handshake, starts the read
// loop, and kicks off the ready check (the connecting ->
// connected_not_ready transition).
func (conn *Connection) openStream() {
	conn.mu.Lock()
	if conn.st == stClosing || conn.st == stEnded {
		conn.mu.Unlock()
		return
	}
	conn.st = stConnecting
	conn.mu.Unlock()
	conn.report(LogConnecting)

	nc, r, err := conn.dial()
	if err != nil {
		conn.report(LogConnectFailed, err)
		conn.connectionGone(err)
		return
	}

	conn.mu.Lock()
	conn.gen++
	mygen := conn.gen
	conn.c = nc
	conn.cw = newCorkWriter(nc)
	conn.st = stConnectedNotReady
	conn.mu.Unlock()
	conn.report(LogConnected, nc.LocalAddr(), nc.RemoteAddr())

	go conn.readLoop(r, mygen)

	if conn.opts.NoReadyCheck {
		conn.enterReady(mygen)
		return
	}
	conn.readyCheck(mygen)
}

// dial opens the TCP connection and runs the AUTH/SELECT handshake
// synchronously, before any command reaches the normal pipeline.
func (conn *Connection) dial() (net.Conn, *bufio.Reader, error) {
	d := net.Dialer{Timeout: conn.opts.DialTimeout, KeepAlive: conn.opts.TCPKeepAlive}
	nc, err := d.DialContext(conn.ctx, "tcp", conn.addr)
	if err != nil {
		return nil, nil, wrapConnectErr(ErrDialFailed, err, conn.addr, conn.opts.DB)
	}

	r := bufio.NewReaderSize(nc, 128*1024)
	w := bufio.NewWriterSize(nc, 4096)

	if conn.opts.Password != "" {
		if err := writeAndExpectOK(w, r, "AUTH", conn.opts.Password); err != nil {
			if !isNoPasswordSet(err) {
				nc.Close()
				return nil, nil, wrapConnectErr(ErrAuthFailed, err, conn.addr, conn.opts.DB)
			}
			conn.report(LogWarning, "AUTH sent but no password is set on the server")
		}
	}
	if conn.opts.DB != 0 {
		if err := writeAndExpectOK(w, r, "SELECT", strconv.Itoa(conn.opts.DB)); err != nil {
			nc.Close()
			return nil, nil, wrapConnectErr(ErrAuthFailed, err, conn.addr, conn.opts.DB)
		}
	}
	return nc, r, nil
}

func writeAndExpectOK(w *bufio.Writer, r *bufio.Reader, cmd string, args ...string) error {
	iargs := make([]interface{}, len(args))
	for i, a := range args {
		iargs[i] = a
	}
	frag, rerr := resp.AppendCommand(cmd, iargs)
	if rerr != nil {
		return rerr
	}
	if frag.Binary {
		for _, seg := range frag.Segments {
			if _, err := w.Write(seg); err != nil {
				return err
			}
		}
	} else if _, err := w.Write(frag.Text); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if rerr, ok := resp.Read(r).(*redis.Error); ok {
		return rerr
	}
	return nil
}

func isNoPasswordSet(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "without any password") || strings.Contains(msg, "no password is set")
}

// readyCheck issues INFO directly, bypassing the normal pipeline, and
// readLoop routes the matching reply to handleReadyCheckReply instead
// of the dispatcher.
func (conn *Connection) readyCheck(gen uint64) {
	conn.mu.Lock()
	if conn.gen != gen || conn.st != stConnectedNotReady {
		conn.mu.Unlock()
		return
	}
	cw := conn.cw
	conn.awaitingReady = true
	conn.mu.Unlock()

	frag, rerr := resp.AppendCommand("INFO", nil)
	if rerr != nil {
		conn.connectionGone(rerr)
		return
	}
	if err := cw.flushOne(frag); err != nil {
		conn.connectionGone(err)
	}
}

func (conn *Connection) scheduleReadyRecheck(gen uint64, d time.Duration) {
	conn.mu.Lock()
	conn.readyTimer = time.AfterFunc(d, func() { conn.readyCheck(gen) })
	conn.mu.Unlock()
}

func (conn *Connection) handleReadyCheckReply(gen uint64, res interface{}) {
	var text string
	switch t := res.(type) {
	case string:
		text = t
	case []byte:
		text = string(t)
	case *redis.Error:
		conn.retryReadyCheck(gen, t)
		return
	default:
		conn.retryReadyCheck(gen, redis.NewErr(redis.ErrKindResponse, redis.ErrResponseUnexpected))
		return
	}

	info := parseServerInfo(text)
	if info.Loading() {
		conn.report(LogWarning, "server loading, rechecking readiness")
		conn.scheduleReadyRecheck(gen, info.LoadingRecheck())
		return
	}
	if info.MasterLinkDown() {
		conn.scheduleReadyRecheck(gen, defaultReplicaRecheck)
		return
	}

	conn.mu.Lock()
	conn.info = info
	conn.mu.Unlock()
	conn.enterReady(gen)
}

// retryReadyCheck treats "ERR unknown command" as a proxy/minimal build
// that simply doesn't support INFO, and enters ready anyway rather than
// treating the probe's absence as fatal.
func (conn *Connection) retryReadyCheck(gen uint64, err error) {
	if rerr, ok := err.(*redis.Error); ok && strings.Contains(strings.ToLower(rerr.Msg()), "unknown command") {
		conn.enterReady(gen)
		return
	}
	conn.connectionGone(wrapConnectErr(ErrReadyCheckFailed, err, conn.addr, conn.opts.DB))
}

// enterReady runs subscription restore and then offline queue replay,
// and resets the retry state: a successful ready transition forgives
// all prior attempts. SELECT has already run during dial; MONITOR mode
// is not re-entered after a reconnect.
func (conn *Connection) enterReady(gen uint64) {
	conn.mu.Lock()
	if conn.gen != gen {
		conn.mu.Unlock()
		return
	}
	conn.st = stReady
	conn.attempts = 1
	conn.retryDelay = conn.opts.InitialRetryDelay
	conn.retryTotal = 0
	conn.timesConnected++
	subs := conn.ps.entries()
	conn.mu.Unlock()

	// resubscribe waits for SUBSCRIBE acks that only arrive by way of
	// this same connection's read loop; run the rest of the ready
	// transition on its own goroutine so a caller reached through the
	// read loop (handleReadyCheckReply) doesn't block itself waiting for
	// replies only it can deliver.
	go func() {
		if !conn.opts.DisableResubscribing && len(subs) > 0 {
			conn.resubscribe(subs)
		}
		conn.drainOffline()
		conn.report(LogReady)
		conn.signalSettle(nil)
	}()
}

func (conn *Connection) resubscribe(subs []subKey) {
	var wg sync.WaitGroup
	wg.Add(len(subs))
	for _, s := range subs {
		name := "SUBSCRIBE"
		if s.Kind == "psubscribe" {
			name = "PSUBSCRIBE"
		}
		cmd := redis.NewCommand(name, []interface{}{s.Channel}, func(interface{}, uint64) { wg.Done() }, 0)
		conn.submit(cmd)
	}
	wg.Wait()
}

func (conn *Connection) drainOffline() {
	for {
		conn.mu.Lock()
		if conn.st != stReady {
			conn.mu.Unlock()
			return
		}
		cmd := conn.offline.ShiftFront()
		conn.mu.Unlock()
		if cmd == nil {
			break
		}
		conn.submit(cmd)
	}
	conn.report(LogDrain)
}

// prepare normalizes arguments and applies key-prefix/rename-commands
// configuration exactly once, at original submission; offline-queue
// replay calls submit directly on an already-prepared command instead
// of calling prepare a second time, and resubscribe submits its freshly
// built SUBSCRIBE/PSUBSCRIBE commands without calling prepare.
func (conn *Connection) prepare(cmd *redis.Command) {
	args, bufferArgs, bigData := redis.NormalizeArgs(cmd.Args)
	cmd.Args = args
	cmd.BufferArgs = bufferArgs
	cmd.BigData = bigData
	if conn.opts.Prefix != "" {
		cmd.Args = redis.PrefixKeys(cmd.Name, cmd.Args, conn.opts.Prefix)
	}
	if wire, ok := conn.opts.RenameCommands[strings.ToUpper(cmd.Name)]; ok {
		cmd.WireName = wire
	}
	if cmd.Origin == "" {
		cmd.Origin = callerOrigin()
	}
}

func callerOrigin() string {
	if _, file, line, ok := runtime.Caller(3); ok {
		return fmt.Sprintf("%s:%d", file, line)
	}
	return ""
}

// submit routes a single already-prepared command: closing/ended abort
// synchronously, ready writes and tracks it, anything else queues it
// offline. The completion closure submitLocked returns is always
// invoked after mu is released, so a user callback calling back into
// Send never deadlocks on conn.mu.
func (conn *Connection) submit(cmd *redis.Command) {
	conn.mu.Lock()
	complete, ioErr := conn.submitLocked(cmd)
	conn.mu.Unlock()
	if complete != nil {
		complete()
	}
	if ioErr != nil {
		conn.connectionGone(ioErr)
	}
}

// sendBatch corks the writer around a slice of prepared commands so
// they reach the transport as one pipeline batch, instead of each
// acquiring and releasing the writer independently.
func (conn *Connection) sendBatch(cmds []*redis.Command) {
	if len(cmds) == 0 {
		return
	}
	conn.mu.Lock()
	cork := conn.st == stReady && len(cmds) > 1
	if cork {
		conn.cw.Cork()
	}
	completions := make([]func(), 0, len(cmds))
	var ioErr error
	for _, cmd := range cmds {
		c, err := conn.submitLocked(cmd)
		if c != nil {
			completions = append(completions, c)
		}
		if err != nil && ioErr == nil {
			ioErr = err
		}
	}
	if cork {
		if err := conn.cw.Uncork(); err != nil && ioErr == nil {
			ioErr = err
		}
	}
	conn.mu.Unlock()
	for _, c := range completions {
		c()
	}
	if ioErr != nil {
		conn.connectionGone(ioErr)
	}
}

func (conn *Connection) submitLocked(cmd *redis.Command) (complete func(), ioErr error) {
	switch conn.st {
	case stClosing, stEnded:
		err := abortError(redis.ErrClosed, cmd, false)
		return func() { cmd.Complete(err) }, nil
	case stReady:
		return conn.writeAndTrackLocked(cmd)
	default:
		if conn.opts.DisableOfflineQueue {
			err := redis.NewErrMsg(redis.ErrKindAbort, redis.ErrClosed, "not connected, offline queue disabled").
				With("command", strings.ToUpper(cmd.Name)).With("args", cmd.Args)
			return func() { cmd.Complete(err) }, nil
		}
		conn.offline.PushBack(cmd)
		return nil, nil
	}
}

// writeAndTrackLocked serializes cmd, hands it to the corking writer,
// applies the CLIENT REPLY mode transition at exactly the instant the
// bytes are queued, and either tracks the command in the in-flight
// queue or completes it immediately if no wire reply will ever arrive
// for it.
func (conn *Connection) writeAndTrackLocked(cmd *redis.Command) (func(), error) {
	target, isReplyCmd := conn.isClientReply(cmd)
	mode := conn.replyMode

	if redis.IsSubscribeFamily(cmd.Name) {
		conn.ps.EnterOnIssue(conn.inflight.Len())
	}

	frag, rerr := resp.AppendCommand(cmd.Wire(), cmd.Args)
	if rerr != nil {
		return func() { cmd.Complete(rerr) }, nil
	}
	// Once pub_sub_mode is non-zero, CLIENT REPLY mutations are ignored:
	// the pub/sub overlay owns the reply stream.
	if isReplyCmd && conn.ps.Mode == 0 {
		switch strings.ToUpper(target) {
		case "ON":
			cmd.CallOnWrite = func() { conn.replyMode = replyOn }
		case "OFF":
			cmd.CallOnWrite = func() { conn.replyMode = replyOff }
		case "SKIP":
			cmd.CallOnWrite = func() { conn.replyMode = replySkipOneMore }
		}
	} else if strings.EqualFold(cmd.Name, "MONITOR") {
		cmd.CallOnWrite = func() { conn.monitoring = true }
	}

	if err := conn.cw.Write(frag); err != nil {
		abErr := abortError(redis.ErrConnectionBroken, cmd, true)
		return func() { cmd.Complete(abErr) }, err
	}
	if cow := cmd.CallOnWrite; cow != nil {
		cow()
	}
	if mode == replySkipOneMore && !(isReplyCmd && conn.ps.Mode == 0) {
		conn.replyMode = replyOn
	}

	expectReply := true
	switch {
	case isReplyCmd && strings.EqualFold(target, "ON"):
		expectReply = true
	case isReplyCmd:
		expectReply = false
	case mode == replyOff:
		expectReply = false
	case mode == replySkipOneMore:
		expectReply = false
	}

	if !expectReply {
		return func() { cmd.Complete(redis.Undefined{}) }, nil
	}
	conn.inflight.PushBack(cmd)
	return nil, nil
}

func (conn *Connection) isClientReply(cmd *redis.Command) (target string, ok bool) {
	if !strings.EqualFold(cmd.Name, "CLIENT") || len(cmd.Args) < 2 {
		return "", false
	}
	sub, ok1 := redis.ArgToString(cmd.Args[0])
	if !ok1 || !strings.EqualFold(sub, "REPLY") {
		return "", false
	}
	t, ok2 := redis.ArgToString(cmd.Args[1])
	if !ok2 {
		return "", false
	}
	return t, true
}

// SendCommand is the Callback-based low-level entry point underlying
// send_command; Send/SendMany/SendTransaction (the redis.Sender
// contract) build on the same prepare/submit pipeline with a Future
// sink instead.
func (conn *Connection) SendCommand(name string, args []interface{}, cb Callback, n uint64) {
	cmd := redis.NewCommand(name, args, cb, n)
	conn.prepare(cmd)
	conn.submit(cmd)
}

func (conn *Connection) Send(r Request, cb Future, n uint64) {
	cmd := redis.NewCommandFuture(r.Cmd, r.Args, cb, n)
	conn.prepare(cmd)
	conn.submit(cmd)
}

func (conn *Connection) SendMany(reqs []Request, cb Future, n uint64) {
	cmds := make([]*redis.Command, len(reqs))
	for i, r := range reqs {
		cmd := redis.NewCommandFuture(r.Cmd, r.Args, cb, n+uint64(i))
		conn.prepare(cmd)
		cmds[i] = cmd
	}
	conn.sendBatch(cmds)
}

func ignoreReply(interface{}, uint64) {}

// SendTransaction wraps reqs in MULTI/EXEC: queued-command replies are
// discarded (they are always +QUEUED or a queue-time error the EXEC
// reply surfaces again), and cb resolves once with EXEC's array reply,
// exactly as redis.TransactionResponse expects.
func (conn *Connection) SendTransaction(reqs []Request, cb Future, start uint64) {
	cmds := make([]*redis.Command, 0, len(reqs)+2)
	cmds = append(cmds, redis.NewCommand("MULTI", nil, Callback(ignoreReply), 0))
	for _, r := range reqs {
		cmd := redis.NewCommand(r.Cmd, r.Args, Callback(ignoreReply), 0)
		conn.prepare(cmd)
		cmds = append(cmds, cmd)
	}
	cmds = append(cmds, redis.NewCommandFuture("EXEC", nil, cb, start))
	conn.sendBatch(cmds)
}

// readLoop owns one stream generation: it exits as soon as gen is
// superseded by a reconnect, so at most one reader is ever dispatching
// for a given Connection.
func (conn *Connection) readLoop(r *bufio.Reader, gen uint64) {
	for {
		res := resp.Read(r)

		conn.mu.Lock()
		if conn.gen != gen {
			conn.mu.Unlock()
			return
		}
		awaiting := conn.awaitingReady
		conn.awaitingReady = false
		conn.mu.Unlock()

		if rerr, ok := res.(*redis.Error); ok && rerr.HardError() {
			switch {
			case awaiting:
				conn.retryReadyCheck(gen, rerr)
			case rerr.Kind == redis.ErrKindIO:
				// the transport closed or failed: an ordinary disconnect
				conn.connectionGone(rerr)
			default:
				conn.fatalParserError(rerr)
			}
			return
		}

		if awaiting {
			conn.handleReadyCheckReply(gen, res)
			continue
		}
		conn.dispatchReply(res)
	}
}

// fatalParserError handles an unrecoverable parse error: the stream is
// no longer trustworthy, so every in-flight command is aborted with
// ErrFatal and the stream is torn down and reconnected.
func (conn *Connection) fatalParserError(err error) {
	conn.mu.Lock()
	conn.st = stConnectedNotReady
	conn.mu.Unlock()
	flushQueue(&conn.inflight, redis.ErrFatal, true)
	conn.report(LogError, err)
	conn.connectionGone(err)
}

// connectionGone tears down the stream, decides (via RetryStrategy or
// the default backoff) whether to retry or give up, flushes or
// preserves in-flight commands accordingly,
// and schedule the next attempt.
func (conn *Connection) connectionGone(err error) {
	conn.mu.Lock()
	if conn.retryTimer != nil {
		conn.mu.Unlock()
		return
	}
	prevState := conn.st
	conn.gen++
	c := conn.c
	conn.c = nil
	conn.cw = nil
	conn.ps.Mode = 0
	conn.subInFlight, conn.subLeft = nil, 0
	conn.monitoring = false
	conn.replyMode = replyOn
	conn.mu.Unlock()

	if c != nil {
		c.Close()
	}

	if prevState == stClosing || prevState == stEnded {
		conn.mu.Lock()
		conn.st = stEnded
		already := conn.emittedEnd
		conn.emittedEnd = true
		conn.mu.Unlock()
		flushQueue(&conn.offline, redis.ErrClosed, false)
		flushQueue(&conn.inflight, redis.ErrClosed, true)
		if !already {
			conn.report(LogContextClosed)
		}
		conn.signalSettle(err)
		return
	}

	conn.mu.Lock()
	conn.st = stDisconnected
	conn.mu.Unlock()
	conn.report(LogDisconnected, err)

	var delay time.Duration
	if conn.opts.RetryStrategy != nil {
		d, ok := conn.opts.RetryStrategy(conn.attempts, err, conn.retryTotal, conn.timesConnected)
		if !ok {
			conn.endWithError(redis.ErrClosed, err)
			return
		}
		delay = d
	} else {
		if conn.retryTotal >= conn.opts.ConnectTimeout {
			conn.endWithError(redis.ErrConnectionBroken, err)
			return
		}
		if conn.opts.MaxAttempts > 0 && conn.attempts >= conn.opts.MaxAttempts {
			conn.endWithError(redis.ErrConnectionBroken, err)
			return
		}
		delay = conn.retryDelay
		if conn.opts.RetryMaxDelay > 0 && delay > conn.opts.RetryMaxDelay {
			delay = conn.opts.RetryMaxDelay
		}
		if remain := conn.opts.ConnectTimeout - conn.retryTotal; delay > remain {
			delay = remain
		}
	}

	if conn.opts.RetryUnfulfilledCommands {
		conn.mu.Lock()
		pending := conn.inflight.drain()
		conn.offline.PushFrontAll(pending)
		conn.mu.Unlock()
	} else {
		flushQueue(&conn.inflight, redis.ErrUncertainState, true)
	}

	conn.mu.Lock()
	conn.retryDelay = delay
	conn.closeErr = err
	conn.retryTimer = time.AfterFunc(delay, conn.retryConnection)
	conn.mu.Unlock()
}

// endWithError ends the connection for good: both queues flush with
// code, the state vector moves to ended, and RetryExhausted is
// reported. Reached when RetryStrategy returns ok == false, when the
// default backoff's ConnectTimeout budget is spent, or when MaxAttempts
// is reached.
func (conn *Connection) endWithError(code redis.ErrorCode, err error) {
	conn.mu.Lock()
	conn.st = stEnded
	conn.mu.Unlock()
	flushQueue(&conn.offline, code, false)
	flushQueue(&conn.inflight, code, true)
	conn.report(LogRetryExhausted, err)
	conn.signalSettle(err)
}

// retryConnection fires when the backoff timer elapses: report before
// mutating, so LogReconnecting sees the delay that was actually waited,
// then advance the retry arithmetic and attempt to open a new stream.
func (conn *Connection) retryConnection() {
	conn.mu.Lock()
	conn.retryTimer = nil
	attempt, delay, total, lastErr := conn.attempts, conn.retryDelay, conn.retryTotal, conn.closeErr
	conn.mu.Unlock()

	conn.report(LogReconnecting, attempt, delay, total, lastErr)

	conn.mu.Lock()
	conn.retryTotal += delay
	conn.attempts++
	conn.retryDelay = time.Duration(float64(conn.retryDelay) * conn.opts.RetryBackoff)
	conn.mu.Unlock()

	conn.openStream()
}

// Close tears the connection down for good: queued and in-flight
// commands are aborted with NR_CLOSED and no further reconnection is
// attempted.
func (conn *Connection) Close() {
	conn.mu.Lock()
	if conn.st == stClosing || conn.st == stEnded {
		conn.mu.Unlock()
		return
	}
	conn.st = stClosing
	conn.mu.Unlock()
	conn.cancel()
	conn.connectionGone(redis.NewErr(redis.ErrKindContext, redis.ErrContextClosed))
}

// Quit is Close under the name most redis clients use for a graceful
// shutdown; this client has no in-band QUIT handshake to wait for since
// torn-down commands are aborted locally rather than drained first.
func (conn *Connection) Quit() {
	conn.Close()
}
