package redisconn

import "github.com/flowredis/redispipe/redis"

// cmdQueue is the FIFO backing both the offline queue and the in-flight
// queue: O(1) push-back and shift-front over *redis.Command. A command
// is in exactly one queue between creation and completion, except
// during the atomic shift-write-push step send_command performs.
type cmdQueue struct {
	items []*redis.Command
	head  int
}

func (q *cmdQueue) Len() int {
	return len(q.items) - q.head
}

func (q *cmdQueue) PushBack(c *redis.Command) {
	q.items = append(q.items, c)
}

// PushFrontAll prepends cmds, in order, ahead of whatever is already
// queued — used by retry_unfulfilled_commands to return in-flight
// commands to the head of offline_queue.
func (q *cmdQueue) PushFrontAll(cmds []*redis.Command) {
	if len(cmds) == 0 {
		return
	}
	rest := q.drain()
	q.items = make([]*redis.Command, 0, len(cmds)+len(rest))
	q.items = append(q.items, cmds...)
	q.items = append(q.items, rest...)
	q.head = 0
}

func (q *cmdQueue) ShiftFront() *redis.Command {
	if q.head >= len(q.items) {
		return nil
	}
	c := q.items[q.head]
	q.items[q.head] = nil
	q.head++
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	} else if q.head > 64 && q.head*2 > len(q.items) {
		q.items = append(q.items[:0], q.items[q.head:]...)
		q.head = 0
	}
	return c
}

func (q *cmdQueue) Peek() *redis.Command {
	if q.head >= len(q.items) {
		return nil
	}
	return q.items[q.head]
}

// At returns the i'th queued command without shifting, 0 being the head.
// Used by the pub/sub overlay to look ahead for another subscribe-family
// command when an unsubscribe drops the count to zero.
func (q *cmdQueue) At(i int) *redis.Command {
	idx := q.head + i
	if idx >= len(q.items) {
		return nil
	}
	return q.items[idx]
}

// drain empties the queue and returns the remaining commands in order.
func (q *cmdQueue) drain() []*redis.Command {
	out := make([]*redis.Command, 0, q.Len())
	for c := q.ShiftFront(); c != nil; c = q.ShiftFront() {
		out = append(out, c)
	}
	return out
}
