package redis

// Callback is the low-level completion sink for a Command. As throughout
// this package, errors are not returned separately: a failed command
// calls back with a *Error as its reply.
type Callback func(reply interface{}, n uint64)

// Command is the inert record of one pending request: a name,
// its normalized argument list, a single-shot completion sink, and the
// bookkeeping the pipeline needs to serialize and track it. It is
// created by Connection.SendCommand, mutated only by the pipeline
// (queue membership, CallOnWrite firing, Complete poisoning the sink),
// and destroyed once its sink has fired exactly once.
type Command struct {
	Name string
	Args []interface{}

	// N is an opaque batch index threaded back through Callback; single
	// commands pass 0.
	N uint64

	cb       Callback
	future   Future
	cbCalled bool

	// CallOnWrite runs synchronously between "we committed to writing
	// this command" and "the bytes are on the wire" -- used by CLIENT
	// REPLY to flip reply_mode at exactly the right instant.
	CallOnWrite func()

	// BufferArgs is set during normalization if any argument is a raw
	// []byte rather than text; it decides whether DetectBuffers converts
	// the reply to text. The writer picks its path from the prepared
	// fragment's Binary flag, not from this field.
	BufferArgs bool
	// BigData is set when any argument was promoted to a binary buffer
	// because it exceeded the text-argument size threshold.
	BigData bool

	// Origin captures a caller-supplied stack/site label used to enrich
	// errors raised later, when the original call stack is long gone.
	Origin string

	// WireName overrides Name on the wire only, for RenameCommands
	// configuration; Name keeps naming the logical command so command
	// table lookups (pub/sub family detection, key positions) still work.
	WireName string
}

// Wire returns the command name to serialize: WireName if the
// connection's RenameCommands table set one, otherwise Name.
func (c *Command) Wire() string {
	if c.WireName != "" {
		return c.WireName
	}
	return c.Name
}

// NewCommand builds a command record with a raw Callback sink.
func NewCommand(name string, args []interface{}, cb Callback, n uint64) *Command {
	return &Command{Name: name, Args: args, cb: cb, N: n}
}

// NewCommandFuture builds a command record whose completion resolves a
// Future instead of invoking a callback directly.
func NewCommandFuture(name string, args []interface{}, f Future, n uint64) *Command {
	return &Command{Name: name, Args: args, future: f, N: n}
}

// Complete fires the command's sink exactly once. Subsequent calls are
// no-ops: a command may be completed by the dispatcher, or preemptively
// by an error flush racing with an in-flight reply, never both.
func (c *Command) Complete(reply interface{}) {
	if c.cbCalled {
		return
	}
	c.cbCalled = true
	if c.cb != nil {
		c.cb(reply, c.N)
	} else if c.future != nil {
		c.future.Resolve(reply, c.N)
	}
}

// Completed reports whether the sink has already fired.
func (c *Command) Completed() bool {
	return c.cbCalled
}
