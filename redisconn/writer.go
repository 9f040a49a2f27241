package redisconn

import (
	"bufio"
	"net"

	"github.com/flowredis/redispipe/resp"
)

// highWaterMark is the buffered-bytes threshold past which rawWrite
// reports the transport as unwritable, simulating the backpressure
// signal a transport is assumed to provide. A real net.Conn has no
// such signal (Write blocks until the kernel accepts the bytes or
// errors), so this is the bufio layer's stand-in.
const highWaterMark = 256 * 1024

// corkWriter is the "Writer / corking batcher" component: it exposes
// write/cork/uncork and owns should_buffer. Uncorked writes go straight
// to the transport; corked writes accumulate into pending and are
// flushed by Uncork via the strings path or the buffers path depending
// on whether any pending fragment carried binary segments.
type corkWriter struct {
	conn   net.Conn
	bw     *bufio.Writer
	corked bool

	pending   []resp.Fragment
	anyBinary bool

	shouldBuffer bool
}

func newCorkWriter(c net.Conn) *corkWriter {
	return &corkWriter{conn: c, bw: bufio.NewWriterSize(c, 128*1024)}
}

func (w *corkWriter) Cork() {
	w.corked = true
}

// Write queues or immediately emits one command's serialized fragment.
func (w *corkWriter) Write(f resp.Fragment) error {
	if !w.corked {
		return w.flushOne(f)
	}
	w.pending = append(w.pending, f)
	if f.Binary {
		w.anyBinary = true
	}
	return nil
}

// Uncork flushes the pipeline batch accumulated since Cork and clears
// the corked flag. fire_strings is decided here: true unless any
// fragment in the batch carried binary segments.
func (w *corkWriter) Uncork() error {
	w.corked = false
	if len(w.pending) == 0 {
		return nil
	}
	defer func() {
		w.pending = w.pending[:0]
		w.anyBinary = false
	}()
	var err error
	if w.anyBinary {
		err = w.writeBuffersPath()
	} else {
		err = w.writeStringsPath()
	}
	if err != nil {
		return err
	}
	return w.bw.Flush()
}

// writeStringsPath concatenates text fragments, splitting the
// underlying write at maxStringWrite so a very long pipeline batch
// never forces one pathologically large allocation.
func (w *corkWriter) writeStringsPath() error {
	buf := make([]byte, 0, 4096)
	for _, f := range w.pending {
		if len(buf) > 0 && len(buf)+len(f.Text) > maxStringWrite {
			if err := w.rawWrite(buf); err != nil {
				return err
			}
			buf = buf[:0]
		}
		buf = append(buf, f.Text...)
	}
	if len(buf) > 0 {
		return w.rawWrite(buf)
	}
	return nil
}

// writeBuffersPath writes each fragment verbatim: text fragments as one
// write, binary fragments as their header/payload/CRLF writes, never
// merging bytes across fragment boundaries (no copies of the payload).
func (w *corkWriter) writeBuffersPath() error {
	for _, f := range w.pending {
		if f.Binary {
			for _, seg := range f.Segments {
				if err := w.rawWrite(seg); err != nil {
					return err
				}
			}
		} else if err := w.rawWrite(f.Text); err != nil {
			return err
		}
	}
	return nil
}

func (w *corkWriter) flushOne(f resp.Fragment) error {
	var err error
	if f.Binary {
		for _, seg := range f.Segments {
			if err = w.rawWrite(seg); err != nil {
				return err
			}
		}
	} else {
		err = w.rawWrite(f.Text)
	}
	if err != nil {
		return err
	}
	return w.bw.Flush()
}

func (w *corkWriter) rawWrite(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if _, err := w.bw.Write(b); err != nil {
		return err
	}
	if w.bw.Buffered() >= highWaterMark {
		w.shouldBuffer = true
	}
	return nil
}

// Drain reports whether should_buffer should clear: true once the
// bufio layer's buffered bytes fall back under the high-water mark.
func (w *corkWriter) Drain() bool {
	if w.shouldBuffer && w.bw.Buffered() < highWaterMark {
		w.shouldBuffer = false
		return true
	}
	return false
}
