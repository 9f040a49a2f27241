package redisconn

import "github.com/golang/snappy"

// CompressArg snappy-compresses a value the caller intends to store
// with a large blob command (e.g. SET on a big JSON document) and will
// decompress itself on read; this client never decompresses values on
// the way out, since it cannot tell a compressed reply from any other
// binary string. Opts.CompressThreshold only governs whether
// Connection.SendCompressed bothers: compression is always the caller's
// explicit choice, never applied to ordinary Send/SendCommand traffic.
func CompressArg(b []byte) []byte {
	return snappy.Encode(nil, b)
}

// DecompressArg reverses CompressArg.
func DecompressArg(b []byte) ([]byte, error) {
	return snappy.Decode(nil, b)
}

// SendCompressed is SendCommand with one difference: []byte arguments at
// or above Opts.CompressThreshold are snappy-compressed before
// normalization. Use it for write commands carrying large blobs the
// application already knows it will DecompressArg on read; it is not
// wired into the ordinary command path because this client cannot
// distinguish a compressed reply from any other binary string.
func (conn *Connection) SendCompressed(name string, args []interface{}, cb Callback, n uint64) {
	if conn.opts.CompressThreshold > 0 {
		for i, a := range args {
			if b, ok := a.([]byte); ok && len(b) >= conn.opts.CompressThreshold {
				args[i] = CompressArg(b)
			}
		}
	}
	conn.SendCommand(name, args, cb, n)
}
