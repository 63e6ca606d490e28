package util

import "sync"

// DefaultBufSize is the size of a socket read buffer.  SMDR rows are a
// few hundred bytes; one buffer comfortably holds several.
const DefaultBufSize = 4 * 1024

// BufPool provides reusable read buffers so that a producer reconnecting
// every few seconds does not allocate a fresh buffer per session.
var BufPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, DefaultBufSize)
		return &buf
	},
}

// GetBuf retrieves a buffer from the pool.  Callers must return it
// with [PutBuf] when finished.
func GetBuf() *[]byte {
	return BufPool.Get().(*[]byte)
}

// PutBuf returns a buffer to the pool for reuse.
func PutBuf(buf *[]byte) {
	if buf == nil {
		return
	}
	BufPool.Put(buf)
}
