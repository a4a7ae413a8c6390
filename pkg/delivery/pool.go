package delivery

import "sync"

// StreamBufferSize is the size of the buffer used to copy files to the
// response.
const StreamBufferSize = 80 << 10

// maxPooledPayloadBuffer bounds the capacity of payload buffers that are
// returned to the pool. Larger buffers are left to the garbage collector.
const maxPooledPayloadBuffer = 16 << 20

var streamBuffers = sync.Pool{
	New: func() any {
		buf := make([]byte, StreamBufferSize)
		return &buf
	},
}

// acquireStreamBuffer takes a copy buffer from the pool. The returned
// release func must be called exactly once, typically via defer.
func acquireStreamBuffer() (*[]byte, func()) {
	buf := streamBuffers.Get().(*[]byte)
	return buf, func() { streamBuffers.Put(buf) }
}

var payloadBuffers = sync.Pool{
	New: func() any {
		buf := make([]byte, 0, 64<<10)
		return &buf
	},
}

// acquirePayloadBuffer returns a zero-length buffer with at least size bytes
// of capacity and its release func.
func acquirePayloadBuffer(size int) (*[]byte, func()) {
	buf := payloadBuffers.Get().(*[]byte)
	if cap(*buf) < size {
		*buf = make([]byte, 0, size)
	}
	*buf = (*buf)[:0]
	return buf, func() {
		if cap(*buf) > maxPooledPayloadBuffer {
			return
		}
		*buf = (*buf)[:0]
		payloadBuffers.Put(buf)
	}
}
