package wire

import "sync"

// BufferPool recycles Buffers between packet exchanges.
// Cuts GC pressure in the realm-list polling loop, which re-encodes every second.
type BufferPool struct {
	pool sync.Pool
}

// NewBufferPool creates an empty pool.
func NewBufferPool() *BufferPool {
	p := &BufferPool{}
	p.pool.New = func() any {
		return NewBuffer()
	}
	return p
}

// Get returns an empty Buffer, reusing a pooled one when available.
func (p *BufferPool) Get() *Buffer {
	b := p.pool.Get().(*Buffer)
	b.Reset()
	return b
}

// Put returns b to the pool. Oversized buffers are dropped so one huge packet
// does not pin memory forever.
func (p *BufferPool) Put(b *Buffer) {
	if b == nil || cap(b.data) > 16*DefaultSize {
		return
	}
	p.pool.Put(b)
}

// BytePool recycles outbound world frames. A frame (header + body) lives from
// the moment it is queued until the worker has written it.
type BytePool struct {
	pool sync.Pool
}

// NewBytePool creates a pool whose fresh slices have capacity defaultCap.
func NewBytePool(defaultCap int) *BytePool {
	p := &BytePool{}
	p.pool.New = func() any {
		return make([]byte, 0, defaultCap)
	}
	return p
}

// Get returns a zeroed slice of length size, preferably from the pool.
func (p *BytePool) Get(size int) []byte {
	b := p.pool.Get().([]byte)
	if cap(b) < size {
		p.pool.Put(b)
		return make([]byte, size)
	}
	b = b[:size]
	clear(b)
	return b
}

// Put returns the slice to the pool for reuse.
func (p *BytePool) Put(b []byte) {
	if b == nil {
		return
	}
	p.pool.Put(b[:0])
}
