package model

import "sync"

// bufferPool recycles word buffers between generations
type bufferPool struct {
	pool sync.Pool
}

func newBufferPool() *bufferPool {
	return &bufferPool{
		pool: sync.Pool{
			New: func() interface{} {
				return new([]uint64)
			},
		},
	}
}

// get returns a buffer of exactly n words. Contents are unspecified; Tick
// overwrites every word.
func (p *bufferPool) get(n int) []uint64 {
	buf := p.pool.Get().(*[]uint64)
	if cap(*buf) < n {
		return make([]uint64, n)
	}
	return (*buf)[:n]
}

// put hands a retired generation back for reuse
func (p *bufferPool) put(buf []uint64) {
	p.pool.Put(&buf)
}
