package effect

import "sync"

// Pool recycles effect values of one prefab
type Pool[T any] struct {
	mu      sync.Mutex
	free    []*T
	created int
	reused  int
}

// Get returns a recycled value or a new zero value
func (p *Pool[T]) Get() *T {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n := len(p.free); n > 0 {
		v := p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
		p.reused++
		return v
	}
	p.created++
	return new(T)
}

// Put returns v for reuse
func (p *Pool[T]) Put(v *T) {
	if v == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.free = append(p.free, v)
}

// Prewarm allocates n idle values
func (p *Pool[T]) Prewarm(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for range n {
		p.free = append(p.free, new(T))
		p.created++
	}
}

// Stats returns idle, created and reused counts
func (p *Pool[T]) Stats() (idle, created, reused int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free), p.created, p.reused
}
