package pipeline

import "sync"

// #region pool

// Pool is a fixed-size worker pool for phase tasks. Concurrency is
// bounded by the worker count; tasks are never canceled mid-flight.
type Pool struct {
	tasks chan func()
	once  sync.Once
}

// NewPool starts size workers. size < 1 is treated as 1.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{tasks: make(chan func())}
	for i := 0; i < size; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	for fn := range p.tasks {
		fn()
	}
}

// Join submits the given tasks and blocks until every one has returned.
// This is the phase join barrier: callers see all results or none.
func (p *Pool) Join(fns ...func()) {
	var wg sync.WaitGroup
	wg.Add(len(fns))
	for _, fn := range fns {
		fn := fn
		p.tasks <- func() {
			defer wg.Done()
			fn()
		}
	}
	wg.Wait()
}

// Close stops the workers once outstanding tasks drain. Safe to call twice.
func (p *Pool) Close() {
	p.once.Do(func() { close(p.tasks) })
}

// #endregion pool
