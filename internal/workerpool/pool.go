package workerpool

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// MaxWorkers caps the pool size regardless of hardware concurrency.
const MaxWorkers = 8

// ErrPoolDestroyed is returned when work is submitted after Destroy.
var ErrPoolDestroyed = errors.New("worker pool destroyed")

type task struct {
	fn   func()
	done chan struct{}
}

// Worker owns one long-lived goroutine. All work submitted to the same
// worker executes serially, which is what keeps the cgo side of MuPDF
// happy: a document handle is bound to exactly one worker and never
// touched from two goroutines at once.
type Worker struct {
	id    int
	tasks chan task
	quit  chan struct{}
}

// ID returns the worker's index within its pool.
func (w *Worker) ID() int { return w.id }

// Run executes fn on the worker goroutine and waits for it to finish.
func (w *Worker) Run(fn func()) error {
	t := task{fn: fn, done: make(chan struct{})}
	select {
	case w.tasks <- t:
	case <-w.quit:
		return ErrPoolDestroyed
	}
	select {
	case <-t.done:
		return nil
	case <-w.quit:
		// The worker may still be draining the task; the caller cannot
		// rely on fn having run.
		return ErrPoolDestroyed
	}
}

func (w *Worker) loop() {
	for {
		select {
		case t := <-w.tasks:
			t.fn()
			close(t.done)
		case <-w.quit:
			return
		}
	}
}

// Pool is a fixed set of render workers handed out round-robin by
// index. Construct one at the composition root and pass it down;
// there is no package-level singleton.
type Pool struct {
	workers   []*Worker
	next      atomic.Uint64
	destroyed atomic.Bool
	quit      chan struct{}
	once      sync.Once
}

// New builds a pool of the given size. A non-positive size means
// min(available CPUs, MaxWorkers).
func New(size int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	if size > MaxWorkers {
		size = MaxWorkers
	}
	p := &Pool{quit: make(chan struct{})}
	for i := 0; i < size; i++ {
		w := &Worker{id: i, tasks: make(chan task), quit: p.quit}
		p.workers = append(p.workers, w)
		go w.loop()
	}
	log.Info().Int("workers", size).Msg("render worker pool initialized")
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Worker returns the i mod size-th worker. Callers never track
// availability; sharing is by index, not checkout/return.
func (p *Pool) Worker(i int) *Worker {
	if i < 0 {
		i = -i
	}
	return p.workers[i%len(p.workers)]
}

// Bind hands out the next worker round-robin. Each open document binds
// to the worker returned here for its whole lifetime.
func (p *Pool) Bind() *Worker {
	n := p.next.Add(1) - 1
	return p.workers[int(n%uint64(len(p.workers)))]
}

// Destroyed reports whether Destroy has been called.
func (p *Pool) Destroyed() bool { return p.destroyed.Load() }

// Destroy stops all workers. The pool is unusable afterwards; build a
// fresh one if rendering is needed again.
func (p *Pool) Destroy() {
	p.once.Do(func() {
		p.destroyed.Store(true)
		close(p.quit)
		log.Info().Int("workers", len(p.workers)).Msg("render worker pool destroyed")
	})
}
