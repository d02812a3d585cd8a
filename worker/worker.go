package worker

import (
	"runtime"
	"sync"

	"github.com/getsentry/sentry-go"
)

// Pool runs jobs on a fixed amount of goroutines. A job that panics is reported to sentry, and the
// goroutine running it carries on with the next job.
type Pool struct {
	jobs chan func()
	wg   sync.WaitGroup
	once sync.Once
}

// NewPool starts a Pool of size goroutines. A size below one uses the amount of CPUs.
func NewPool(size int) *Pool {
	if size < 1 {
		size = runtime.NumCPU()
	}
	p := &Pool{jobs: make(chan func(), size)}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.work()
	}
	return p
}

func (p *Pool) work() {
	defer p.wg.Done()
	for f := range p.jobs {
		run(f)
	}
}

func run(f func()) {
	defer sentry.Recover()
	f()
}

// Submit queues f to run on the pool. It blocks while every goroutine is busy and the queue is full.
func (p *Pool) Submit(f func()) {
	p.jobs <- f
}

// Run runs the functions passed on the pool and returns once all of them returned. It must not be
// called from a job running on the same pool.
func (p *Pool) Run(fns ...func()) {
	var wg sync.WaitGroup
	wg.Add(len(fns))
	for _, f := range fns {
		f := f
		p.Submit(func() {
			defer wg.Done()
			f()
		})
	}
	wg.Wait()
}

// Close stops the pool once the queued jobs ran.
func (p *Pool) Close() {
	p.once.Do(func() {
		close(p.jobs)
	})
	p.wg.Wait()
}
