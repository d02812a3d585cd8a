package worker

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestRunWaitsForAllJobs(t *testing.T) {
	p := NewPool(4)
	defer p.Close()

	var n atomic.Int32
	fns := make([]func(), 100)
	for i := range fns {
		fns[i] = func() { n.Add(1) }
	}
	p.Run(fns...)
	if got := n.Load(); got != 100 {
		t.Fatalf("expected 100 jobs to run, got %d", got)
	}
}

func TestRunSurvivesPanics(t *testing.T) {
	p := NewPool(1)
	defer p.Close()

	var ran atomic.Bool
	done := make(chan struct{})
	go func() {
		p.Run(func() { panic("boom") }, func() { ran.Store(true) })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after a job panicked")
	}
	if !ran.Load() {
		t.Fatalf("expected the pool to keep running jobs after a panic")
	}
}

func TestSubmit(t *testing.T) {
	p := NewPool(1)
	defer p.Close()

	done := make(chan struct{})
	p.Submit(func() { close(done) })
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("submitted job did not run")
	}
}
