package gopool

import (
	"time"

	"github.com/panjf2000/ants/v2"
)

// Shared goroutine pool for background maintenance work (cache TTL sweeps,
// memory-page garbage collection). Sized generously; maintenance tasks are
// short-lived and per-invocation runtimes submit at most a couple each.
var defaultPool, _ = ants.NewPool(ants.DefaultAntsPoolSize, ants.WithExpiryDuration(10*time.Second))

// Submit schedules task on the shared pool. Falls back to a plain goroutine
// if the pool rejects the task, so callers never lose a maintenance loop.
func Submit(task func()) {
	if err := defaultPool.Submit(task); err != nil {
		go task()
	}
}

// Running returns the number of currently running pool goroutines.
func Running() int {
	return defaultPool.Running()
}

// Release closes the shared pool. Only used on process teardown.
func Release() {
	defaultPool.Release()
}
