// Package parallel provides the worker pool used to spread per-candidate
// scoring across goroutines. Candidates are independent, so the only
// coordination needed is waiting for completion.
package parallel

import (
	"runtime"
	"sync"
)

// WorkerPool runs submitted tasks on a fixed set of goroutines.
type WorkerPool struct {
	workers   int
	taskQueue chan func()
	wg        sync.WaitGroup
	once      sync.Once
	mu        sync.RWMutex
	closed    bool
}

// NewWorkerPool creates a pool with the given number of workers. Zero or
// negative means one worker per CPU.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	pool := &WorkerPool{
		workers:   workers,
		taskQueue: make(chan func(), workers*2),
	}
	for i := 0; i < workers; i++ {
		pool.wg.Add(1)
		go pool.worker()
	}
	return pool
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()
	for task := range wp.taskQueue {
		task()
	}
}

// Submit adds a task to the pool. Returns false once the pool is closed.
func (wp *WorkerPool) Submit(task func()) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		return false
	}
	wp.taskQueue <- task
	return true
}

// Close stops accepting tasks and waits for in-flight ones to finish.
func (wp *WorkerPool) Close() {
	wp.once.Do(func() {
		wp.mu.Lock()
		wp.closed = true
		close(wp.taskQueue)
		wp.mu.Unlock()
	})
	wp.wg.Wait()
}

// ForEach runs fn for every index in [0, n) across the given number of
// workers and blocks until all calls return. Output slots are index-addressed
// by the caller, so completion order never leaks into results.
func ForEach(n, workers int, fn func(i int)) {
	if n <= 0 {
		return
	}
	if workers == 1 || n == 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	pool := NewWorkerPool(workers)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		pool.Submit(func() {
			defer wg.Done()
			fn(i)
		})
	}
	wg.Wait()
	pool.Close()
}
