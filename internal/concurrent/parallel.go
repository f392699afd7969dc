package concurrent

import (
	"context"
	"sync"
)

// Result represents the result of a parallel operation
type Result[T any] struct {
	Value T
	Error error
	Index int // Original index in the input slice
}

// Task represents a function to be executed in parallel
type Task[T any] func(ctx context.Context) (T, error)

// ParallelExecuteWithLimit executes tasks in parallel with a concurrency limit.
// It waits for all tasks to complete, even if some fail. maxConcurrent <= 0
// means no limit.
func ParallelExecuteWithLimit[T any](ctx context.Context, tasks []Task[T], maxConcurrent int) []Result[T] {
	if maxConcurrent <= 0 {
		maxConcurrent = len(tasks)
	}

	results := make([]Result[T], len(tasks))
	var wg sync.WaitGroup

	semaphore := make(chan struct{}, maxConcurrent)

	for i, task := range tasks {
		wg.Add(1)
		go func(index int, t Task[T]) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			value, err := t(ctx)
			results[index] = Result[T]{
				Value: value,
				Error: err,
				Index: index,
			}
		}(i, task)
	}

	wg.Wait()
	return results
}

// ParallelMapWithLimit executes a function on each item in parallel with a
// concurrency limit and returns the results in input order
func ParallelMapWithLimit[T any, R any](ctx context.Context, items []T, fn func(ctx context.Context, item T) (R, error), maxConcurrent int) []Result[R] {
	tasks := make([]Task[R], len(items))
	for i, item := range items {
		tasks[i] = func(ctx context.Context) (R, error) {
			return fn(ctx, item)
		}
	}
	return ParallelExecuteWithLimit(ctx, tasks, maxConcurrent)
}
