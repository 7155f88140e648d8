// Package workerpool runs a slice of independent operations with bounded concurrency.
package workerpool

import (
	"context"
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one item. Results are returned in item order.
type Result[O any] struct {
	Value O
	Err   error
}

// PanicError wraps a panic raised by an item's operation
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("worker panic: %v", e.Value)
}

// Run calls fn for every item with at most limit calls in flight and returns one
// Result per item, results[i] belonging to items[i]. A failing item (error or panic)
// only fills its own slot. Items still waiting for a slot when ctx is done are not
// started and get ctx.Err(). Run returns after every started call has finished.
func Run[I, O any](ctx context.Context, items []I, limit int, fn func(ctx context.Context, index int, item I) (O, error)) []Result[O] {
	results := make([]Result[O], len(items))
	if len(items) == 0 {
		return results
	}
	if limit < 1 {
		limit = 1
	}

	var g errgroup.Group
	g.SetLimit(limit)

	for i := range items {
		// Go blocks until a slot frees up
		if err := ctx.Err(); err != nil {
			for j := i; j < len(items); j++ {
				results[j].Err = err
			}
			break
		}

		i := i
		g.Go(func() error {
			results[i] = call(ctx, i, items[i], fn)
			return nil
		})
	}

	_ = g.Wait()
	return results
}

func call[I, O any](ctx context.Context, index int, item I, fn func(ctx context.Context, index int, item I) (O, error)) (res Result[O]) {
	defer func() {
		if r := recover(); r != nil {
			res = Result[O]{Err: &PanicError{Value: r, Stack: debug.Stack()}}
		}
	}()

	if err := ctx.Err(); err != nil {
		return Result[O]{Err: err}
	}

	value, err := fn(ctx, index, item)
	return Result[O]{Value: value, Err: err}
}

// Succeeded counts results without an error
func Succeeded[O any](results []Result[O]) int {
	n := 0
	for _, r := range results {
		if r.Err == nil {
			n++
		}
	}
	return n
}
