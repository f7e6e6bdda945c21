package skills

import "context"

// Task is the handle of an operation running on its own goroutine.
type Task[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Go runs fn on a new goroutine. fn gets ctx's values but never its
// cancellation; only Wait observes ctx ending.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Task[T] {
	t := &Task[T]{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		t.val, t.err = fn(context.WithoutCancel(ctx))
	}()
	return t
}

// Wait blocks until the task finishes or ctx ends. Abandoning a task does
// not stop it.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.val, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done is closed when the task finishes.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}
