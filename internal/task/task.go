// Package task provides future values carrying a tagged outcome. A Task runs
// once, in its own goroutine, and every waiter observes the same Outcome.
package task

import (
	"context"
	"errors"
)

// Kind tags how an operation ended.
type Kind int

const (
	Success Kind = iota
	// Warning means the operation produced usable data together with a
	// non-fatal note.
	Warning
	Failure
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}

// Outcome is the result of a Task.
type Outcome[T any] struct {
	Kind    Kind
	Value   T
	Warning string
	Err     error
}

// Succeeded wraps v as a successful outcome.
func Succeeded[T any](v T) Outcome[T] { return Outcome[T]{Kind: Success, Value: v} }

// Warned wraps v with a non-fatal note.
func Warned[T any](v T, note string) Outcome[T] {
	return Outcome[T]{Kind: Warning, Value: v, Warning: note}
}

// Failed wraps err as a failed outcome.
func Failed[T any](err error) Outcome[T] {
	if err == nil {
		err = errors.New("unknown failure")
	}
	return Outcome[T]{Kind: Failure, Err: err}
}

// OK reports whether the outcome carries a usable value.
func (o Outcome[T]) OK() bool { return o.Kind != Failure }

// WithWarning appends note to the outcome, turning a success into a warning.
// Failures are returned unchanged.
func (o Outcome[T]) WithWarning(note string) Outcome[T] {
	if o.Kind == Failure || note == "" {
		return o
	}
	if o.Warning != "" {
		o.Warning += "; " + note
	} else {
		o.Warning = note
	}
	o.Kind = Warning
	return o
}

// Task is a pending Outcome.
type Task[T any] struct {
	done chan struct{}
	out  Outcome[T]
}

// Go runs fn in a new goroutine.
func Go[T any](fn func() Outcome[T]) *Task[T] {
	t := &Task[T]{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		t.out = fn()
	}()
	return t
}

// Done returns a Task that is already complete.
func Done[T any](o Outcome[T]) *Task[T] {
	t := &Task[T]{done: make(chan struct{}), out: o}
	close(t.done)
	return t
}

// Then returns a Task that waits for t and passes its outcome through fn.
func Then[T, U any](t *Task[T], fn func(Outcome[T]) Outcome[U]) *Task[U] {
	return Go(func() Outcome[U] { return fn(t.Wait()) })
}

// Done is closed once the outcome is available.
func (t *Task[T]) Done() <-chan struct{} { return t.done }

// Wait blocks until the outcome is available.
func (t *Task[T]) Wait() Outcome[T] {
	<-t.done
	return t.out
}

// Await waits for the outcome or for ctx to end. The task keeps running when
// ctx ends first.
func (t *Task[T]) Await(ctx context.Context) (Outcome[T], error) {
	select {
	case <-t.done:
		return t.out, nil
	case <-ctx.Done():
		var zero Outcome[T]
		return zero, ctx.Err()
	}
}
