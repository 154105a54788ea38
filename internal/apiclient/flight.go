package apiclient

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrFlightPanicked is returned to every waiter when the shared function panics.
var ErrFlightPanicked = errors.New("single-flight function panicked")

type call[T any] struct {
	done    chan struct{}
	val     T
	err     error
	waiters int
}

// Group runs at most one fn per key at a time. Callers arriving while a
// call for their key is pending wait for it and share its result. The key
// goes back to idle as soon as the call settles, whatever the outcome, so
// the next caller starts a fresh call.
//
// The shared call runs detached from the starting caller's cancellation:
// a caller whose ctx ends stops waiting, the others keep the flight.
//
// The zero value is ready to use.
type Group[T any] struct {
	mu    sync.Mutex
	calls map[string]*call[T]
}

// Do joins the pending call for key, or starts fn when key is idle.
func (g *Group[T]) Do(ctx context.Context, key string, fn func(context.Context) (T, error)) (T, error) {
	g.mu.Lock()
	if g.calls == nil {
		g.calls = make(map[string]*call[T])
	}
	if c, ok := g.calls[key]; ok {
		c.waiters++
		g.mu.Unlock()
		return g.wait(ctx, c)
	}
	c := &call[T]{done: make(chan struct{}), waiters: 1}
	g.calls[key] = c
	g.mu.Unlock()

	go g.run(context.WithoutCancel(ctx), key, c, fn)
	return g.wait(ctx, c)
}

func (g *Group[T]) run(ctx context.Context, key string, c *call[T], fn func(context.Context) (T, error)) {
	defer func() {
		if r := recover(); r != nil {
			c.err = fmt.Errorf("%w: %v", ErrFlightPanicked, r)
		}
		g.mu.Lock()
		delete(g.calls, key)
		g.mu.Unlock()
		close(c.done)
	}()
	c.val, c.err = fn(ctx)
}

// wait blocks until c settles or ctx ends. A caller that gives up is no
// longer counted as a waiter.
func (g *Group[T]) wait(ctx context.Context, c *call[T]) (T, error) {
	select {
	case <-c.done:
		return c.val, c.err
	case <-ctx.Done():
		g.mu.Lock()
		c.waiters--
		g.mu.Unlock()
		var zero T
		return zero, ctx.Err()
	}
}

// Pending reports whether a call for key is in flight.
func (g *Group[T]) Pending(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.calls[key]
	return ok
}

// Waiters counts the callers attached to the pending call for key, the
// one that started it included.
func (g *Group[T]) Waiters(key string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if c, ok := g.calls[key]; ok {
		return c.waiters
	}
	return 0
}

// Flight is a single-key Group: Idle -> Pending -> Idle.
type Flight[T any] struct {
	g Group[T]
}

// Do joins the pending call or starts fn.
func (f *Flight[T]) Do(ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	return f.g.Do(ctx, "", fn)
}

// Pending reports whether a call is in flight.
func (f *Flight[T]) Pending() bool { return f.g.Pending("") }

func (f *Flight[T]) waiting() int { return f.g.Waiters("") }
