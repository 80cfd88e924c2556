package swhandler

import "context"

// Completion resolves once the work tied to an event has finished. The host
// must not recycle the background context before Done is closed.
type Completion struct {
	done chan struct{}
	err  error
}

func run(fn func() error) *Completion {
	c := &Completion{done: make(chan struct{})}
	go func() {
		defer close(c.done)
		c.err = fn()
	}()
	return c
}

func resolved(err error) *Completion {
	c := &Completion{done: make(chan struct{}), err: err}
	close(c.done)
	return c
}

func (c *Completion) Done() <-chan struct{} { return c.done }

// Err returns the outcome, or nil while the work is still running.
func (c *Completion) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Wait blocks until the work finishes or ctx ends.
func (c *Completion) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
