package cmd

import "context"

// Middleware wraps a command, e.g. for logging or metrics.
type Middleware func(Command) Command

// Apply applies middlewares in order; the last one ends up outermost.
func Apply(c Command, mws ...Middleware) Command {
	for _, mw := range mws {
		c = mw(c)
	}
	return c
}

// Unwrappable lets adapters reach the command under middleware.
type Unwrappable interface {
	Command
	Unwrap() Command
}

type wrapped struct {
	inner Command
	run   func(ctx context.Context, inv *Invocation) error
}

func (w *wrapped) Name() string        { return w.inner.Name() }
func (w *wrapped) Description() string { return w.inner.Description() }
func (w *wrapped) Unwrap() Command     { return w.inner }

func (w *wrapped) Run(ctx context.Context, inv *Invocation) error {
	if w.run != nil {
		return w.run(ctx, inv)
	}
	return w.inner.Run(ctx, inv)
}

// Wrap returns a command that runs run instead of c.Run.
func Wrap(c Command, run func(ctx context.Context, inv *Invocation) error) Command {
	return &wrapped{inner: c, run: run}
}

// Root unwraps c down to the innermost command.
func Root(c Command) Command {
	for {
		u, ok := c.(Unwrappable)
		if !ok {
			return c
		}
		c = u.Unwrap()
	}
}
