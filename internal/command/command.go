// Package command implements the prefixed chat commands (!help, !reset, ...)
// on top of the transport-agnostic pkg/cmd core.
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/keshon/compagnon/internal/conversation"
	"github.com/keshon/compagnon/internal/history"
	"github.com/keshon/compagnon/internal/knowledge"
	"github.com/keshon/compagnon/internal/memory"
	"github.com/keshon/compagnon/internal/proactive"
	"github.com/keshon/compagnon/internal/profile"
	"github.com/keshon/compagnon/internal/temporal"
	"github.com/keshon/compagnon/pkg/cmd"
)

// ErrInvalidArgument is returned when a command was called with bad input.
// The user has already been told.
var ErrInvalidArgument = errors.New("invalid argument")

// Deps are the stores commands read and write.
type Deps struct {
	Conversations *conversation.Store
	Memory        *memory.Store
	Profiles      *profile.Store
	Catalog       *profile.Catalog
	Knowledge     *knowledge.Base
	History       *history.Store
	Proactive     *proactive.State
	Mood          func() temporal.Mood

	Prefix  string
	BotName string
}

// Context is the per-call payload carried in cmd.Invocation.Data.
type Context struct {
	UserID    string
	UserName  string
	ChannelID string

	replies []string
}

// Reply queues a message for the caller.
func (c *Context) Reply(text string) { c.replies = append(c.replies, text) }

// Replies returns what the command answered, in order.
func (c *Context) Replies() []string { return c.replies }

func from(inv *cmd.Invocation) *Context {
	if c, ok := inv.Data.(*Context); ok {
		return c
	}
	return &Context{}
}

// Recorder counts command runs.
type Recorder interface {
	Command(name string)
}

// WithLogger logs every run with its duration and outcome.
func WithLogger(logger *log.Logger) cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			start := time.Now()
			err := c.Run(ctx, inv)
			caller := from(inv)
			kv := []any{"command", c.Name(), "as", inv.Name, "user", caller.UserName, "took", time.Since(start).Round(time.Microsecond)}
			switch {
			case err == nil:
				logger.Info("command", kv...)
			case errors.Is(err, ErrInvalidArgument):
				logger.Warn("command rejected", append(kv, "err", err)...)
			default:
				logger.Error("command failed", append(kv, "err", err)...)
			}
			return err
		})
	}
}

// WithRecorder counts every run under the command's canonical name.
func WithRecorder(rec Recorder) cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			if rec != nil {
				rec.Command(c.Name())
			}
			return c.Run(ctx, inv)
		})
	}
}

// NewRegistry registers every command behind the logging and counting
// middleware.
func NewRegistry(d *Deps, logger *log.Logger, rec Recorder) *cmd.Registry {
	r := cmd.NewRegistry()
	commands := []cmd.Command{
		&ResetCommand{d},
		&MemCommand{d},
		&SetMemCommand{d},
		&ProfileCommand{d},
		&MemoryCommand{d},
		&LearnCommand{d},
		&SearchCommand{d},
		&StatsCommand{d},
	}
	commands = append(commands, &HelpCommand{deps: d, registry: r})
	for _, c := range commands {
		r.Register(cmd.Apply(c, WithRecorder(rec), WithLogger(logger)))
	}
	return r
}

// Dispatch runs content as a command when it is "<prefix><known name>".
// handled is false for anything else, which then goes to the chat pipeline.
func Dispatch(ctx context.Context, r *cmd.Registry, prefix, content string, caller *Context) (handled bool, err error) {
	inv, ok := cmd.Parse(prefix, content)
	if !ok {
		return false, nil
	}
	c := r.Get(inv.Name)
	if c == nil {
		return false, nil
	}
	inv.Data = caller
	if err := c.Run(ctx, &inv); err != nil {
		return true, fmt.Errorf("%s: %w", c.Name(), err)
	}
	return true, nil
}
