// Package cmd is a transport-agnostic command core: a command has a name, a
// description and Run(ctx, invocation). Adapters decide how text reaches it.
package cmd

import (
	"context"
	"strings"
)

// Invocation is one parsed call. Raw is everything after the command name,
// untouched, for commands that take free text. Data carries the adapter's
// context.
type Invocation struct {
	Name string
	Args []string
	Raw  string
	Data any
}

// Command is the universal contract: identity plus execution.
type Command interface {
	Name() string
	Description() string
	Run(ctx context.Context, inv *Invocation) error
}

// Aliased commands answer to more than one name.
type Aliased interface {
	Aliases() []string
}

// Parse splits "<prefix>name args..." into an Invocation. ok is false when
// content does not start with prefix or names nothing.
func Parse(prefix, content string) (inv Invocation, ok bool) {
	rest, found := strings.CutPrefix(strings.TrimSpace(content), prefix)
	if !found {
		return Invocation{}, false
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return Invocation{}, false
	}
	inv.Name = strings.ToLower(fields[0])
	inv.Args = fields[1:]
	if _, raw, has := strings.Cut(strings.TrimLeft(rest, " \t"), fields[0]); has {
		inv.Raw = strings.TrimSpace(raw)
	}
	return inv, true
}
