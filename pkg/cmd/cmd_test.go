package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echo struct {
	name    string
	aliases []string
	got     *Invocation
}

func (e *echo) Name() string        { return e.name }
func (e *echo) Description() string { return "echo" }
func (e *echo) Aliases() []string   { return e.aliases }
func (e *echo) Run(_ context.Context, inv *Invocation) error {
	e.got = inv
	return nil
}

func TestParse(t *testing.T) {
	inv, ok := Parse("!", "  !Learn   J'adore   le Go ")
	require.True(t, ok)
	assert.Equal(t, "learn", inv.Name)
	assert.Equal(t, []string{"J'adore", "le", "Go"}, inv.Args)
	assert.Equal(t, "J'adore   le Go", inv.Raw)

	inv, ok = Parse("!", "!mem")
	require.True(t, ok)
	assert.Empty(t, inv.Args)
	assert.Empty(t, inv.Raw)

	_, ok = Parse("!", "salut")
	assert.False(t, ok)
	_, ok = Parse("!", "!   ")
	assert.False(t, ok)
}

func TestRegistryAliasesThroughMiddleware(t *testing.T) {
	var order []string
	trace := func(tag string) Middleware {
		return func(c Command) Command {
			return Wrap(c, func(ctx context.Context, inv *Invocation) error {
				order = append(order, tag)
				return c.Run(ctx, inv)
			})
		}
	}

	inner := &echo{name: "reset", aliases: []string{"clear"}}
	r := NewRegistry()
	r.Register(Apply(inner, trace("inner"), trace("outer")))
	r.Register(&echo{name: "help"})

	c := r.Get("CLEAR")
	require.NotNil(t, c)
	assert.Same(t, inner, Root(c))
	require.NoError(t, c.Run(context.Background(), &Invocation{Name: "clear"}))
	assert.Equal(t, []string{"outer", "inner"}, order)
	assert.Equal(t, "clear", inner.got.Name)

	assert.Nil(t, r.Get("nope"))
	all := r.GetAll()
	require.Len(t, all, 2)
	assert.Equal(t, "help", all[0].Name())
	assert.Equal(t, "reset", all[1].Name())
}
