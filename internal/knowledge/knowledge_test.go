package knowledge

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/compagnon/datastore"
)

func TestExtractScalars(t *testing.T) {
	b := New(datastore.NewMemory(), nil)
	require.True(t, b.Extract("u1", "Je m'appelle Alex et j'ai 30 ans"))

	facts := b.Get("u1")
	assert.Equal(t, "alex", facts[Name].Value)
	assert.InDelta(t, 1.0, facts[Name].Confidence, 1e-9)
	assert.Equal(t, "30", facts[Age].Value)
	assert.InDelta(t, 0.9, facts[Age].Confidence, 1e-9)

	b.Extract("u1", "appelle-moi Lex")
	assert.Equal(t, []string{"lex"}, b.Values("u1", Name))
}

func TestExtractLikesAndDislikesAppend(t *testing.T) {
	b := New(datastore.NewMemory(), nil)
	b.Extract("u1", "Franchement j'adore les pâtes")
	b.Extract("u1", "Et je déteste le lundi")
	b.Extract("u1", "Par contre je hais la pluie")

	assert.Equal(t, []string{"j'adore les pâtes"}, b.Values("u1", Likes))
	assert.Equal(t, []string{"je déteste le lundi", "je hais la pluie"}, b.Values("u1", Dislikes))
}

func TestListValuesCapped(t *testing.T) {
	b := New(datastore.NewMemory(), nil)
	for i := 0; i < 15; i++ {
		b.Extract("u1", fmt.Sprintf("je kiffe le truc %d", i))
	}
	likes := b.Values("u1", Likes)
	require.Len(t, likes, 10)
	assert.Equal(t, "je kiffe le truc 5", likes[0])
}

func TestExtractNothing(t *testing.T) {
	b := New(datastore.NewMemory(), nil)
	assert.False(t, b.Extract("u1", "il pleut"))
	assert.Empty(t, b.Get("u1"))
	assert.Nil(t, b.Values("u1", Name))
}

func TestUsersAreIsolatedAndPersisted(t *testing.T) {
	backend := datastore.NewMemory()
	b := New(backend, nil)
	b.Extract("u1", "je m'appelle alex")
	b.Extract("u12", "je m'appelle sam")

	reloaded := New(backend, nil)
	assert.Len(t, reloaded.Get("u1"), 1)
	assert.Equal(t, "alex", reloaded.Get("u1")[Name].Value)
	assert.Equal(t, "sam", reloaded.Get("u12")[Name].Value)
}
