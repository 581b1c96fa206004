package conversation

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/compagnon/datastore"
)

func TestOverflowFoldsIntoSummary(t *testing.T) {
	s := NewStore(datastore.NewMemory(), 12, nil)
	for i := 0; i < 20; i++ {
		s.Push("u1", User, fmt.Sprintf("question %d", i))
		assert.LessOrEqual(t, s.Len("u1"), 12)
		s.Push("u1", Assistant, fmt.Sprintf("réponse %d", i))
		assert.LessOrEqual(t, s.Len("u1"), 12)
	}
	sum := s.Summary("u1")
	assert.NotEmpty(t, sum)
	assert.LessOrEqual(t, utf8.RuneCountInString(sum), MaxSummary)
	assert.Contains(t, sum, "U:question")
	assert.Contains(t, sum, " || ")
}

func TestFoldKeepsNewestHalf(t *testing.T) {
	s := NewStore(datastore.NewMemory(), 4, nil)
	for i := 0; i < 5; i++ {
		s.Push("u1", User, fmt.Sprintf("m%d", i))
	}
	// 5 > 4: fold 5-4+2 = 3 oldest
	recent := s.Recent("u1")
	require.Len(t, recent, 2)
	assert.Equal(t, "m3", recent[0].Content)
	assert.Equal(t, "U:m0 | U:m1 | U:m2", s.Summary("u1"))
}

func TestSummaryBoundedFromTheFront(t *testing.T) {
	long := strings.Repeat("x", 200)
	s := NewStore(datastore.NewMemory(), 4, nil)
	for i := 0; i < 200; i++ {
		s.Push("u1", User, fmt.Sprintf("%03d %s", i, long))
	}
	sum := s.Summary("u1")
	assert.Equal(t, MaxSummary, utf8.RuneCountInString(sum))
	// the tail is kept, so the newest folded turn is present
	assert.Contains(t, sum, "U:197")
}

func TestSummarizeCapsParts(t *testing.T) {
	var msgs []Message
	for i := 0; i < 20; i++ {
		msgs = append(msgs, Message{Role: User, Content: fmt.Sprintf("m%d", i)})
	}
	msgs = append([]Message{{Role: User}}, msgs...)
	got := summarize(msgs, "")
	assert.Len(t, strings.Split(got, " | "), 8)
	assert.True(t, strings.HasPrefix(got, "U:m0"))
}

func TestResetAndPersistence(t *testing.T) {
	backend := datastore.NewMemory()
	s := NewStore(backend, 12, nil)
	s.Push("u1", User, "salut")
	s.Push("u1", Assistant, "yo")

	reloaded := NewStore(backend, 12, nil)
	assert.Equal(t, 2, reloaded.Len("u1"))

	s.Reset("u1")
	assert.Equal(t, 0, s.Len("u1"))
	assert.Empty(t, s.Summary("u1"))
}

func TestSetLimit(t *testing.T) {
	s := NewStore(datastore.NewMemory(), 12, nil)
	assert.Error(t, s.SetLimit(3))
	assert.Error(t, s.SetLimit(101))
	assert.Equal(t, 12, s.Limit())

	require.NoError(t, s.SetLimit(4))
	assert.Equal(t, 4, s.Limit())
	for i := 0; i < 6; i++ {
		s.Push("u1", User, "hello")
	}
	assert.LessOrEqual(t, s.Len("u1"), 4)
}

func TestNullDocumentStartsEmpty(t *testing.T) {
	backend := datastore.NewMemory()
	require.NoError(t, backend.Save(context.Background(), DocumentName, []byte("null")))

	s := NewStore(backend, 12, nil)
	require.NotPanics(t, func() { s.Push("u1", User, "salut") })
	assert.Equal(t, 1, s.Len("u1"))
}
