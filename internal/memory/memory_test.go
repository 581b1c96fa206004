package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/compagnon/datastore"
)

func newTestStore(t *testing.T) (*Store, datastore.Backend) {
	t.Helper()
	backend := datastore.NewMemory()
	s := NewStore(backend, nil)
	clock := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})
	return s, backend
}

func TestUpsertRespectsCaps(t *testing.T) {
	s, _ := newTestStore(t)
	for _, c := range Categories() {
		t.Run(string(c), func(t *testing.T) {
			limit := Caps[c]
			for i := 0; i < limit+7; i++ {
				s.Upsert("u1", c, Item{Text: fmt.Sprintf("%s entry number %d", c, i), Emotion: "joy"})
			}
			got := s.Read("u1", c, 1000)
			assert.Len(t, got, limit)
		})
	}
}

func TestUpsertEvictsOldestFirst(t *testing.T) {
	s, _ := newTestStore(t)
	for i := 0; i < 31; i++ {
		s.Upsert("u1", Facts, Item{Text: fmt.Sprintf("fact %02d", i)})
	}
	facts := s.Facts("u1")
	require.Len(t, facts, 30)
	assert.Equal(t, "fact 01", facts[0])
	assert.Equal(t, "fact 30", facts[29])
}

func TestRecentTopicsHeadInsert(t *testing.T) {
	s, _ := newTestStore(t)
	for i := 0; i < 12; i++ {
		s.Upsert("u1", Topics, Item{Text: fmt.Sprintf("topic %d", i)})
	}
	got := s.Read("u1", Topics, 3)
	require.Len(t, got, 3)
	assert.Equal(t, "topic 11", got[0].Text)
	assert.Equal(t, "topic 10", got[1].Text)

	m, ok := s.Get("u1")
	require.True(t, ok)
	assert.Len(t, m.Topics, 10)
	assert.Equal(t, "topic 2", m.Topics[9])
}

func TestUpsertIsIdempotentForSetCategories(t *testing.T) {
	s, _ := newTestStore(t)
	s.Upsert("u1", Preferences, Item{Text: "J'adore les chats"})
	s.Upsert("u1", Preferences, Item{Text: "J'adore les chats"})
	assert.Len(t, s.Read("u1", Preferences, 10), 1)

	// events are a timeline and keep duplicates
	s.Upsert("u1", Events, Item{Text: "J'ai déménagé hier"})
	s.Upsert("u1", Events, Item{Text: "J'ai déménagé hier"})
	assert.Len(t, s.Read("u1", Events, 10), 2)
}

func TestReadMostRecentFirst(t *testing.T) {
	s, _ := newTestStore(t)
	s.Upsert("u1", Facts, Item{Text: "first"})
	s.Upsert("u1", Facts, Item{Text: "second"})
	s.Upsert("u1", Facts, Item{Text: "third"})

	got := s.Read("u1", Facts, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "third", got[0].Text)
	assert.Equal(t, "second", got[1].Text)

	assert.Nil(t, s.Read("nobody", Facts, 2))
	assert.Nil(t, s.Read("u1", Facts, 0))
}

func TestApplyPersistsAndReloads(t *testing.T) {
	s, backend := newTestStore(t)
	ex := s.Apply("u1", "Alex", "Je m'appelle Alex et j'ai 30 ans")
	require.NotEmpty(t, ex[Facts])

	names, err := backend.List(context.Background(), "")
	require.NoError(t, err)
	assert.Contains(t, names, DocumentName)

	reloaded := NewStore(backend, nil)
	m, ok := reloaded.Get("u1")
	require.True(t, ok)
	assert.Equal(t, "Alex", m.UserName)
	assert.Equal(t, []string{"Je m'appelle Alex et j'ai 30 ans"}, m.Facts)
}

func TestApplyTrivialMessageStoresNothing(t *testing.T) {
	s, _ := newTestStore(t)
	ex := s.Apply("u1", "Alex", "ok")
	assert.True(t, ex.Empty())

	st, ok := s.Stats("u1")
	require.True(t, ok)
	assert.Zero(t, st.Total)
}

func TestStatsAndReset(t *testing.T) {
	s, _ := newTestStore(t)
	_, ok := s.Stats("u1")
	assert.False(t, ok)

	s.Apply("u1", "Alex", "Je suis développeur et j'adore le code")
	st, ok := s.Stats("u1")
	require.True(t, ok)
	assert.Equal(t, 1, st.Facts)
	assert.Equal(t, 1, st.Preferences)
	assert.Equal(t, 1, st.Interests)
	assert.Equal(t, st.Facts+st.Preferences+st.Dislikes+st.People+st.Events+st.Topics+st.Emotions+st.Expertise+st.Interests, st.Total)

	s.Reset("u1")
	_, ok = s.Stats("u1")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Users())
}

func TestSummary(t *testing.T) {
	s, _ := newTestStore(t)
	assert.Empty(t, s.Summary("u1"))

	s.Apply("u1", "Alex", "Je m'appelle Alex et j'ai 30 ans")
	s.Apply("u1", "Alex", "J'adore la musique et les concerts, c'est génial")
	s.Upsert("u1", People, Item{Text: "@sam"})

	sum := s.Summary("u1")
	assert.Contains(t, sum, "[MÉMOIRE LONG TERME de Alex]")
	assert.Contains(t, sum, "• Profil: Je m'appelle Alex et j'ai 30 ans")
	assert.Contains(t, sum, "• Aime: J'adore la musique et les concerts, c'est génial")
	assert.Contains(t, sum, "• Connaît: @sam")
	assert.Contains(t, sum, "• Centres d'intérêt: Musique")
	assert.Contains(t, sum, "• Humeur récente: content/heureux")
}

func TestSummaryEmptyWhenOnlyPeople(t *testing.T) {
	s, _ := newTestStore(t)
	s.Upsert("u1", People, Item{Text: "@sam"})
	assert.Empty(t, s.Summary("u1"))
}

func TestNullDocumentStartsEmpty(t *testing.T) {
	backend := datastore.NewMemory()
	require.NoError(t, backend.Save(context.Background(), DocumentName, []byte("null")))

	s := NewStore(backend, nil)
	require.NotPanics(t, func() { s.Apply("u1", "Alex", "Je m'appelle Alex et j'ai 30 ans") })
	assert.NotEmpty(t, s.Facts("u1"))
}
