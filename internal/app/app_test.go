package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/compagnon/datastore"
	"github.com/keshon/compagnon/internal/config"
	"github.com/keshon/compagnon/internal/logging"
	"github.com/keshon/compagnon/internal/mind"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"response": "Bot: Salut Alex, ça roule ?"})
	}))
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		OllamaHost:          srv.URL,
		OllamaModel:         "mixtral",
		OllamaProfile:       "gpu",
		OllamaContextWindow: 4096,
		AIRateLimit:         100,
		MemoryLength:        12,
		Personality:         config.DefaultPersonality,
		Prefix:              "!",
		StorageBackend:      datastore.KindMemory,
	}
	a, err := New(cfg, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestEngineRoundTrip(t *testing.T) {
	a := newTestApp(t)
	out := a.Engine.HandleMessage(context.Background(), mind.Incoming{
		AuthorID: "u1", AuthorName: "Alex", ChannelID: "dm", Content: "salut", IsDM: true,
	})
	assert.Equal(t, mind.Replied, out.Kind)
	assert.Equal(t, []string{"Salut Alex, ça roule ?"}, out.Replies)
}

func TestSeedsStaticDocuments(t *testing.T) {
	a := newTestApp(t)
	names, err := a.Backend.List(context.Background(), "")
	require.NoError(t, err)
	assert.Subset(t, names, []string{"triggers", "localization", "moderation_rules", "temporal_rules"})
}

func TestStatsCountsCommands(t *testing.T) {
	a := newTestApp(t)
	a.Engine.HandleMessage(context.Background(), mind.Incoming{
		AuthorID: "u1", AuthorName: "Alex", ChannelID: "c1", GuildID: "g1", Content: "!profil",
	})

	st := a.Stats().(Stats)
	assert.Equal(t, int64(1), st.Commands)
	assert.Equal(t, 1, st.Users)
	assert.Equal(t, 1, st.Proactive.Channels)
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	_, err := New(&config.Config{StorageBackend: "postgres"}, logging.Discard())
	assert.ErrorContains(t, err, "open datastore")
}
