package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/compagnon/datastore"
	"github.com/keshon/compagnon/internal/app"
	"github.com/keshon/compagnon/internal/config"
	"github.com/keshon/compagnon/internal/logging"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	require.NoError(t, root.Execute())
	return out.String()
}

func TestMoodAt(t *testing.T) {
	out := run(t, "mood", "--at", "2025-12-25 03:00")
	assert.Contains(t, out, "humeur sleepy")
	assert.Contains(t, out, `"special_event": "Noël"`)
}

func TestMoodRejectsBadTime(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"mood", "--at", "demain"})
	assert.ErrorContains(t, root.Execute(), "invalid --at")
}

func TestClassify(t *testing.T) {
	out := run(t, "classify", "Pourquoi", "le", "ciel", "est", "bleu", "?")
	assert.Contains(t, out, `"intent"`)
	assert.Contains(t, out, `"complexity"`)
}

func TestClassifyNeedsMessage(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"classify"})
	assert.Error(t, root.Execute())
}

func TestRepl(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"response": "Salut toi, bienvenue !"})
	}))
	defer srv.Close()

	cfg := &config.Config{
		OllamaHost:    srv.URL,
		OllamaProfile: "gpu",
		AIRateLimit:   100,
		MemoryLength:  12,
		Prefix:        "!",
	}
	a := app.NewWithBackend(cfg, datastore.NewMemory(), logging.Discard())

	var out bytes.Buffer
	in := strings.NewReader("salut\n\n!mem\n")
	require.NoError(t, repl(context.Background(), a.Engine, "local", in, &out))

	assert.Contains(t, out.String(), "Salut toi, bienvenue !")
	assert.Contains(t, out.String(), "🧠 Mémoire active: 2 messages. Limite: 12")
}
