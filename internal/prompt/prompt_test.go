package prompt

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/compagnon/internal/conversation"
)

func TestBuildOrder(t *testing.T) {
	got := Build(Input{
		Personality:      "PERSONA",
		UserName:         "Alex",
		Mentions:         []string{"@sam", "@lou"},
		Summary:          "U:salut",
		Enrichment:       "\n[ENRICH]",
		MemorySummary:    "\n[MEMORY]",
		ReasoningContext: "\n\nREASONING",
		UseAdvanced:      true,
		Turns: []conversation.Message{
			{Role: conversation.User, Content: "bonjour"},
			{Role: conversation.Assistant, Content: "yo"},
			{Role: conversation.User, Content: "ça va ?"},
		},
	})

	require.True(t, strings.HasPrefix(got, "PERSONA\n\nTu discutes avec Alex. Il mentionne: @sam, @lou.\n\n🎯 RÈGLES DE RÉPONSE:\n"))
	assert.True(t, strings.HasSuffix(got, "\n\nConversation:\nAlex: bonjour\nBot: yo\nAlex: ça va ?\nBot:"))

	order := []string{"RÈGLES DE RÉPONSE", "📜 Résumé des échanges précédents: U:salut", "[ENRICH]", "[MEMORY]", "VRAIES et VÉRIFIÉES", "REASONING", "Conversation:"}
	last := -1
	for _, marker := range order {
		i := strings.Index(got, marker)
		require.GreaterOrEqual(t, i, 0, marker)
		assert.Greater(t, i, last, marker)
		last = i
	}
}

func TestBuildSkipsOptionalBlocks(t *testing.T) {
	got := Build(Input{Personality: "P", UserName: "Alex", ReasoningContext: "REASONING"})
	assert.NotContains(t, got, "Il mentionne")
	assert.NotContains(t, got, "Résumé des échanges")
	assert.NotContains(t, got, "REASONING")
	assert.True(t, strings.HasSuffix(got, "Conversation:\nBot:"))
}

func TestBuildWarningsWithoutAdvancedContext(t *testing.T) {
	got := Build(Input{Personality: "P", UserName: "Alex", ReasoningContext: "REASONING", Warnings: "\n⛔ WARN"})
	assert.Contains(t, got, "⛔ WARN")
	assert.NotContains(t, got, "REASONING")
	assert.Less(t, strings.Index(got, "VRAIES et VÉRIFIÉES"), strings.Index(got, "⛔ WARN"))

	got = Build(Input{Personality: "P", UserName: "Alex", ReasoningContext: "REASONING", Warnings: "\n⛔ WARN", UseAdvanced: true})
	assert.Contains(t, got, "REASONING")
	assert.NotContains(t, got, "⛔ WARN")
}

func TestCleanReply(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Bot: salut toi  ", "salut toi"},
		{"assistant: ok cool\nUser: autre chose", "ok cool"},
		{"Toi:Hello", "Hello"},
		{"", Fallback},
		{"Bot: a", Fallback},
		{"\n\nrien\nencore", "rien"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanReply(tt.in), "%q", tt.in)
	}
}

func TestChunk(t *testing.T) {
	assert.Equal(t, []string{"court"}, Chunk("court"))

	exact := strings.Repeat("é", MaxMessage)
	assert.Len(t, Chunk(exact), 1)

	long := strings.Repeat("é", 4000)
	chunks := Chunk(long)
	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), ChunkSize)
	}
	assert.Equal(t, long, strings.Join(chunks, ""))
}
