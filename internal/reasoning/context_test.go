package reasoning

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecompose(t *testing.T) {
	t.Run("no reasoning", func(t *testing.T) {
		d := Decompose("Il fait beau", Classify("Il fait beau"))
		assert.False(t, d.NeedsDecomposition)
		assert.Empty(t, d.ReasoningSteps)
	})

	tests := []struct {
		message string
		first   string
	}{
		{"Comment faire un serveur HTTP ?", "1. Identifier le contexte"},
		{"Pourquoi le ciel est bleu ?", "1. Identifier la cause principale"},
		{"quelle est la différence entre Python et Rust ?", "1. Lister les options"},
		{"J'ai un bug dans mon appli", "1. Diagnostiquer le problème"},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			d := Decompose(tt.message, Classify(tt.message))
			assert.True(t, d.NeedsDecomposition)
			assert.Len(t, d.SubQuestions, 3)
			assert.Len(t, d.ReasoningSteps, 3)
			assert.Equal(t, tt.first, d.ReasoningSteps[0])
		})
	}
}

func analyze(message string, view MemoryView) string {
	in := Classify(message)
	return BuildContext(in, Infer(message, view), Decompose(message, in))
}

func TestBuildContextChoiceReturnsEarly(t *testing.T) {
	got := analyze("homme ou femme ?", MemoryView{})
	assert.True(t, strings.HasPrefix(got, "\n\n🧠 CONTEXTE DE RAISONNEMENT:\n"))
	assert.Contains(t, got, "📋 Type de question: CHOIX SIMPLE")
	assert.NotContains(t, got, "DIRECTIVES DE RÉPONSE")
}

func TestBuildContextContradictionsFirst(t *testing.T) {
	got := analyze("tu as un prénom de fille ?", MemoryView{Facts: []string{"je suis un homme"}})
	block := strings.Index(got, "⛔ CONTRADICTIONS DÉTECTÉES")
	typ := strings.Index(got, "- Type:")
	assert.GreaterOrEqual(t, block, 0)
	assert.Greater(t, typ, block)
	assert.Contains(t, got, "📝 Mémoire: \"je suis un homme\"")
}

func TestBuildContextFactual(t *testing.T) {
	got := analyze("Quel âge j'ai ?", MemoryView{})
	assert.Contains(t, got, "- Type: question (factual)")
	assert.Contains(t, got, "💡 RÉPONSE FACTUELLE ATTENDUE:")
	assert.NotContains(t, got, "ÉTAPES DE RAISONNEMENT")
}

func TestBuildContextDirectives(t *testing.T) {
	got := analyze("quelle est la différence entre Python et Rust ?", MemoryView{})
	assert.Contains(t, got, "📋 ÉTAPES DE RAISONNEMENT À SUIVRE:\n   1. Lister les options\n")
	assert.Contains(t, got, "   - Présenter les options de manière équilibrée\n")
	assert.True(t, strings.HasSuffix(got, "analysé la question en profondeur.\n"))

	got = analyze("putain j'ai une erreur dans mon code", MemoryView{})
	assert.Contains(t, got, "- État utilisateur: frustrated")
	assert.Contains(t, got, "   - Rester calme et constructif\n")
	assert.Contains(t, got, "   - Prioriser par probabilité de succès\n")
	assert.Contains(t, got, "🔗 Concepts liés: programmation, bug, développement, tech\n")
}
