package reasoning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		message    string
		label      string
		complexity Complexity
		reasoning  bool
		confidence float64
	}{
		{"Pourquoi le ciel est bleu ?", "question/explanation", Complex, true, 0.9},
		{"Tu penses quoi de Go ?", "question/advice", Medium, true, 0.85},
		{"chat ou chien ?", "question/choice", Simple, false, 0.9},
		{"oui ou non dcp ?", "question/choice", Simple, false, 0.9},
		{"quelle est la différence entre Python et Rust ?", "question/comparison", Medium, true, 0.8},
		{"D'où vient ce bruit ?", "question/causal", Complex, true, 0.9},
		{"Il est quelle heure ?", "question/factual", Simple, false, 0.7},
		{"Explique moi les goroutines", "request/action", Medium, true, 0.8},
		{"Raconte une blague", "request/action", Simple, false, 0.8},
		{"Je pense que Go est top", "statement/opinion", Medium, true, 0.75},
		{"J'ai un bug dans mon code", "problem/troubleshooting", Complex, true, 0.85},
		{"Il fait beau", "statement/simple", Simple, false, 0.6},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			got := Classify(tt.message)
			assert.Equal(t, tt.label, got.Label())
			assert.Equal(t, tt.complexity, got.Complexity)
			assert.Equal(t, tt.reasoning, got.RequiresReasoning)
			assert.InDelta(t, tt.confidence, got.Confidence, 1e-9)
		})
	}
}

func TestChoiceRuleShadowsComparison(t *testing.T) {
	var choice, comparison Rule
	for _, r := range Rules() {
		switch r.Name {
		case "choice":
			choice = r
		case "comparison":
			comparison = r
		}
	}
	require.NotNil(t, choice.Pattern)
	require.NotNil(t, comparison.Pattern)

	// the choice pattern is ASCII-only; accented options fall through to comparison
	assert.False(t, choice.Match("pizza ou plutôt pâtes ?"))
	assert.True(t, choice.Match("homme ou femme ?"))
	assert.True(t, comparison.Match("tu préfères vim vs emacs ?"))
	assert.False(t, choice.Match("homme ou femme"))
}

func TestRulesOrder(t *testing.T) {
	var names []string
	for _, r := range Rules() {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{
		"explanation", "advice", "choice", "comparison", "causal", "factual",
		"request", "opinion", "problem", "statement",
	}, names)
}

func TestClassifyKeywords(t *testing.T) {
	got := Classify("Python Python Rust Rust Go Java Kotlin")
	assert.Equal(t, []string{"Python", "Rust", "Java"}, got.Keywords)

	got = Classify("Je préfère écouter")
	assert.Equal(t, []string{"préfère", "écouter"}, got.Keywords)
}
