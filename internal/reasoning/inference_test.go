package reasoning

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInferUserState(t *testing.T) {
	tests := []struct {
		message string
		state   UserState
	}{
		{"putain ça marche pas", Frustrated},
		{"merci c'est top", Positive},
		{"c'est difficile en ce moment", Negative},
		{"quoi ???", ConfusedOrUrgent},
		{"on mange quand", Neutral},
		// frustration wins over positivity
		{"super, encore un truc nul", Frustrated},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			got := Infer(tt.message, MemoryView{})
			assert.Equal(t, tt.state, got.UserState)
			if tt.state == Neutral {
				assert.Empty(t, got.Assumptions)
			} else {
				assert.Len(t, got.Assumptions, 1)
			}
		})
	}
}

func TestInferNeeds(t *testing.T) {
	got := Infer("comment régler ce problème, ton avis ?", MemoryView{})
	assert.Equal(t, []string{"need_explanation", "need_solution", "need_support", "need_opinion", "need_validation"}, got.ImplicitNeeds)
}

func TestInferNameAssumption(t *testing.T) {
	got := Infer("salut", MemoryView{Facts: []string{"Je m'appelle Alex et j'ai 30 ans"}})
	assert.Contains(t, got.Assumptions, "User's name is alex (from memory)")
}

func TestInferRelatedTopics(t *testing.T) {
	got := Infer("le gaming c'est la vie", MemoryView{Interests: []string{"gaming", "music"}})
	assert.Equal(t, []string{"gaming"}, got.RelatedTopics)

	got = Infer("mon code plante, gros problème", MemoryView{})
	assert.Equal(t, []string{"programmation", "bug", "développement", "tech", "solution", "aide", "résoudre", "fix"}, got.RelatedTopics)
}

func TestInferCarriesContradictions(t *testing.T) {
	got := Infer("j'ai un prénom féminin", MemoryView{Facts: []string{"je suis un mec"}})
	assert.Len(t, got.Contradictions, 1)
}
