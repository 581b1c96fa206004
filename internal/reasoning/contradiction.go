package reasoning

import (
	"regexp"
	"strings"
)

// Contradiction flags a message that asserts the opposite of a stored fact.
type Contradiction struct {
	Type      string `json:"type"`
	Memorized string `json:"memorized"`
	Current   string `json:"current"`
	Warning   string `json:"warning"`
}

// contradictionRule fires when a stored fact contains one of FactCues and
// the message matches Opposite.
type contradictionRule struct {
	Type     string
	FactCues []string
	Opposite *regexp.Regexp
	Warning  string
}

// Gender rules are exclusive per fact: a fact read as male is never also
// tested as female.
var genderRules = []contradictionRule{
	{
		Type:     "gender",
		FactCues: []string{"je suis un mec", "je suis un homme", "homme"},
		Opposite: regexp.MustCompile(`une fille|une femme|prénom de fille|prénom féminin|prénom de femme|féminin`),
		Warning:  "ATTENTION: La mémoire indique que cet utilisateur est un homme. Ne PAS le traiter comme une femme.",
	},
	{
		Type:     "gender",
		FactCues: []string{"je suis une fille", "je suis une femme", "femme"},
		Opposite: regexp.MustCompile(`un mec|un homme|masculin|prénom masculin`),
		Warning:  "ATTENTION: La mémoire indique que cet utilisateur est une femme. Ne PAS le traiter comme un homme.",
	},
}

// CheckContradictions compares message against every stored fact. It only
// reacts to explicit keywords and returns nil when nothing conflicts.
func CheckContradictions(message string, facts []string) []Contradiction {
	lower := strings.ToLower(message)
	var out []Contradiction
	for _, fact := range facts {
		lf := strings.ToLower(fact)
		for _, r := range genderRules {
			if !containsAny(lf, r.FactCues) {
				continue
			}
			if r.Opposite.MatchString(lower) {
				out = append(out, Contradiction{Type: r.Type, Memorized: fact, Current: message, Warning: r.Warning})
			}
			break
		}
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
