package reasoning

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// MemoryView is the slice of long-term memory the inference step reads.
type MemoryView struct {
	Facts     []string
	Interests []string
}

type UserState string

const (
	Neutral          UserState = "neutral"
	Frustrated       UserState = "frustrated"
	Positive         UserState = "positive"
	Negative         UserState = "negative"
	ConfusedOrUrgent UserState = "confused_or_urgent"
)

// Inferences are the deductions made about a message and its author.
type Inferences struct {
	ImplicitNeeds  []string        `json:"implicit_needs"`
	Assumptions    []string        `json:"assumptions"`
	RelatedTopics  []string        `json:"related_topics"`
	UserState      UserState       `json:"user_state"`
	Contradictions []Contradiction `json:"contradictions"`
}

var needRules = []struct {
	pattern *regexp.Regexp
	needs   []string
}{
	{regexp.MustCompile(`comment|aide|explique`), []string{"need_explanation"}},
	{regexp.MustCompile(`problème|marche pas|erreur`), []string{"need_solution", "need_support"}},
	{regexp.MustCompile(`tu penses|avis|conseil`), []string{"need_opinion", "need_validation"}},
}

// First match wins.
var stateRules = []struct {
	pattern    *regexp.Regexp
	state      UserState
	assumption string
}{
	{regexp.MustCompile(`putain|bordel|chiant|nul`), Frustrated, "User is experiencing frustration, may need calmer approach"},
	{regexp.MustCompile(`génial|super|cool|merci|top`), Positive, "User is satisfied, can be more casual"},
	{regexp.MustCompile(`triste|dur|difficile|mal`), Negative, "User may need emotional support"},
	{regexp.MustCompile(`\?{2,}|!!!|aide`), ConfusedOrUrgent, "User needs clear, direct answer"},
}

var conceptAssociations = []struct {
	concept string
	related []string
}{
	{"code", []string{"programmation", "bug", "développement", "tech"}},
	{"jeu", []string{"gaming", "console", "pc", "fps"}},
	{"musique", []string{"écouter", "concert", "album", "artiste"}},
	{"film", []string{"série", "netflix", "cinéma", "regarder"}},
	{"problème", []string{"solution", "aide", "résoudre", "fix"}},
}

var (
	nameFactRe = regexp.MustCompile(`je m'appelle|mon prénom|je suis [A-Z]`)
	nameRe     = regexp.MustCompile(`(?i)je m'appelle (\w+)|mon prénom (?:est|c'est) (\w+)`)
)

// Infer derives needs, state, assumptions and related topics from message
// and the author's memory.
func Infer(message string, view MemoryView) Inferences {
	lower := strings.ToLower(message)
	inf := Inferences{UserState: Neutral}

	inf.Contradictions = CheckContradictions(message, view.Facts)

	for _, fact := range view.Facts {
		lf := strings.ToLower(fact)
		if !nameFactRe.MatchString(lf) {
			continue
		}
		if m := nameRe.FindStringSubmatch(lf); m != nil {
			name := m[1]
			if name == "" {
				name = m[2]
			}
			inf.Assumptions = append(inf.Assumptions, fmt.Sprintf("User's name is %s (from memory)", name))
		}
	}

	for _, r := range needRules {
		if r.pattern.MatchString(lower) {
			inf.ImplicitNeeds = append(inf.ImplicitNeeds, r.needs...)
		}
	}

	for _, r := range stateRules {
		if r.pattern.MatchString(lower) {
			inf.UserState = r.state
			inf.Assumptions = append(inf.Assumptions, r.assumption)
			break
		}
	}

	words := strings.Fields(lower)
	for _, interest := range view.Interests {
		li := strings.ToLower(interest)
		if slices.ContainsFunc(words, func(w string) bool { return strings.Contains(li, w) }) {
			inf.RelatedTopics = append(inf.RelatedTopics, interest)
		}
	}

	for _, ca := range conceptAssociations {
		if !strings.Contains(lower, ca.concept) {
			continue
		}
		for _, r := range ca.related {
			if !slices.Contains(inf.RelatedTopics, r) {
				inf.RelatedTopics = append(inf.RelatedTopics, r)
			}
		}
	}

	return inf
}
