// Package reasoning classifies messages and builds the structured directive
// block that tells the model how to approach an answer.
package reasoning

import (
	"regexp"
	"strings"

	"github.com/samber/lo"
)

type Complexity string

const (
	Simple  Complexity = "simple"
	Medium  Complexity = "medium"
	Complex Complexity = "complex"
)

// Intent is the classifier verdict for one message.
type Intent struct {
	Type              string     `json:"type"`
	Subtype           string     `json:"subtype"`
	Complexity        Complexity `json:"complexity"`
	RequiresReasoning bool       `json:"requires_reasoning"`
	Confidence        float64    `json:"confidence"`
	Keywords          []string   `json:"keywords"`
}

// Label is "type/subtype".
func (i Intent) Label() string { return i.Type + "/" + i.Subtype }

// Rule is one branch of the decision list. Question rules are only tried on
// messages containing '?', the others only on messages without one. A nil
// Pattern always matches.
type Rule struct {
	Name     string
	Question bool
	Pattern  *regexp.Regexp
	Result   Intent

	// Refine adjusts Result from the lowercased message.
	Refine func(lower string, in *Intent)
}

var reasoningVerbs = regexp.MustCompile(`explique|analyse|compare|trouve`)

var rules = []Rule{
	{
		Name: "explanation", Question: true,
		Pattern: regexp.MustCompile(`pourquoi|comment (faire|ça marche|fonctionne)|explique|quelle différence|qu'est-ce que`),
		Result:  Intent{Type: "question", Subtype: "explanation", Complexity: Complex, RequiresReasoning: true, Confidence: 0.9},
	},
	{
		Name: "advice", Question: true,
		Pattern: regexp.MustCompile(`tu penses|avis|conseil|recommand|suggère|meilleur|préférable`),
		Result:  Intent{Type: "question", Subtype: "advice", Complexity: Medium, RequiresReasoning: true, Confidence: 0.85},
	},
	{
		// must stay ahead of comparison: "x ou y ?" is a lookup, not an analysis
		Name: "choice", Question: true,
		Pattern: regexp.MustCompile(`^[\w\s]{1,20}\s+ou\s+[\w\s]{1,20}(\s*(dcp|donc|alors|,|\?)\s*)?$`),
		Result:  Intent{Type: "question", Subtype: "choice", Complexity: Simple, Confidence: 0.9},
	},
	{
		Name: "comparison", Question: true,
		Pattern: regexp.MustCompile(`différence entre|comparer|versus|vs|plutôt|mieux que`),
		Result:  Intent{Type: "question", Subtype: "comparison", Complexity: Medium, RequiresReasoning: true, Confidence: 0.8},
	},
	{
		Name: "causal", Question: true,
		Pattern: regexp.MustCompile(`cause|raison|pourquoi|comment se fait|d'où vient`),
		Result:  Intent{Type: "question", Subtype: "causal", Complexity: Complex, RequiresReasoning: true, Confidence: 0.9},
	},
	{
		Name: "factual", Question: true,
		Result: Intent{Type: "question", Subtype: "factual", Complexity: Simple, Confidence: 0.7},
	},
	{
		Name:    "request",
		Pattern: regexp.MustCompile(`^(peux-tu|pourrais-tu|fais|fait|aide|aide-moi|explique|raconte|donne|trouve|cherche)`),
		Result:  Intent{Type: "request", Subtype: "action", Complexity: Simple, Confidence: 0.8},
		Refine: func(lower string, in *Intent) {
			if reasoningVerbs.MatchString(lower) {
				in.RequiresReasoning = true
				in.Complexity = Medium
			}
		},
	},
	{
		Name:    "opinion",
		Pattern: regexp.MustCompile(`je pense que|selon moi|à mon avis|il me semble|peut-être|probablement`),
		Result:  Intent{Type: "statement", Subtype: "opinion", Complexity: Medium, RequiresReasoning: true, Confidence: 0.75},
	},
	{
		Name:    "problem",
		Pattern: regexp.MustCompile(`problème|bug|marche pas|fonctionne pas|erreur|aide|bloqué|comprends pas`),
		Result:  Intent{Type: "problem", Subtype: "troubleshooting", Complexity: Complex, RequiresReasoning: true, Confidence: 0.85},
	},
	{
		Name:   "statement",
		Result: Intent{Type: "statement", Subtype: "simple", Complexity: Simple, Confidence: 0.6},
	},
}

// Rules returns the decision list in precedence order.
func Rules() []Rule { return rules }

var keywordRe = regexp.MustCompile(`\p{L}{4,}`)

// Classify walks the decision list and returns the first matching branch.
func Classify(message string) Intent {
	lower := strings.ToLower(message)
	question := strings.Contains(message, "?")

	var in Intent
	for _, r := range rules {
		if r.Question != question {
			continue
		}
		if r.Pattern != nil && !r.Pattern.MatchString(lower) {
			continue
		}
		in = r.Result
		if r.Refine != nil {
			r.Refine(lower, &in)
		}
		break
	}

	words := keywordRe.FindAllString(message, 5)
	in.Keywords = lo.Uniq(words)
	return in
}

// Match reports whether r alone would classify message.
func (r Rule) Match(message string) bool {
	if r.Question != strings.Contains(message, "?") {
		return false
	}
	return r.Pattern == nil || r.Pattern.MatchString(strings.ToLower(message))
}
