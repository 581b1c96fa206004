package reasoning

import (
	"fmt"
	"regexp"
	"strings"
)

// Decomposition splits a reasoning question into sub-questions and the
// steps the model should follow.
type Decomposition struct {
	MainQuestion       string   `json:"main_question,omitempty"`
	SubQuestions       []string `json:"sub_questions"`
	ReasoningSteps     []string `json:"reasoning_steps"`
	NeedsDecomposition bool     `json:"needs_decomposition"`
}

type decomposeRule struct {
	match        func(lower string) bool
	subQuestions []string
	steps        []string
}

func contains(sub string) func(string) bool {
	return func(s string) bool { return strings.Contains(s, sub) }
}

func matches(re string) func(string) bool {
	r := regexp.MustCompile(re)
	return r.MatchString
}

var decomposeRules = []decomposeRule{
	{
		contains("comment"),
		[]string{"Quel est le contexte ?", "Quelles sont les étapes ?", "Quels sont les prérequis ?"},
		[]string{"1. Identifier le contexte", "2. Lister les étapes séquentiellement", "3. Mentionner les points d'attention"},
	},
	{
		contains("pourquoi"),
		[]string{"Quelle est la cause ?", "Quelles sont les conséquences ?", "Y a-t-il des alternatives ?"},
		[]string{"1. Identifier la cause principale", "2. Expliquer le mécanisme causal", "3. Contextualiser avec exemples"},
	},
	{
		matches(`ou|versus|vs|mieux|plutôt|différence entre`),
		[]string{"Quels sont les critères de comparaison ?", "Avantages de chaque option ?", "Inconvénients de chaque option ?"},
		[]string{"1. Lister les options", "2. Comparer sur critères clés", "3. Donner une recommandation basée sur le contexte"},
	},
	{
		matches(`conseil|recommand|suggère|avis`),
		[]string{"Quel est le contexte/objectif ?", "Quelles sont les contraintes ?", "Quelle est la meilleure approche ?"},
		[]string{"1. Comprendre l'objectif", "2. Évaluer les options", "3. Recommander avec justification"},
	},
	{
		matches(`problème|bug|marche pas|erreur`),
		[]string{"Quel est le symptôme exact ?", "Quelles sont les causes possibles ?", "Quelles sont les solutions ?"},
		[]string{"1. Diagnostiquer le problème", "2. Identifier les causes probables", "3. Proposer solutions ordonnées par probabilité"},
	},
}

// Decompose only runs for intents that require reasoning.
func Decompose(message string, in Intent) Decomposition {
	if !in.RequiresReasoning {
		return Decomposition{}
	}
	d := Decomposition{MainQuestion: message, NeedsDecomposition: true}
	lower := strings.ToLower(message)
	for _, r := range decomposeRules {
		if r.match(lower) {
			d.SubQuestions = append(d.SubQuestions, r.subQuestions...)
			d.ReasoningSteps = append(d.ReasoningSteps, r.steps...)
			break
		}
	}
	return d
}

// ContradictionBlock renders the warnings for cs, or "" when there are none.
func ContradictionBlock(cs []Contradiction) string {
	if len(cs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n⛔ CONTRADICTIONS DÉTECTÉES - LECTURE OBLIGATOIRE:\n")
	for _, c := range cs {
		fmt.Fprintf(&b, "   ⚠️ %s\n", c.Warning)
		fmt.Fprintf(&b, "   📝 Mémoire: \"%s\"\n", c.Memorized)
		b.WriteString("   ❌ Ne PAS assumer le contraire de ce fait mémorisé.\n")
	}
	b.WriteString("\n")
	return b.String()
}

// BuildContext renders the reasoning block appended to the prompt.
func BuildContext(in Intent, inf Inferences, d Decomposition) string {
	var b strings.Builder
	b.WriteString("\n\n🧠 CONTEXTE DE RAISONNEMENT:\n")

	b.WriteString(ContradictionBlock(inf.Contradictions))

	if in.Subtype == "choice" {
		b.WriteString("📋 Type de question: CHOIX SIMPLE\n")
		b.WriteString("💡 INSTRUCTIONS STRICTES:\n")
		b.WriteString("   - Regarde l'HISTORIQUE de conversation et la MÉMOIRE utilisateur\n")
		b.WriteString("   - Si l'info est dans la mémoire ou l'historique, réponds DIRECTEMENT avec le fait\n")
		b.WriteString("   - NE DIS JAMAIS \"je ne sais pas\" si tu peux déduire du contexte\n")
		b.WriteString("   - Format: Une phrase courte et directe\n")
		b.WriteString("   - Exemple: \"T'es un mec\" ou \"Tu as 25 ans\" (pas de \"je pense que...\" ou \"il est possible\")\n\n")
		return b.String()
	}

	fmt.Fprintf(&b, "- Type: %s", in.Type)
	if in.Subtype != "" {
		fmt.Fprintf(&b, " (%s)", in.Subtype)
	}
	fmt.Fprintf(&b, "\n- Complexité: %s\n", in.Complexity)

	if len(inf.ImplicitNeeds) > 0 {
		fmt.Fprintf(&b, "- Besoins détectés: %s\n", strings.Join(inf.ImplicitNeeds, ", "))
	}
	if inf.UserState != "" && inf.UserState != Neutral {
		fmt.Fprintf(&b, "- État utilisateur: %s\n", inf.UserState)
	}

	if in.Subtype == "factual" && in.Complexity == Simple {
		b.WriteString("\n💡 RÉPONSE FACTUELLE ATTENDUE:\n")
		b.WriteString("   - Consulte la mémoire utilisateur et l'historique\n")
		b.WriteString("   - Si l'info existe, réponds avec CERTITUDE (pas \"peut-être\", \"possible\")\n")
		b.WriteString("   - Si l'info n'existe PAS, demande ou déduis du contexte\n")
		b.WriteString("   - Sois direct et affirmatif\n\n")
	}

	if d.NeedsDecomposition && len(d.ReasoningSteps) > 0 {
		b.WriteString("\n📋 ÉTAPES DE RAISONNEMENT À SUIVRE:\n")
		for _, step := range d.ReasoningSteps {
			fmt.Fprintf(&b, "   %s\n", step)
		}
	}

	if len(inf.RelatedTopics) > 0 {
		fmt.Fprintf(&b, "\n🔗 Concepts liés: %s\n", strings.Join(inf.RelatedTopics[:min(5, len(inf.RelatedTopics))], ", "))
	}

	b.WriteString("\n💡 DIRECTIVES DE RÉPONSE:\n")
	if in.Complexity == Complex {
		b.WriteString("   - Structurer la réponse en étapes claires\n")
		b.WriteString("   - Expliquer le raisonnement sous-jacent\n")
	}
	switch inf.UserState {
	case Frustrated:
		b.WriteString("   - Rester calme et constructif\n")
		b.WriteString("   - Proposer des solutions concrètes\n")
	case ConfusedOrUrgent:
		b.WriteString("   - Être direct et clair\n")
		b.WriteString("   - Éviter les détails superflus\n")
	case Positive:
		b.WriteString("   - Maintenir le ton positif\n")
		b.WriteString("   - Peut être plus décontracté\n")
	}
	if in.Subtype == "comparison" {
		b.WriteString("   - Présenter les options de manière équilibrée\n")
		b.WriteString("   - Donner une recommandation finale\n")
	}
	if in.Type == "problem" {
		b.WriteString("   - Proposer des solutions concrètes et testables\n")
		b.WriteString("   - Prioriser par probabilité de succès\n")
	}

	b.WriteString("\n⚠️ IMPORTANT: Raisonne avant de répondre. Ta réponse doit montrer que tu as analysé la question en profondeur.\n")
	return b.String()
}
