package memory

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Extraction groups the candidates found in one message by category.
type Extraction map[Category][]Item

// Empty reports whether nothing was extracted.
func (e Extraction) Empty() bool {
	for _, items := range e {
		if len(items) > 0 {
			return false
		}
	}
	return true
}

type rule struct {
	category Category
	pattern  *regexp.Regexp
	maxLen   int
}

// Sentence rules keep the first sentence of the message when pattern matches
// the lowercased text.
var sentenceRules = []rule{
	{Facts, regexp.MustCompile(`je suis|je m'appelle|j'ai \d+|je travaille|j'étudie|je vis|j'habite`), 150},
	{Preferences, regexp.MustCompile(`j'adore|j'aime beaucoup|j'aime|je préfère|je kiffe|c'est génial|c'est super|c'est cool|fan de`), 120},
	{Dislikes, regexp.MustCompile(`je déteste|je n'aime pas|je hais|c'est nul|ça craint|c'est chiant|insupportable`), 120},
	{Expertise, regexp.MustCompile(`je maîtrise|expert en|je code en|je développe en|je parle|je pratique depuis|spécialisé|professionnel`), 120},
}

var (
	trivialRe  = regexp.MustCompile(`^(oui|non|ok|d'accord|ah|oh|hmm|euh)$`)
	sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]?`)
	mentionRe  = regexp.MustCompile(`@(\w+)`)

	eventTimeRe   = regexp.MustCompile(`hier|aujourd'hui|demain|cette semaine|le mois|l'année|récemment|bientôt|viens de|va|nouveau`)
	eventActionRe = regexp.MustCompile(`commencé|fini|obtenu|rencontré|acheté|créé|lancé|déménagé|changé|décidé`)

	bareQuestionRe = regexp.MustCompile(`^(quoi|pourquoi|comment|qui|où) \?$`)
	questionTopic  = regexp.MustCompile(`comment|pourquoi|qu'est-ce|quel|quelle|penses-tu|avis|conseil`)
	statementTopic = regexp.MustCompile(`important|crucial|essentiel|problème|besoin|cherche|voudrais|aimerais|projet`)
)

// InterestKeywords maps an interest tag to the substrings that reveal it.
var InterestKeywords = []struct {
	Tag      string
	Keywords []string
}{
	{"gaming", []string{"jeu", "gaming", "gamer", "joue", "console", "pc gaming"}},
	{"music", []string{"musique", "écoute", "chante", "instrument", "concert", "album"}},
	{"politics", []string{"politique", "élection", "gouvernement"}},
	{"tech", []string{"tech", "technologie", "code", "dev", "programmation", "informatique"}},
	{"sport", []string{"sport", "foot", "basket", "fitness", "course", "gym"}},
	{"cinema", []string{"film", "cinéma", "série", "netflix", "regarder"}},
	{"reading", []string{"livre", "lecture", "lire", "roman", "bouquin"}},
	{"art", []string{"art", "dessin", "peinture", "créatif"}},
	{"cooking", []string{"cuisine", "cuisiner", "recette", "plat"}},
	{"travel", []string{"voyage", "voyager", "pays", "destination"}},
}

// Emotions in priority order; only the first match is kept.
var emotionRules = []struct {
	emotion string
	pattern *regexp.Regexp
}{
	{"joy", regexp.MustCompile(`super content|trop content|heureux|génial|excellent|parfait|top|cool|love`)},
	{"sadness", regexp.MustCompile(`triste|déprimé|déçu|mal|dur|difficile`)},
	{"anger", regexp.MustCompile(`énervé|en colère|furieux|putain|bordel|merde`)},
	{"fear", regexp.MustCompile(`peur|inquiet|angoisse|stress|flippé`)},
	{"surprise", regexp.MustCompile(`surpris|choqué|incroyable|pas croire`)},
}

// Extract runs every rule against message. Short or trivial messages yield
// an empty extraction.
func Extract(message string) Extraction {
	ex := Extraction{}
	lower := strings.ToLower(message)
	if utf8.RuneCountInString(message) < 10 || trivialRe.MatchString(lower) {
		return ex
	}

	sentence := firstSentence(message)
	add := func(c Category, it Item) { ex[c] = append(ex[c], it) }

	for _, r := range sentenceRules {
		if r.pattern.MatchString(lower) {
			add(r.category, Item{Text: truncate(sentence, r.maxLen)})
		}
	}

	for _, m := range mentionRe.FindAllString(message, -1) {
		add(People, Item{Text: truncate(m, 50)})
	}

	if eventTimeRe.MatchString(lower) && eventActionRe.MatchString(lower) {
		add(Events, Item{Text: truncate(sentence, 150)})
	}

	for _, in := range InterestKeywords {
		for _, kw := range in.Keywords {
			if strings.Contains(lower, kw) {
				add(Interests, Item{Text: in.Tag})
				break
			}
		}
	}

	for _, e := range emotionRules {
		if e.pattern.MatchString(lower) {
			add(Moods, Item{Text: truncate(message, 100), Emotion: e.emotion})
			break
		}
	}

	if strings.Contains(message, "?") {
		if utf8.RuneCountInString(message) > 15 && !bareQuestionRe.MatchString(lower) && questionTopic.MatchString(lower) {
			add(Topics, Item{Text: truncate(message, 120)})
		}
	} else if statementTopic.MatchString(lower) {
		add(Topics, Item{Text: truncate(sentence, 120)})
	}

	return ex
}

func firstSentence(message string) string {
	if s := sentenceRe.FindString(message); s != "" {
		return s
	}
	return message
}

// truncate cuts s to at most n runes and trims surrounding space.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return strings.TrimSpace(string(r))
}
