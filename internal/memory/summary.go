package memory

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
)

// InterestLabels translates interest tags for prompts and commands.
var InterestLabels = map[string]string{
	"gaming":   "Jeux vidéo",
	"music":    "Musique",
	"politics": "Politique",
	"tech":     "Tech/Dev",
	"sport":    "Sport",
	"cinema":   "Films/Séries",
	"reading":  "Lecture",
	"art":      "Art",
	"cooking":  "Cuisine",
	"travel":   "Voyages",
}

var moodLabels = map[string]string{
	"joy":      "content/heureux",
	"sadness":  "triste",
	"anger":    "énervé",
	"fear":     "inquiet",
	"surprise": "surpris",
}

// InterestLabel returns the French label of tag, or tag itself.
func InterestLabel(tag string) string {
	if l, ok := InterestLabels[tag]; ok {
		return l
	}
	return tag
}

// Summary renders the long-term memory block injected into prompts. It is
// empty for unknown users and for users with nothing worth repeating.
func (s *Store) Summary(userID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := s.users[userID]
	if m == nil {
		return ""
	}
	if len(m.Facts)+len(m.Preferences)+len(m.Expertise)+len(m.Interests) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n[MÉMOIRE LONG TERME de %s]", m.UserName)

	line := func(label string, items []string, sep string) {
		if len(items) > 0 {
			fmt.Fprintf(&b, "\n• %s: %s", label, strings.Join(items, sep))
		}
	}

	line("Profil", longer(last(m.Facts, 3), 10), ". ")
	line("Aime", longer(last(m.Preferences, 3), 10), ", ")
	line("N'aime pas", longer(last(m.Dislikes, 2), 10), ", ")
	line("Connaît", last(m.People, 5), ", ")
	line("Compétences", longer(last(m.Expertise, 3), 10), "; ")
	line("Centres d'intérêt", lo.Map(m.Interests, func(t string, _ int) string { return InterestLabel(t) }), ", ")
	line("Discussions récentes", longer(m.Topics[:min(2, len(m.Topics))], 20), "; ")

	events := lo.Map(last(m.Events, 2), func(e Event, _ int) string { return e.Event })
	line("Événements", longer(events, 15), "; ")

	if n := len(m.Moods); n > 0 && m.Moods[n-1].Emotion != "" {
		emotion := m.Moods[n-1].Emotion
		label, ok := moodLabels[emotion]
		if !ok {
			label = emotion
		}
		fmt.Fprintf(&b, "\n• Humeur récente: %s", label)
	}

	return b.String()
}

func last[T any](list []T, n int) []T {
	return list[max(0, len(list)-n):]
}

func longer(list []string, n int) []string {
	return lo.Filter(list, func(s string, _ int) bool { return utf8.RuneCountInString(s) > n })
}
