package profile

import (
	"context"
	"errors"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/keshon/compagnon/datastore"
	"github.com/keshon/compagnon/internal/storage"
)

const (
	TriggersDocument     = "triggers"
	LocalizationDocument = "localization"
)

type Trigger struct {
	Responses []string `json:"responses"`
	Emoji     string   `json:"emoji"`
}

type Triggers struct {
	Keywords map[string]Trigger `json:"keywords"`
}

// TriggerHit is one keyword found in a message.
type TriggerHit struct {
	Keyword  string
	Response string
	Emoji    string
}

type Localization struct {
	MoodEmojis map[string][]string `json:"emojis_mood"`
	Slang      map[string][]string `json:"french_slang"`
}

// Catalog serves the static keyword and localization tables.
type Catalog struct {
	triggers Triggers
	local    Localization

	mu   sync.Mutex
	rand *rand.Rand
}

// LoadCatalog reads both documents, seeding defaults when absent.
func LoadCatalog(ctx context.Context, backend datastore.Backend, logger *log.Logger) *Catalog {
	return &Catalog{
		triggers: loadOrSeed(ctx, backend, TriggersDocument, DefaultTriggers, logger),
		local:    loadOrSeed(ctx, backend, LocalizationDocument, DefaultLocalization, logger),
		rand:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

func loadOrSeed[T any](ctx context.Context, backend datastore.Backend, name string, def func() T, logger *log.Logger) T {
	doc := storage.NewDocument[T](backend, name, logger)
	if _, err := backend.Load(ctx, name); errors.Is(err, datastore.ErrNotFound) {
		v := def()
		_ = doc.Save(ctx, v)
		return v
	}
	return doc.Load(ctx, def)
}

// SetRand replaces the random source used to pick responses.
func (c *Catalog) SetRand(r *rand.Rand) {
	c.mu.Lock()
	c.rand = r
	c.mu.Unlock()
}

func (c *Catalog) pick(list []string) string {
	if len(list) == 0 {
		return ""
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return list[c.rand.IntN(len(list))]
}

// Triggers returns every keyword contained in message, in keyword order.
func (c *Catalog) Triggers(message string) []TriggerHit {
	lower := strings.ToLower(message)
	var hits []TriggerHit
	for kw, t := range c.triggers.Keywords {
		if strings.Contains(lower, kw) {
			hits = append(hits, TriggerHit{Keyword: kw, Response: c.pick(t.Responses), Emoji: t.Emoji})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Keyword < hits[j].Keyword })
	return hits
}

func (c *Catalog) HasTrigger(message string) bool {
	lower := strings.ToLower(message)
	for kw := range c.triggers.Keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Emoji picks an emoji for mood, falling back to 😊.
func (c *Catalog) Emoji(mood string) string {
	if e := c.pick(c.local.MoodEmojis[mood]); e != "" {
		return e
	}
	return "😊"
}

// Slang picks a French expression of the given kind, or "".
func (c *Catalog) Slang(kind string) string {
	return c.pick(c.local.Slang[kind])
}

func DefaultTriggers() Triggers {
	return Triggers{Keywords: map[string]Trigger{
		"pizza":        {Responses: []string{"Quelqu'un a dit pizza ?", "Ananas ou pas ananas, telle est la question."}, Emoji: "🍕"},
		"café":         {Responses: []string{"Un café et ça repart !"}, Emoji: "☕"},
		"bonne nuit":   {Responses: []string{"Dors bien !", "Fais de beaux rêves."}, Emoji: "🌙"},
		"anniversaire": {Responses: []string{"Joyeux anniversaire !"}, Emoji: "🎂"},
		"apéro":        {Responses: []string{"C'est l'heure de l'apéro ?"}, Emoji: "🍻"},
	}}
}

func DefaultLocalization() Localization {
	return Localization{
		MoodEmojis: map[string][]string{
			"sleepy":     {"😴", "🥱"},
			"waking_up":  {"☕", "😪"},
			"hungry":     {"🍔", "🤤"},
			"productive": {"💪", "🚀"},
			"chill":      {"😎", "🍻"},
			"normal":     {"😊", "🙂"},
		},
		Slang: map[string][]string{
			"agreement": {"grave", "carrément", "trop vrai"},
			"surprise":  {"sérieux ?", "nan mais allô", "c'est ouf"},
			"greeting":  {"wesh", "salut la compagnie", "yo"},
		},
	}
}
