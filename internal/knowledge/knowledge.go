// Package knowledge keeps one global table of typed facts about users,
// keyed "{userID}_{factType}".
package knowledge

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/keshon/compagnon/datastore"
	"github.com/keshon/compagnon/internal/storage"
)

// DocumentName is the datastore document holding the table.
const DocumentName = "knowledge_base"

const (
	Name     = "name"
	Age      = "age"
	Likes    = "likes"
	Dislikes = "dislikes"
)

const maxListValues = 10

// Entry is one fact. Scalar types use Value, list types use Values.
type Entry struct {
	Value      string    `json:"value,omitempty"`
	Values     []string  `json:"values,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Confidence float64   `json:"confidence"`
}

type table struct {
	Facts      map[string]Entry `json:"facts"`
	LastUpdate time.Time        `json:"lastUpdate"`
}

var (
	nameRe    = regexp.MustCompile(`je m'appelle (\w+)|mon nom est (\w+)|appelle[- ]moi (\w+)`)
	ageRe     = regexp.MustCompile(`j'ai (\d+) ans|(\d+) ans`)
	likesRe   = regexp.MustCompile(`(?i)j'aime|j'adore|je kiffe`)
	dislikeRe = regexp.MustCompile(`(?i)je déteste|j'aime pas|je hais`)
)

type Base struct {
	mu    sync.RWMutex
	doc   *storage.Document[table]
	table table
	now   func() time.Time
}

func New(backend datastore.Backend, logger *log.Logger) *Base {
	doc := storage.NewDocument[table](backend, DocumentName, logger)
	t := doc.Load(context.Background(), func() table { return table{Facts: map[string]Entry{}} })
	if t.Facts == nil {
		t.Facts = map[string]Entry{}
	}
	return &Base{doc: doc, table: t, now: time.Now}
}

// SetClock replaces the time source.
func (b *Base) SetClock(now func() time.Time) { b.now = now }

func key(userID, factType string) string { return userID + "_" + factType }

// Extract updates the user's facts from message and reports whether
// anything was stored.
func (b *Base) Extract(userID, message string) bool {
	lower := strings.ToLower(message)
	now := b.now()

	b.mu.Lock()
	changed := false

	if m := nameRe.FindStringSubmatch(lower); m != nil {
		b.table.Facts[key(userID, Name)] = Entry{Value: firstGroup(m), Timestamp: now, Confidence: 1.0}
		changed = true
	}
	if m := ageRe.FindStringSubmatch(lower); m != nil {
		b.table.Facts[key(userID, Age)] = Entry{Value: firstGroup(m), Timestamp: now, Confidence: 0.9}
		changed = true
	}
	// "j'aime pas" is a dislike, but also matches the likes pattern
	if loc := likesRe.FindStringIndex(message); loc != nil {
		b.appendValue(userID, Likes, head(message[loc[0]:], 100), now)
		changed = true
	}
	if loc := dislikeRe.FindStringIndex(message); loc != nil {
		b.appendValue(userID, Dislikes, head(message[loc[0]:], 100), now)
		changed = true
	}

	if changed {
		b.table.LastUpdate = now
	}
	b.mu.Unlock()

	if changed {
		b.persist()
	}
	return changed
}

func (b *Base) appendValue(userID, factType, v string, now time.Time) {
	k := key(userID, factType)
	e, ok := b.table.Facts[k]
	if !ok {
		e = Entry{Timestamp: now, Confidence: 0.8}
	}
	e.Values = append(e.Values, v)
	if len(e.Values) > maxListValues {
		e.Values = e.Values[len(e.Values)-maxListValues:]
	}
	b.table.Facts[k] = e
}

// Get returns every fact type known for userID.
func (b *Base) Get(userID string) map[string]Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	prefix := userID + "_"
	out := map[string]Entry{}
	for k, e := range b.table.Facts {
		if strings.HasPrefix(k, prefix) {
			e.Values = append([]string(nil), e.Values...)
			out[strings.TrimPrefix(k, prefix)] = e
		}
	}
	return out
}

// Values returns the fact as a list, wrapping scalar types.
func (b *Base) Values(userID, factType string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.table.Facts[key(userID, factType)]
	if !ok {
		return nil
	}
	if e.Value != "" {
		return []string{e.Value}
	}
	return append([]string(nil), e.Values...)
}

func (b *Base) persist() {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_ = b.doc.Save(context.Background(), b.table)
}

func firstGroup(m []string) string {
	for _, g := range m[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}

func head(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
