// Package profile tracks lightweight per-user profiles and renders the
// enrichment lines added to every prompt.
package profile

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/keshon/compagnon/datastore"
	"github.com/keshon/compagnon/internal/storage"
	"github.com/keshon/compagnon/internal/temporal"
)

// DocumentName is the datastore document holding every profile.
const DocumentName = "user_profiles"

const maxLearnedFacts = 20

type Preferences struct {
	Topics     []string `json:"topics"`
	Style      string   `json:"style"`
	HumorLevel string   `json:"humor_level"`
}

type Profile struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	FirstSeen        time.Time   `json:"first_seen"`
	LastSeen         time.Time   `json:"last_seen"`
	InteractionCount int         `json:"interaction_count"`
	Preferences      Preferences `json:"preferences"`
	LearnedFacts     []string    `json:"learned_facts"`
	PersonalityNotes []string    `json:"personality_notes"`
}

func (p Profile) clone() Profile {
	p.Preferences.Topics = append([]string(nil), p.Preferences.Topics...)
	p.LearnedFacts = append([]string(nil), p.LearnedFacts...)
	p.PersonalityNotes = append([]string(nil), p.PersonalityNotes...)
	return p
}

type profiles struct {
	Profiles map[string]*Profile `json:"profiles"`
}

var topicCues = []struct {
	topic string
	cues  []string
}{
	{"gaming", []string{"jeu", "gaming"}},
	{"music", []string{"musique", "écoute"}},
	{"politics", []string{"politique"}},
}

type Store struct {
	mu   sync.RWMutex
	doc  *storage.Document[profiles]
	data profiles
	now  func() time.Time
}

func NewStore(backend datastore.Backend, logger *log.Logger) *Store {
	doc := storage.NewDocument[profiles](backend, DocumentName, logger)
	data := doc.Load(context.Background(), func() profiles { return profiles{Profiles: map[string]*Profile{}} })
	if data.Profiles == nil {
		data.Profiles = map[string]*Profile{}
	}
	return &Store{doc: doc, data: data, now: time.Now}
}

// SetClock replaces the time source.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

func (s *Store) profile(userID, name string) *Profile {
	p := s.data.Profiles[userID]
	if p == nil {
		now := s.now()
		p = &Profile{
			ID:          userID,
			Name:        name,
			FirstSeen:   now,
			LastSeen:    now,
			Preferences: Preferences{Topics: []string{}, Style: "unknown", HumorLevel: "medium"},
		}
		s.data.Profiles[userID] = p
	}
	return p
}

// Touch records one interaction and learns topics and style from message.
func (s *Store) Touch(userID, name, message string) Profile {
	s.mu.Lock()
	p := s.profile(userID, name)
	p.LastSeen = s.now()
	p.InteractionCount++

	lower := strings.ToLower(message)
	for _, tc := range topicCues {
		if containsAny(lower, tc.cues) && !slices.Contains(p.Preferences.Topics, tc.topic) {
			p.Preferences.Topics = append(p.Preferences.Topics, tc.topic)
		}
	}
	if message == strings.ToUpper(message) && utf8.RuneCountInString(message) > 5 {
		p.Preferences.Style = "excited"
	}
	out := p.clone()
	s.mu.Unlock()

	s.persist()
	return out
}

// Learn stores a user-taught fact. Duplicates are ignored; the oldest fact
// is dropped past the cap.
func (s *Store) Learn(userID, name, fact string) {
	s.mu.Lock()
	p := s.profile(userID, name)
	if slices.Contains(p.LearnedFacts, fact) {
		s.mu.Unlock()
		return
	}
	p.LearnedFacts = append(p.LearnedFacts, fact)
	if len(p.LearnedFacts) > maxLearnedFacts {
		p.LearnedFacts = p.LearnedFacts[len(p.LearnedFacts)-maxLearnedFacts:]
	}
	s.mu.Unlock()
	s.persist()
}

// Ensure returns the profile of userID, creating an empty one if needed.
func (s *Store) Ensure(userID, name string) Profile {
	s.mu.Lock()
	_, known := s.data.Profiles[userID]
	out := s.profile(userID, name).clone()
	s.mu.Unlock()
	if !known {
		s.persist()
	}
	return out
}

func (s *Store) Get(userID string) (Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := s.data.Profiles[userID]
	if p == nil {
		return Profile{}, false
	}
	return p.clone(), true
}

// Count returns the number of known users.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data.Profiles)
}

func (s *Store) persist() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_ = s.doc.Save(context.Background(), s.data)
}

// Enrichment renders the mood, profile and trigger lines for one prompt.
func Enrichment(p Profile, userName string, mood temporal.Mood, hits []TriggerHit) string {
	var b strings.Builder
	if mood.PersonalityModifier != "" {
		fmt.Fprintf(&b, "\n[Humeur du moment: %s. %s]", mood.Mood, mood.PersonalityModifier)
	}
	if mood.SpecialEvent != "" {
		fmt.Fprintf(&b, "\n[Aujourd'hui: %s. %s]", mood.SpecialEvent, mood.SpecialPersonality)
	}
	if p.InteractionCount > 5 {
		fmt.Fprintf(&b, "\n[Tu connais %s depuis %d interactions.", userName, p.InteractionCount)
		if len(p.Preferences.Topics) > 0 {
			fmt.Fprintf(&b, " Intérêts: %s.", strings.Join(p.Preferences.Topics, ", "))
		}
		if len(p.LearnedFacts) > 0 {
			facts := p.LearnedFacts[max(0, len(p.LearnedFacts)-3):]
			fmt.Fprintf(&b, " Faits: %s.", strings.Join(facts, "; "))
		}
		b.WriteString("]")
	}
	if len(hits) > 0 {
		keywords := make([]string, 0, len(hits))
		for _, h := range hits {
			keywords = append(keywords, h.Keyword)
		}
		fmt.Fprintf(&b, "\n[Mots-clés détectés: %s]", strings.Join(keywords, ", "))
	}
	return b.String()
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
