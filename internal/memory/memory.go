// Package memory is the per-user long-term fact store. Every category is a
// bounded list; overflow evicts the oldest entry.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/keshon/compagnon/datastore"
	"github.com/keshon/compagnon/internal/storage"
)

// DocumentName is the datastore document holding all users' memories.
const DocumentName = "smart_memory"

type memories map[string]*UserMemory

// Store owns every UserMemory and persists the whole set on each mutation.
type Store struct {
	mu     sync.RWMutex
	doc    *storage.Document[memories]
	users  memories
	logger *log.Logger
	now    func() time.Time
}

// NewStore loads the memory document from backend.
func NewStore(backend datastore.Backend, logger *log.Logger) *Store {
	doc := storage.NewDocument[memories](backend, DocumentName, logger)
	users := doc.Load(context.Background(), func() memories { return memories{} })
	return &Store{doc: doc, users: users, logger: doc.Logger(), now: time.Now}
}

// SetClock replaces the time source.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

func (s *Store) user(userID, userName string) *UserMemory {
	m := s.users[userID]
	if m == nil {
		now := s.now()
		m = &UserMemory{UserID: userID, UserName: userName, Created: now, LastUpdate: now}
		s.users[userID] = m
	}
	if userName != "" {
		m.UserName = userName
	}
	return m
}

// Upsert adds item to category for userID and persists.
func (s *Store) Upsert(userID string, c Category, item Item) {
	s.mu.Lock()
	s.upsert(s.user(userID, ""), c, item)
	s.mu.Unlock()
	s.persist()
}

func (s *Store) upsert(m *UserMemory, c Category, item Item) {
	limit := Caps[c]
	at := item.At
	if at.IsZero() {
		at = s.now()
	}
	switch c {
	case Facts:
		m.Facts = appendUnique(m.Facts, item.Text, limit)
	case Preferences:
		m.Preferences = appendUnique(m.Preferences, item.Text, limit)
	case Dislikes:
		m.Dislikes = appendUnique(m.Dislikes, item.Text, limit)
	case People:
		m.People = appendUnique(m.People, item.Text, limit)
	case Expertise:
		m.Expertise = appendUnique(m.Expertise, item.Text, limit)
	case Interests:
		m.Interests = appendUnique(m.Interests, item.Text, limit)
	case Topics:
		m.Topics = pushFront(m.Topics, item.Text, limit)
	case Events:
		m.Events = appendCapped(m.Events, Event{Date: at, Event: item.Text}, limit)
	case Moods:
		m.Moods = appendCapped(m.Moods, Mood{Date: at, Emotion: item.Emotion, Context: item.Text}, limit)
	}
	m.LastUpdate = s.now()
}

// Apply runs the extraction battery on message and stores every candidate.
// It returns what was extracted.
func (s *Store) Apply(userID, userName, message string) Extraction {
	ex := Extract(message)

	s.mu.Lock()
	m := s.user(userID, userName)
	for _, c := range Categories() {
		for _, item := range ex[c] {
			s.upsert(m, c, item)
		}
	}
	s.mu.Unlock()

	s.persist()
	return ex
}

// Read returns up to n items of category, most recent first.
func (s *Store) Read(userID string, c Category, n int) []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := s.users[userID]
	if m == nil || n <= 0 {
		return nil
	}

	var items []Item
	switch c {
	case Topics:
		// already stored most-recent-first
		for _, t := range m.Topics {
			items = append(items, Item{Text: t})
		}
		return items[:min(n, len(items))]
	case Events:
		for _, e := range m.Events {
			items = append(items, Item{Text: e.Event, At: e.Date})
		}
	case Moods:
		for _, md := range m.Moods {
			items = append(items, Item{Text: md.Context, Emotion: md.Emotion, At: md.Date})
		}
	default:
		for _, t := range m.list(c) {
			items = append(items, Item{Text: t})
		}
	}
	items = items[max(0, len(items)-n):]
	slices.Reverse(items)
	return items
}

func (m *UserMemory) list(c Category) []string {
	switch c {
	case Facts:
		return m.Facts
	case Preferences:
		return m.Preferences
	case Dislikes:
		return m.Dislikes
	case People:
		return m.People
	case Topics:
		return m.Topics
	case Expertise:
		return m.Expertise
	case Interests:
		return m.Interests
	}
	return nil
}

// Get returns a copy of the user's memory.
func (s *Store) Get(userID string) (UserMemory, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := s.users[userID]
	if m == nil {
		return UserMemory{}, false
	}
	return m.clone(), true
}

// Facts returns the stored facts in insertion order.
func (s *Store) Facts(userID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m := s.users[userID]; m != nil {
		return append([]string(nil), m.Facts...)
	}
	return nil
}

// Interests returns the stored interest tags.
func (s *Store) Interests(userID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m := s.users[userID]; m != nil {
		return append([]string(nil), m.Interests...)
	}
	return nil
}

// Stats reports per-category counts. ok is false for unknown users.
func (s *Store) Stats(userID string) (Stats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := s.users[userID]
	if m == nil {
		return Stats{}, false
	}
	return m.stats(), true
}

// Reset forgets everything about userID.
func (s *Store) Reset(userID string) {
	s.mu.Lock()
	delete(s.users, userID)
	s.mu.Unlock()
	s.persist()
}

// Users returns the number of users with a memory.
func (s *Store) Users() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

func (s *Store) persist() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_ = s.doc.Save(context.Background(), s.users)
}

// appendUnique appends v unless present, then evicts from the head.
func appendUnique(list []string, v string, n int) []string {
	if v == "" || slices.Contains(list, v) {
		return list
	}
	list = append(list, v)
	if len(list) > n {
		list = list[len(list)-n:]
	}
	return list
}

// pushFront inserts v at the head unless present, then evicts from the tail.
func pushFront(list []string, v string, n int) []string {
	if v == "" || slices.Contains(list, v) {
		return list
	}
	list = slices.Insert(list, 0, v)
	if len(list) > n {
		list = list[:n]
	}
	return list
}

func appendCapped[T any](list []T, v T, n int) []T {
	list = append(list, v)
	if len(list) > n {
		list = list[len(list)-n:]
	}
	return list
}
