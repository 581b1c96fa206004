// Package conversation keeps the short-term per-user transcript. Overflowing
// turns are folded into a bounded rolling summary.
package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/keshon/compagnon/datastore"
	"github.com/keshon/compagnon/internal/config"
	"github.com/keshon/compagnon/internal/storage"
)

// DocumentName is the datastore document holding every transcript.
const DocumentName = "conversations"

// MaxSummary bounds the rolling summary, in characters.
const MaxSummary = 800

type Role string

const (
	User      Role = "user"
	Assistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// State is one user's transcript.
type State struct {
	Messages []Message `json:"messages"`
	Summary  string    `json:"summary"`
}

type Store struct {
	mu     sync.RWMutex
	doc    *storage.Document[map[string]*State]
	states map[string]*State
	limit  int
}

// NewStore loads persisted transcripts. limit is the initial memory depth.
func NewStore(backend datastore.Backend, limit int, logger *log.Logger) *Store {
	doc := storage.NewDocument[map[string]*State](backend, DocumentName, logger)
	states := doc.Load(context.Background(), func() map[string]*State { return map[string]*State{} })
	return &Store{doc: doc, states: states, limit: limit}
}

func (s *Store) state(userID string) *State {
	st := s.states[userID]
	if st == nil {
		st = &State{}
		s.states[userID] = st
	}
	return st
}

// Push appends a turn and folds the oldest overflow into the summary.
func (s *Store) Push(userID string, role Role, content string) {
	s.mu.Lock()
	st := s.state(userID)
	st.Messages = append(st.Messages, Message{Role: role, Content: content})
	if n := len(st.Messages); n > s.limit {
		fold := n - s.limit + (s.limit+1)/2
		st.Summary = summarize(st.Messages[:fold], st.Summary)
		st.Messages = append([]Message(nil), st.Messages[fold:]...)
	}
	s.mu.Unlock()
	s.persist()
}

// Recent returns the retained turns, oldest first.
func (s *Store) Recent(userID string) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.states[userID]
	if st == nil {
		return nil
	}
	msgs := st.Messages[max(0, len(st.Messages)-s.limit):]
	return append([]Message(nil), msgs...)
}

func (s *Store) Summary(userID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st := s.states[userID]; st != nil {
		return st.Summary
	}
	return ""
}

func (s *Store) Len(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st := s.states[userID]; st != nil {
		return len(st.Messages)
	}
	return 0
}

// Reset clears the user's transcript and summary.
func (s *Store) Reset(userID string) {
	s.mu.Lock()
	s.states[userID] = &State{}
	s.mu.Unlock()
	s.persist()
}

func (s *Store) Limit() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.limit
}

// SetLimit changes the memory depth for every user. Existing transcripts
// shrink on their next push.
func (s *Store) SetLimit(n int) error {
	if n < config.MinMemoryLength || n > config.MaxMemoryLength {
		return fmt.Errorf("memory length must be between %d and %d, got %d", config.MinMemoryLength, config.MaxMemoryLength, n)
	}
	s.mu.Lock()
	s.limit = n
	s.mu.Unlock()
	return nil
}

func (s *Store) persist() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_ = s.doc.Save(context.Background(), s.states)
}

// summarize condenses up to 8 turns and chains them onto prev.
func summarize(msgs []Message, prev string) string {
	var parts []string
	for _, m := range msgs {
		if m.Content == "" {
			continue
		}
		switch m.Role {
		case User:
			parts = append(parts, "U:"+head(m.Content, 60))
		case Assistant:
			parts = append(parts, "B:"+head(m.Content, 60))
		}
		if len(parts) >= 8 {
			break
		}
	}
	condensed := strings.Join(parts, " | ")
	if prev != "" {
		return tail(prev+" || "+condensed, MaxSummary)
	}
	return head(condensed, MaxSummary)
}

func head(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func tail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
