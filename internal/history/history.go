// Package history is the unbounded per-user message log. Old messages are
// compressed into summaries so the raw log stays around 200 entries.
package history

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/keshon/compagnon/datastore"
	"github.com/keshon/compagnon/internal/logging"
	"github.com/keshon/compagnon/internal/storage"
)

const (
	// DocumentPrefix prefixes every per-user log document.
	DocumentPrefix = "history/"

	compressAbove = 200
	compressCount = 100
)

type Message struct {
	ID        string            `json:"id"`
	Role      string            `json:"role"`
	Content   string            `json:"content"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type Tone string

const (
	ToneNeutral  Tone = "neutral"
	TonePositive Tone = "positive"
	ToneNegative Tone = "negative"
)

// Summary condenses one compressed window.
type Summary struct {
	Timestamp     time.Time `json:"timestamp"`
	MessageCount  int       `json:"messageCount"`
	TimeRange     TimeRange `json:"timeRange"`
	Topics        []string  `json:"topics"`
	KeyPhrases    []string  `json:"keyPhrases"`
	EmotionalTone Tone      `json:"emotionalTone"`
}

// Log is everything recorded for one user.
type Log struct {
	UserID        string     `json:"userId"`
	Messages      []Message  `json:"messages"`
	Summaries     []Summary  `json:"summaries"`
	TotalMessages int        `json:"totalMessages"`
	FirstMessage  *time.Time `json:"firstMessage"`
	LastMessage   *time.Time `json:"lastMessage"`
}

type Store struct {
	mu      sync.Mutex
	backend datastore.Backend
	logger  *log.Logger
	logs    map[string]*Log
	docs    map[string]*storage.Document[*Log]
	now     func() time.Time
}

func NewStore(backend datastore.Backend, logger *log.Logger) *Store {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Store{
		backend: backend,
		logger:  logger,
		logs:    make(map[string]*Log),
		docs:    make(map[string]*storage.Document[*Log]),
		now:     time.Now,
	}
}

// SetClock replaces the time source.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

func (s *Store) load(userID string) (*Log, *storage.Document[*Log]) {
	if l, ok := s.logs[userID]; ok {
		return l, s.docs[userID]
	}
	doc := storage.NewDocument[*Log](s.backend, DocumentPrefix+userID, s.logger)
	l := doc.Load(context.Background(), func() *Log { return &Log{UserID: userID} })
	s.logs[userID] = l
	s.docs[userID] = doc
	return l, doc
}

// Append records one message and compresses the oldest window when the raw
// log grows past its threshold.
func (s *Store) Append(userID, role, content string, metadata map[string]string) Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, doc := s.load(userID)
	now := s.now()
	msg := Message{ID: uuid.NewString(), Role: role, Content: content, Timestamp: now, Metadata: metadata}

	l.Messages = append(l.Messages, msg)
	l.TotalMessages++
	l.LastMessage = &now
	if l.FirstMessage == nil {
		first := now
		l.FirstMessage = &first
	}

	if len(l.Messages) > compressAbove {
		window := l.Messages[:compressCount]
		l.Summaries = append(l.Summaries, Compress(window, now))
		l.Messages = append([]Message(nil), l.Messages[compressCount:]...)
		s.logger.Info("compressed history", "user", userID, "messages", compressCount)
	}

	_ = doc.Save(context.Background(), l)
	return msg
}

// Get returns a copy of the user's log.
func (s *Store) Get(userID string) Log {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, _ := s.load(userID)
	c := *l
	c.Messages = append([]Message(nil), l.Messages...)
	c.Summaries = append([]Summary(nil), l.Summaries...)
	return c
}

var (
	positiveRe = regexp.MustCompile(`\b(heureux|content|cool|super|génial|excellent)\b`)
	negativeRe = regexp.MustCompile(`\b(triste|nul|merde|chiant|horrible)\b`)
	keyPhrase  = regexp.MustCompile(`[?!]`)
)

// Compress reduces messages to topics, key phrases and a majority tone.
func Compress(messages []Message, now time.Time) Summary {
	sum := Summary{
		Timestamp:     now,
		MessageCount:  len(messages),
		TimeRange:     TimeRange{Start: now, End: now},
		Topics:        []string{},
		KeyPhrases:    []string{},
		EmotionalTone: ToneNeutral,
	}
	if len(messages) > 0 {
		sum.TimeRange = TimeRange{Start: messages[0].Timestamp, End: messages[len(messages)-1].Timestamp}
	}

	seen := map[string]bool{}
	var pos, votes int
	for _, m := range messages {
		content := strings.ToLower(m.Content)
		for _, w := range strings.Fields(content) {
			if utf8.RuneCountInString(w) > 4 && !seen[w] {
				seen[w] = true
				if len(sum.Topics) < 20 {
					sum.Topics = append(sum.Topics, w)
				}
			}
		}

		switch {
		case positiveRe.MatchString(content):
			pos++
			votes++
		case negativeRe.MatchString(content):
			votes++
		}

		if keyPhrase.MatchString(content) && len(sum.KeyPhrases) < 10 {
			sum.KeyPhrases = append(sum.KeyPhrases, cut(m.Content, 100))
		}
	}

	if votes > 0 {
		if float64(pos) > float64(votes)/2 {
			sum.EmotionalTone = TonePositive
		} else {
			sum.EmotionalTone = ToneNegative
		}
	}
	return sum
}

// BuildContext renders statistics, the last summaries and the recent tail of
// the log.
func (s *Store) BuildContext(userID, userName string) string {
	l := s.Get(userID)
	now := s.now()

	var b strings.Builder
	rule := strings.Repeat("━", 40)
	fmt.Fprintf(&b, "\n📚 CONTEXTE MASSIF DE %s:\n%s\n", strings.ToUpper(userName), rule)
	b.WriteString("📊 STATISTIQUES:\n")
	fmt.Fprintf(&b, "• Total messages: %d\n", l.TotalMessages)
	fmt.Fprintf(&b, "• Messages en mémoire: %d\n", len(l.Messages))
	fmt.Fprintf(&b, "• Périodes archivées: %d\n", len(l.Summaries))
	if l.FirstMessage != nil {
		fmt.Fprintf(&b, "• Relation depuis: %d jour(s)\n", int(now.Sub(*l.FirstMessage).Hours()/24))
	}

	if len(l.Summaries) > 0 {
		b.WriteString("\n📖 RÉSUMÉ DES CONVERSATIONS PASSÉES:\n")
		for i, sum := range l.Summaries[max(0, len(l.Summaries)-3):] {
			fmt.Fprintf(&b, "\nPériode %d (%s):\n", i+1, sum.Timestamp.Format("02/01/2006"))
			fmt.Fprintf(&b, "• Sujets discutés: %s\n", strings.Join(sum.Topics[:min(5, len(sum.Topics))], ", "))
			fmt.Fprintf(&b, "• Ton émotionnel: %s\n", sum.EmotionalTone)
			if len(sum.KeyPhrases) > 0 {
				fmt.Fprintf(&b, "• Moments clés: \"%s\"\n", sum.KeyPhrases[0])
			}
		}
	}

	recent := l.Messages[max(0, len(l.Messages)-50):]
	fmt.Fprintf(&b, "\n💬 CONVERSATION RÉCENTE (%d derniers messages):\n", len(recent))
	for _, m := range recent {
		who := "Bot"
		if m.Role == "user" {
			who = userName
		}
		preview := m.Content
		if utf8.RuneCountInString(preview) > 150 {
			preview = cut(preview, 150) + "..."
		}
		fmt.Fprintf(&b, "%s: %s\n", who, preview)
	}
	b.WriteString(rule + "\n")
	return b.String()
}

// Hit is one search result.
type Hit struct {
	Message Message `json:"message"`
	Score   int     `json:"score"`
}

// Search scores raw messages by the number of query words they contain.
// The scan starts from the newest message and stops after limit hits; results
// are ordered by score, then recency.
func (s *Store) Search(userID, query string, limit int) []Hit {
	l := s.Get(userID)

	var words []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if utf8.RuneCountInString(w) > 2 {
			words = append(words, w)
		}
	}

	var hits []Hit
	for i := len(l.Messages) - 1; i >= 0 && len(hits) < limit; i-- {
		content := strings.ToLower(l.Messages[i].Content)
		score := 0
		for _, w := range words {
			if strings.Contains(content, w) {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, Hit{Message: l.Messages[i], Score: score})
		}
	}

	sort.SliceStable(hits, func(a, b int) bool {
		if hits[a].Score != hits[b].Score {
			return hits[a].Score > hits[b].Score
		}
		return hits[a].Message.Timestamp.After(hits[b].Message.Timestamp)
	})
	return hits
}

func cut(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
