package reasoning

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/keshon/compagnon/datastore"
	"github.com/keshon/compagnon/internal/storage"
)

// CacheDocument is the datastore document holding recorded patterns.
const CacheDocument = "reasoning_cache"

const maxPatterns = 100

// Pattern records one message that needed reasoning.
type Pattern struct {
	Timestamp  time.Time  `json:"timestamp"`
	Message    string     `json:"message"`
	Intent     string     `json:"intent"`
	Complexity Complexity `json:"complexity"`
	UserState  UserState  `json:"user_state"`
}

type cache struct {
	Patterns []Pattern `json:"patterns"`
}

// Analysis bundles every reasoning artifact for one message.
type Analysis struct {
	Intent        Intent
	Inferences    Inferences
	Decomposition Decomposition
	Context       string

	// Warnings is the contradiction block alone. It is set even when the
	// full Context is not used.
	Warnings string

	// UseAdvanced asks the inference client for the larger budget.
	UseAdvanced bool
}

type Stats struct {
	TotalPatterns int                `json:"total_patterns"`
	Complexity    map[Complexity]int `json:"complexity_distribution"`
	Intents       map[string]int     `json:"intent_distribution"`
	Recent        []Pattern          `json:"recent_patterns"`
}

type Engine struct {
	mu     sync.Mutex
	doc    *storage.Document[cache]
	cache  cache
	logger *log.Logger
	now    func() time.Time
}

func NewEngine(backend datastore.Backend, logger *log.Logger) *Engine {
	doc := storage.NewDocument[cache](backend, CacheDocument, logger)
	return &Engine{
		doc:    doc,
		cache:  doc.Load(context.Background(), func() cache { return cache{} }),
		logger: doc.Logger(),
		now:    time.Now,
	}
}

// SetClock replaces the time source.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// Analyze classifies message, infers against view and renders the context
// block. Messages that need reasoning are recorded in the pattern cache.
func (e *Engine) Analyze(message string, view MemoryView) Analysis {
	in := Classify(message)
	inf := Infer(message, view)
	d := Decompose(message, in)

	a := Analysis{
		Intent:        in,
		Inferences:    inf,
		Decomposition: d,
		Context:       BuildContext(in, inf, d),
		Warnings:      ContradictionBlock(inf.Contradictions),
		UseAdvanced:   in.RequiresReasoning || in.Complexity != Simple,
	}

	e.logger.Debug("analyzed",
		"intent", in.Label(),
		"complexity", in.Complexity,
		"state", inf.UserState,
		"needs", len(inf.ImplicitNeeds),
		"contradictions", len(inf.Contradictions),
	)
	for _, c := range inf.Contradictions {
		e.logger.Warn("contradiction detected", "type", c.Type, "memorized", c.Memorized)
	}

	if in.RequiresReasoning {
		e.record(Pattern{
			Timestamp:  e.now(),
			Message:    cut(message, 100),
			Intent:     in.Label(),
			Complexity: in.Complexity,
			UserState:  inf.UserState,
		})
	}
	return a
}

func (e *Engine) record(p Pattern) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache.Patterns = append(e.cache.Patterns, p)
	if n := len(e.cache.Patterns); n > maxPatterns {
		e.cache.Patterns = e.cache.Patterns[n-maxPatterns:]
	}
	_ = e.doc.Save(context.Background(), e.cache)
}

// Stats returns the complexity and intent distributions over the cache.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := Stats{
		TotalPatterns: len(e.cache.Patterns),
		Complexity:    map[Complexity]int{},
		Intents:       map[string]int{},
	}
	for _, p := range e.cache.Patterns {
		s.Complexity[p.Complexity]++
		s.Intents[p.Intent]++
	}
	s.Recent = append([]Pattern(nil), e.cache.Patterns[max(0, len(e.cache.Patterns)-10):]...)
	return s
}

func cut(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
