// Package moderation gates incoming messages with a per-user cooldown and a
// sliding-window spam counter.
package moderation

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/patrickmn/go-cache"

	"github.com/keshon/compagnon/datastore"
	"github.com/keshon/compagnon/internal/storage"
)

// DocumentName is the datastore document holding the rules.
const DocumentName = "moderation_rules"

type CooldownRule struct {
	Enabled bool   `json:"enabled"`
	Seconds int    `json:"seconds"`
	Message string `json:"message"`
}

type SpamRule struct {
	Limit         int    `json:"limit"`
	WindowSeconds int    `json:"window_seconds"`
	Message       string `json:"message"`
}

type Rules struct {
	Cooldown CooldownRule `json:"cooldown"`
	Spam     SpamRule     `json:"spam"`
}

func DefaultRules() Rules {
	return Rules{
		Cooldown: CooldownRule{Enabled: true, Seconds: 3, Message: "⏱️ Attends encore {seconds}s avant de me relancer !"},
		Spam:     SpamRule{Limit: 5, WindowSeconds: 10, Message: "Doucement sur les messages !"},
	}
}

// LoadRules reads the rules document, seeding it with DefaultRules when absent.
func LoadRules(ctx context.Context, backend datastore.Backend, logger *log.Logger) Rules {
	doc := storage.NewDocument[Rules](backend, DocumentName, logger)
	if _, err := backend.Load(ctx, DocumentName); errors.Is(err, datastore.ErrNotFound) {
		rules := DefaultRules()
		_ = doc.Save(ctx, rules)
		return rules
	}
	return doc.Load(ctx, DefaultRules)
}

// Decision is the outcome of one gate check.
type Decision struct {
	Allowed   bool
	Remaining int
	Message   string
}

// Gate holds the in-memory moderation state. It is not persisted.
type Gate struct {
	rules Rules
	now   func() time.Time

	lastCall *cache.Cache

	mu     sync.Mutex
	recent map[string][]time.Time
}

func NewGate(rules Rules) *Gate {
	ttl := time.Duration(max(rules.Cooldown.Seconds, 1)) * time.Second
	return &Gate{
		rules:    rules,
		now:      time.Now,
		lastCall: cache.New(2*ttl, 10*ttl),
		recent:   make(map[string][]time.Time),
	}
}

// SetClock replaces the time source.
func (g *Gate) SetClock(now func() time.Time) { g.now = now }

// Rules returns the active rules.
func (g *Gate) Rules() Rules { return g.rules }

// Allow applies the cooldown. An allowed call restarts the user's cooldown.
func (g *Gate) Allow(userID string) Decision {
	if !g.rules.Cooldown.Enabled {
		return Decision{Allowed: true}
	}

	now := g.now()
	cooldown := time.Duration(g.rules.Cooldown.Seconds) * time.Second
	if v, ok := g.lastCall.Get(userID); ok {
		elapsed := now.Sub(v.(time.Time))
		if elapsed < cooldown {
			remaining := int(math.Ceil((cooldown - elapsed).Seconds()))
			msg := strings.ReplaceAll(g.rules.Cooldown.Message, "{seconds}", strconv.Itoa(remaining))
			return Decision{Allowed: false, Remaining: remaining, Message: msg}
		}
	}

	g.lastCall.Set(userID, now, cache.DefaultExpiration)
	return Decision{Allowed: true}
}

// CheckSpam records one message for userID and reports whether the user
// went over the limit inside the window.
func (g *Gate) CheckSpam(userID string) Decision {
	now := g.now()
	window := time.Duration(g.rules.Spam.WindowSeconds) * time.Second

	g.mu.Lock()
	defer g.mu.Unlock()

	kept := g.recent[userID][:0]
	for _, t := range g.recent[userID] {
		if now.Sub(t) < window {
			kept = append(kept, t)
		}
	}
	kept = append(kept, now)
	g.recent[userID] = kept

	if len(kept) > g.rules.Spam.Limit {
		return Decision{Allowed: false, Message: g.rules.Spam.Message}
	}
	return Decision{Allowed: true}
}
