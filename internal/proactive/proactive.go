// Package proactive decides when the bot may open a conversation in a quiet
// channel, and when it may answer a message nobody addressed to it.
package proactive

import (
	"context"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/keshon/compagnon/datastore"
	"github.com/keshon/compagnon/internal/storage"
	"github.com/keshon/compagnon/internal/temporal"
)

// DocumentName is the datastore document holding the engagement state.
const DocumentName = "proactive_state"

const (
	maxActiveUsers = 10
	maxHistory     = 50
	maxSnippet     = 100
)

// Config holds the engagement limits.
type Config struct {
	MinSilence        time.Duration
	MaxSilence        time.Duration
	Cooldown          time.Duration
	MaxDaily          int
	MinActiveUsers    int
	ReactionThreshold float64
}

// DefaultConfig: 2h to 6h of silence, 3h apart, 4 a day, 2 users seen in
// the last day.
func DefaultConfig() Config {
	return Config{
		MinSilence:        120 * time.Minute,
		MaxSilence:        360 * time.Minute,
		Cooldown:          3 * time.Hour,
		MaxDaily:          4,
		MinActiveUsers:    2,
		ReactionThreshold: 0.3,
	}
}

type ChannelActivity struct {
	LastMessage  time.Time `json:"lastMessage"`
	MessageCount int       `json:"messageCount"`
	ActiveUsers  []string  `json:"activeUsers"`
}

type Entry struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	ChannelID  string    `json:"channelId"`
	Message    string    `json:"message"`
	DailyCount int       `json:"dailyCount"`
}

type state struct {
	LastProactive   time.Time                   `json:"lastProactiveMessage"`
	DailyCount      int                         `json:"dailyCount"`
	LastResetDate   string                      `json:"lastResetDate"`
	ChannelActivity map[string]*ChannelActivity `json:"channelActivity"`
	UserLastSeen    map[string]time.Time        `json:"userLastSeen"`
	History         []Entry                     `json:"proactiveHistory"`
}

// Check is the outcome of CanSend. Reason names the first failed condition.
type Check struct {
	Allowed        bool
	Reason         string
	SilenceMinutes int
	ActiveUsers24h int
	DailyCount     int
}

// State tracks channel activity and the bot's own proactive messages.
type State struct {
	mu     sync.Mutex
	cfg    Config
	doc    *storage.Document[*state]
	st     *state
	now    func() time.Time
	chance func() float64
	logger *log.Logger
}

// New loads the state document from backend.
func New(backend datastore.Backend, cfg Config, logger *log.Logger) *State {
	doc := storage.NewDocument[*state](backend, DocumentName, logger)
	s := &State{cfg: cfg, doc: doc, now: time.Now, chance: rand.Float64, logger: doc.Logger()}
	s.st = doc.Load(context.Background(), func() *state {
		return &state{LastResetDate: s.now().Format(time.DateOnly)}
	})
	if s.st.ChannelActivity == nil {
		s.st.ChannelActivity = map[string]*ChannelActivity{}
	}
	if s.st.UserLastSeen == nil {
		s.st.UserLastSeen = map[string]time.Time{}
	}
	return s
}

// SetClock replaces the time source.
func (s *State) SetClock(now func() time.Time) { s.now = now }

// SetChance replaces the [0,1) source used for spontaneous reactions.
func (s *State) SetChance(f func() float64) { s.chance = f }

// Config returns the limits in force.
func (s *State) Config() Config { return s.cfg }

func (s *State) resetDaily(now time.Time) {
	today := now.Format(time.DateOnly)
	if s.st.LastResetDate != today {
		s.st.DailyCount = 0
		s.st.LastResetDate = today
	}
}

// RecordActivity notes a user message in channelID.
func (s *State) RecordActivity(channelID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.resetDaily(now)

	ch := s.st.ChannelActivity[channelID]
	if ch == nil {
		ch = &ChannelActivity{}
		s.st.ChannelActivity[channelID] = ch
	}
	ch.LastMessage = now
	ch.MessageCount++
	if !lo.Contains(ch.ActiveUsers, userID) {
		ch.ActiveUsers = append(ch.ActiveUsers, userID)
	}
	if len(ch.ActiveUsers) > maxActiveUsers {
		ch.ActiveUsers = ch.ActiveUsers[len(ch.ActiveUsers)-maxActiveUsers:]
	}
	s.st.UserLastSeen[userID] = now
	s.save()
}

// CanSend evaluates every condition for an unsolicited message in channelID.
func (s *State) CanSend(channelID string) Check {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.resetDaily(now)

	c := Check{DailyCount: s.st.DailyCount}
	c.ActiveUsers24h = len(lo.PickBy(s.st.UserLastSeen, func(_ string, seen time.Time) bool {
		return now.Sub(seen) < 24*time.Hour
	}))

	ch := s.st.ChannelActivity[channelID]
	if ch != nil {
		c.SilenceMinutes = int(now.Sub(ch.LastMessage).Minutes())
	}
	silence := ch != nil && now.Sub(ch.LastMessage) >= s.cfg.MinSilence && now.Sub(ch.LastMessage) <= s.cfg.MaxSilence

	switch {
	case s.st.DailyCount >= s.cfg.MaxDaily:
		c.Reason = "limite quotidienne atteinte"
	case now.Sub(s.st.LastProactive) <= s.cfg.Cooldown:
		c.Reason = "cooldown en cours"
	case ch == nil:
		c.Reason = "canal non enregistré"
	case !silence:
		c.Reason = "silence hors fenêtre"
	case c.ActiveUsers24h < s.cfg.MinActiveUsers:
		c.Reason = "pas assez d'utilisateurs actifs"
	default:
		c.Allowed = true
	}
	return c
}

// RecordProactive notes that message was sent to channelID.
func (s *State) RecordProactive(channelID, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.resetDaily(now)

	s.st.LastProactive = now
	s.st.DailyCount++
	snippet := []rune(message)
	s.st.History = append(s.st.History, Entry{
		ID:         uuid.NewString(),
		Timestamp:  now,
		ChannelID:  channelID,
		Message:    string(snippet[:min(maxSnippet, len(snippet))]),
		DailyCount: s.st.DailyCount,
	})
	if len(s.st.History) > maxHistory {
		s.st.History = s.st.History[len(s.st.History)-maxHistory:]
	}
	s.save()
}

// Forget drops a channel that can no longer be reached.
func (s *State) Forget(channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.ChannelActivity[channelID]; !ok {
		return
	}
	delete(s.st.ChannelActivity, channelID)
	s.save()
}

// Channels lists the tracked channel IDs.
func (s *State) Channels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Keys(s.st.ChannelActivity)
}

// ActiveUsers returns up to the last n active users of channelID.
func (s *State) ActiveUsers(channelID string, n int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := s.st.ChannelActivity[channelID]
	if ch == nil {
		return nil
	}
	return append([]string(nil), ch.ActiveUsers[max(0, len(ch.ActiveUsers)-n):]...)
}

// History returns a copy of the proactive message log.
func (s *State) History() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.st.History...)
}

func (s *State) save() {
	_ = s.doc.Save(context.Background(), s.st)
}

func timeOfDay(hour int) string {
	switch {
	case hour >= 6 && hour < 12:
		return "C'est le matin"
	case hour >= 12 && hour < 18:
		return "C'est l'après-midi"
	case hour >= 18 && hour < 23:
		return "C'est la soirée"
	}
	return "C'est la nuit"
}

const initiationRules = `Tu dois INITIER une conversation de manière naturelle et engageante:
- Pose une question intéressante basée sur ce que tu sais des utilisateurs
- OU partage une réflexion/observation pertinente
- OU mentionne un sujet qui pourrait les intéresser
- Reste naturel, pas trop enthousiaste
- IMPORTANT: Garde un ton décontracté, français familier
- IMPORTANT: Ne ping (@) personne directement, parle au canal
- Maximum 2-3 phrases

Exemples de bonnes initiations:
- "Quelqu'un a vu les nouvelles sur [sujet tech/gaming pertinent] ?"
- "Je réfléchissais à [concept intéressant], vous en pensez quoi ?"
- "Bon, personne pour parler de [sujet d'intérêt commun] ?"
- "Tiens, [observation basée sur mémoire utilisateur]"

ÉVITE:
- Les "Bonjour tout le monde !" artificiels
- Les "Comment ça va ?" génériques
- Les questions fermées oui/non
- D'être trop formel ou robotique`

// Prompt builds the conversation opener request for a quiet channel.
// memorySummary is the long-term memory of one active user and may be empty.
func Prompt(now time.Time, mood temporal.Mood, memorySummary string) string {
	var b strings.Builder
	b.WriteString(timeOfDay(now.Hour()))
	b.WriteString(". Le canal Discord est silencieux depuis un moment.")
	fmt.Fprintf(&b, "\nContexte temporel: %s", mood)
	if memorySummary != "" {
		fmt.Fprintf(&b, "\n\nMémoire sur un utilisateur actif:\n%s", memorySummary)
	}
	b.WriteString("\n\n")
	b.WriteString(initiationRules)
	return b.String()
}

var interesting = []*regexp.Regexp{
	regexp.MustCompile(`\?$`),
	regexp.MustCompile(`vous pensez|tu penses|avis`),
	regexp.MustCompile(`intéressant|cool|génial`),
	regexp.MustCompile(`merde|problème|erreur`),
}

// ShouldReactSpontaneously reports whether the bot answers a message that was
// not addressed to it. Trigger keywords always qualify; otherwise an
// interesting message qualifies with probability ReactionThreshold.
func (s *State) ShouldReactSpontaneously(content string, hasTrigger bool) bool {
	if hasTrigger {
		return true
	}
	if s.chance() >= s.cfg.ReactionThreshold {
		return false
	}
	lower := strings.ToLower(content)
	return lo.SomeBy(interesting, func(re *regexp.Regexp) bool { return re.MatchString(lower) })
}

// Stats renders the state for the stats command.
func (s *State) Stats() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()

	last := "jamais"
	if !s.st.LastProactive.IsZero() {
		last = fmt.Sprintf("il y a %dmin", int(now.Sub(s.st.LastProactive).Minutes()))
	}
	return fmt.Sprintf(`📊 Stats proactives:
- Messages proactifs aujourd'hui: %d/%d
- Dernier message proactif: %s
- Canaux surveillés: %d
- Utilisateurs connus: %d
- Historique: %d messages`,
		s.st.DailyCount, s.cfg.MaxDaily, last, len(s.st.ChannelActivity), len(s.st.UserLastSeen), len(s.st.History))
}

// Snapshot is the machine-readable form of Stats.
type Snapshot struct {
	DailyCount    int        `json:"daily_count"`
	MaxDaily      int        `json:"max_daily"`
	LastProactive *time.Time `json:"last_proactive,omitempty"`
	Channels      int        `json:"channels"`
	KnownUsers    int        `json:"known_users"`
	History       int        `json:"history"`
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		DailyCount: s.st.DailyCount,
		MaxDaily:   s.cfg.MaxDaily,
		Channels:   len(s.st.ChannelActivity),
		KnownUsers: len(s.st.UserLastSeen),
		History:    len(s.st.History),
	}
	if !s.st.LastProactive.IsZero() {
		t := s.st.LastProactive
		snap.LastProactive = &t
	}
	return snap
}
