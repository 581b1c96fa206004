// Package mind runs the chat pipeline: moderation, addressing, commands,
// memory upkeep, prompt assembly and inference. It knows nothing about
// Discord; adapters translate events into Incoming and Outcome back.
package mind

import (
	"context"
	"errors"
	"runtime/debug"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/keshon/compagnon/internal/ai"
	"github.com/keshon/compagnon/internal/command"
	"github.com/keshon/compagnon/internal/conversation"
	"github.com/keshon/compagnon/internal/history"
	"github.com/keshon/compagnon/internal/knowledge"
	"github.com/keshon/compagnon/internal/logging"
	"github.com/keshon/compagnon/internal/memory"
	"github.com/keshon/compagnon/internal/moderation"
	"github.com/keshon/compagnon/internal/proactive"
	"github.com/keshon/compagnon/internal/profile"
	"github.com/keshon/compagnon/internal/prompt"
	"github.com/keshon/compagnon/internal/reasoning"
	"github.com/keshon/compagnon/internal/temporal"
	"github.com/keshon/compagnon/pkg/cmd"
)

const (
	emptyMessage = "Salut ! Tu voulais me dire quelque chose ?"
	crashReply   = "Oups ! J'ai eu un petit bug... 🤔 Peux-tu réessayer ?"
)

// Kind says how a message left the pipeline.
type Kind string

const (
	Ignored  Kind = "ignored"
	Spam     Kind = "spam"
	Command  Kind = "command"
	Cooldown Kind = "cooldown"
	Replied  Kind = "replied"
	Failed   Kind = "failed"
	Crashed  Kind = "crashed"
)

// Incoming is one user message as seen by the engine.
type Incoming struct {
	AuthorID   string
	AuthorName string
	ChannelID  string
	GuildID    string
	Content    string

	// Mentions are the other users mentioned, as "@name".
	Mentions    []string
	MentionsBot bool
	BotID       string
	IsDM        bool

	// OnThinking, if set, is called right before inference starts.
	OnThinking func()
}

// Outcome is what the adapter should do. Replies are already split to the
// platform limit.
type Outcome struct {
	Kind     Kind
	Replies  []string
	Reaction string
}

// Metrics receives pipeline counters. Implemented by status.Metrics.
type Metrics interface {
	Message(outcome string)
	InferenceFailure(kind string)
	ProactiveSent()
	Command(name string)
}

type nopMetrics struct{}

func (nopMetrics) Message(string)          {}
func (nopMetrics) InferenceFailure(string) {}
func (nopMetrics) ProactiveSent()          {}
func (nopMetrics) Command(string)          {}

// Settings are the knobs of the pipeline itself.
type Settings struct {
	Prefix               string
	Personality          string
	SpontaneousReactions bool
	BotName              string
}

// Stores groups every stateful collaborator.
type Stores struct {
	Conversations *conversation.Store
	Memory        *memory.Store
	History       *history.Store
	Knowledge     *knowledge.Base
	Profiles      *profile.Store
	Catalog       *profile.Catalog
	Reasoning     *reasoning.Engine
	Proactive     *proactive.State
	Gate          *moderation.Gate
	Temporal      temporal.Rules
}

// Engine wires the stores, the command registry and the provider.
type Engine struct {
	settings Settings
	stores   Stores
	provider ai.Provider
	commands *cmd.Registry
	metrics  Metrics
	logger   *log.Logger
	now      func() time.Time
}

// NewEngine builds an engine. metrics may be nil.
func NewEngine(settings Settings, stores Stores, provider ai.Provider, metrics Metrics, logger *log.Logger) *Engine {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if logger == nil {
		logger = logging.Discard()
	}
	e := &Engine{
		settings: settings,
		stores:   stores,
		provider: provider,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
	e.commands = command.NewRegistry(&command.Deps{
		Conversations: stores.Conversations,
		Memory:        stores.Memory,
		Profiles:      stores.Profiles,
		Catalog:       stores.Catalog,
		Knowledge:     stores.Knowledge,
		History:       stores.History,
		Proactive:     stores.Proactive,
		Mood:          e.Mood,
		Prefix:        settings.Prefix,
		BotName:       settings.BotName,
	}, logger.WithPrefix("command"), metrics)
	return e
}

// SetClock replaces the time source used for moods.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// Mood resolves the temporal mood for now.
func (e *Engine) Mood() temporal.Mood { return e.stores.Temporal.Resolve(e.now()) }

// Stores exposes the collaborators, e.g. for the status server.
func (e *Engine) Stores() Stores { return e.stores }

// Commands returns the command registry.
func (e *Engine) Commands() *cmd.Registry { return e.commands }

// HandleMessage runs one message through the pipeline. It never panics.
func (e *Engine) HandleMessage(ctx context.Context, in Incoming) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("pipeline panic", "user", in.AuthorName, "panic", r, "stack", string(debug.Stack()))
			out = Outcome{Kind: Crashed, Replies: []string{crashReply}}
		}
		e.metrics.Message(string(out.Kind))
	}()

	s := e.stores
	if !in.IsDM {
		s.Proactive.RecordActivity(in.ChannelID, in.AuthorID)
	}

	if d := s.Gate.CheckSpam(in.AuthorID); !d.Allowed {
		e.logger.Warn("spam detected", "user", in.AuthorName)
		return Outcome{Kind: Spam, Replies: []string{d.Message}}
	}

	hasPrefix := strings.HasPrefix(in.Content, e.settings.Prefix)
	spontaneous := false
	if !in.MentionsBot && !in.IsDM && !hasPrefix && e.settings.SpontaneousReactions {
		spontaneous = s.Proactive.ShouldReactSpontaneously(in.Content, s.Catalog.HasTrigger(in.Content))
	}
	e.logger.Debug("message", "user", in.AuthorName, "mention", in.MentionsBot, "dm", in.IsDM, "prefix", hasPrefix, "spontaneous", spontaneous)
	if !in.MentionsBot && !in.IsDM && !hasPrefix && !spontaneous {
		return Outcome{Kind: Ignored}
	}

	if hasPrefix {
		caller := &command.Context{UserID: in.AuthorID, UserName: in.AuthorName, ChannelID: in.ChannelID}
		handled, err := command.Dispatch(ctx, e.commands, e.settings.Prefix, in.Content, caller)
		if handled {
			if err != nil && !errors.Is(err, command.ErrInvalidArgument) {
				e.logger.Error("command error", "err", err)
			}
			return Outcome{Kind: Command, Replies: chunkAll(caller.Replies())}
		}
	}

	if d := s.Gate.Allow(in.AuthorID); !d.Allowed {
		e.logger.Info("cooldown", "user", in.AuthorName, "remaining", d.Remaining)
		return Outcome{Kind: Cooldown, Replies: []string{d.Message}}
	}

	message := e.clean(in, hasPrefix)
	reply, hits, ok := e.respond(ctx, in, message)

	out = Outcome{Kind: Replied, Replies: prompt.Chunk(reply)}
	if !ok {
		out.Kind = Failed
	}
	if len(hits) > 0 {
		out.Reaction = hits[0].Emoji
	}
	return out
}

// clean strips the bot mention and the prefix.
func (e *Engine) clean(in Incoming, hasPrefix bool) string {
	msg := in.Content
	if in.MentionsBot && in.BotID != "" {
		msg = strings.NewReplacer("<@"+in.BotID+">", "", "<@!"+in.BotID+">", "").Replace(msg)
	}
	if hasPrefix {
		msg = strings.TrimPrefix(msg, e.settings.Prefix)
	}
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return emptyMessage
	}
	return msg
}

// respond updates every memory layer, builds the prompt and asks the model.
// ok is false when the reply is a canned fallback.
func (e *Engine) respond(ctx context.Context, in Incoming, message string) (reply string, hits []profile.TriggerHit, ok bool) {
	s := e.stores
	uid, name := in.AuthorID, in.AuthorName

	s.Conversations.Push(uid, conversation.User, message)
	s.Memory.Apply(uid, name, message)
	s.History.Append(uid, string(conversation.User), message, map[string]string{"channel": in.ChannelID, "guild": in.GuildID, "name": name})
	s.Knowledge.Extract(uid, message)

	p := s.Profiles.Touch(uid, name, message)
	mood := e.Mood()
	hits = s.Catalog.Triggers(message)
	enrichment := profile.Enrichment(p, name, mood, hits)

	analysis := s.Reasoning.Analyze(message, reasoning.MemoryView{
		Facts:     s.Memory.Facts(uid),
		Interests: s.Memory.Interests(uid),
	})

	text := prompt.Build(prompt.Input{
		Personality:      e.settings.Personality,
		UserName:         name,
		Mentions:         in.Mentions,
		Summary:          s.Conversations.Summary(uid),
		Enrichment:       enrichment,
		MemorySummary:    s.Memory.Summary(uid),
		ReasoningContext: analysis.Context,
		UseAdvanced:      analysis.UseAdvanced,
		Warnings:         analysis.Warnings,
		Turns:            s.Conversations.Recent(uid),
	})
	LogPrompt(e.logger, "reply", text, "user", name, "intent", analysis.Intent.Label(), "advanced", analysis.UseAdvanced)

	if in.OnThinking != nil {
		in.OnThinking()
	}
	raw, err := e.provider.Generate(ctx, ai.Request{Prompt: text, Complex: analysis.UseAdvanced})
	if err != nil {
		e.metrics.InferenceFailure(failureKind(err))
		reply = ai.FallbackText(err)
	} else {
		reply = prompt.CleanReply(raw)
		ok = true
	}

	s.Conversations.Push(uid, conversation.Assistant, reply)
	s.History.Append(uid, string(conversation.Assistant), reply, map[string]string{"channel": in.ChannelID})
	return reply, hits, ok
}

func failureKind(err error) string {
	if errors.Is(err, ai.ErrTimeout) {
		return "timeout"
	}
	return "unreachable"
}

func chunkAll(texts []string) []string {
	var out []string
	for _, t := range texts {
		out = append(out, prompt.Chunk(t)...)
	}
	return out
}
