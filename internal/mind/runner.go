package mind

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"

	"github.com/keshon/compagnon/internal/ai"
	"github.com/keshon/compagnon/internal/proactive"
	"github.com/keshon/compagnon/internal/prompt"
)

// minProactiveLen is the shortest opener worth sending.
const minProactiveLen = 10

// Channel is what the runner needs to know about a destination.
type Channel struct {
	ID      string
	Text    bool
	CanSend bool
}

// Sender is the platform side of the proactive runner.
type Sender interface {
	Channel(ctx context.Context, id string) (Channel, error)
	Send(ctx context.Context, channelID, text string) error
}

// Runner periodically tries to open a conversation in quiet channels.
type Runner struct {
	engine   *Engine
	sender   Sender
	schedule string
	timeout  time.Duration
	logger   *log.Logger
	pick     func(n int) int
}

// NewRunner prepares a runner firing on schedule (cron syntax or
// "@every 10m"). Each inference call is bounded by timeout.
func NewRunner(engine *Engine, sender Sender, schedule string, timeout time.Duration, logger *log.Logger) *Runner {
	if logger == nil {
		logger = engine.logger
	}
	return &Runner{
		engine:   engine,
		sender:   sender,
		schedule: schedule,
		timeout:  timeout,
		logger:   logger,
		pick:     rand.IntN,
	}
}

// Start schedules the cycle and returns once the job is registered. The
// scheduler stops when ctx is done; overlapping cycles are skipped.
func (r *Runner) Start(ctx context.Context) error {
	cl := cronLogger{r.logger}
	c := cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	if _, err := c.AddFunc(r.schedule, func() { r.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("proactive schedule %q: %w", r.schedule, err)
	}
	c.Start()
	r.logger.Info("proactive runner started", "schedule", r.schedule)

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		r.logger.Info("proactive runner stopped")
	}()
	return nil
}

// RunOnce visits every tracked channel once. A failing channel never aborts
// the cycle.
func (r *Runner) RunOnce(ctx context.Context) {
	for _, id := range r.engine.stores.Proactive.Channels() {
		if ctx.Err() != nil {
			return
		}
		r.visit(ctx, id)
		runtime.Gosched()
	}
}

func (r *Runner) visit(ctx context.Context, channelID string) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("proactive channel panicked", "channel", channelID, "panic", p)
		}
	}()

	s := r.engine.stores
	check := s.Proactive.CanSend(channelID)
	if !check.Allowed {
		r.logger.Debug("proactive skipped", "channel", channelID, "reason", check.Reason)
		return
	}
	r.logger.Info("proactive conditions met", "channel", channelID, "silence_min", check.SilenceMinutes, "active_users", check.ActiveUsers24h)

	ch, err := r.sender.Channel(ctx, channelID)
	if err != nil {
		r.logger.Warn("channel unreachable, forgetting it", "channel", channelID, "err", err)
		s.Proactive.Forget(channelID)
		return
	}
	if !ch.Text {
		r.logger.Warn("channel is not a text channel", "channel", channelID)
		return
	}
	if !ch.CanSend {
		r.logger.Warn("no permission to send", "channel", channelID)
		return
	}

	text := r.prompt(channelID)
	LogPrompt(r.logger, "proactive", text, "channel", channelID)

	genCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	raw, err := r.engine.provider.Generate(genCtx, ai.Request{Prompt: text})
	if err != nil {
		r.engine.metrics.InferenceFailure(failureKind(err))
		r.logger.Warn("proactive inference failed", "channel", channelID, "err", err)
		return
	}

	reply := prompt.Clean(raw)
	if utf8.RuneCountInString(reply) <= minProactiveLen {
		r.logger.Warn("proactive reply empty or too short", "channel", channelID)
		return
	}
	if err := r.sender.Send(ctx, channelID, reply); err != nil {
		r.logger.Error("proactive send failed", "channel", channelID, "err", err)
		return
	}
	s.Proactive.RecordProactive(channelID, reply)
	r.engine.metrics.ProactiveSent()
	r.logger.Info("proactive message sent", "channel", channelID, "text", reply)
}

// prompt builds the opener request around the memory of one recently active
// user, picked at random.
func (r *Runner) prompt(channelID string) string {
	s := r.engine.stores
	summary := ""
	if users := s.Proactive.ActiveUsers(channelID, 5); len(users) > 0 {
		summary = s.Memory.Summary(users[r.pick(len(users))])
	}
	text := proactive.Prompt(r.engine.now(), r.engine.Mood(), summary)
	if slang := s.Catalog.Slang("greeting"); slang != "" {
		text += fmt.Sprintf("\n\nSi ça colle, tu peux glisser l'expression \"%s\".", slang)
	}
	return text
}
