// Package discord connects a mind.Engine to a Discord gateway session.
package discord

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"

	"github.com/keshon/compagnon/internal/config"
	"github.com/keshon/compagnon/internal/mind"
)

// Activity is the "playing" status shown under the bot's name.
const Activity = "discuter avec tout le monde! 💬"

const (
	intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	chunkDelay     = 200 * time.Millisecond
	typingInterval = 8 * time.Second
)

// Bot is a Discord bot
type Bot struct {
	dg     *discordgo.Session
	cfg    *config.Config
	engine *mind.Engine
	logger *log.Logger

	mu  sync.RWMutex
	ctx context.Context
}

func NewBot(cfg *config.Config, engine *mind.Engine, logger *log.Logger) *Bot {
	return &Bot{cfg: cfg, engine: engine, logger: logger, ctx: context.Background()}
}

// Run opens the session, starts the proactive runner when enabled and blocks
// until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.cfg.RequireDiscord(); err != nil {
		return err
	}
	dg, err := discordgo.New("Bot " + b.cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	b.dg = dg
	b.mu.Lock()
	b.ctx = ctx
	b.mu.Unlock()

	dg.Identify.Intents = intents
	dg.AddHandler(b.onReady)
	dg.AddHandler(b.onMessageCreate)

	if err := dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer dg.Close()

	if b.cfg.ProactiveEnabled {
		runner := mind.NewRunner(b.engine, b, b.cfg.ProactiveSchedule, b.cfg.ProactiveTimeout, b.logger.WithPrefix("proactive"))
		if err := runner.Start(ctx); err != nil {
			return err
		}
	} else {
		b.logger.Info("proactive messages disabled")
	}

	<-ctx.Done()
	b.logger.Info("shutdown signal received, closing session")
	return nil
}

func (b *Bot) context() context.Context {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ctx
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	if err := s.UpdateGameStatus(0, Activity); err != nil {
		b.logger.Warn("failed to set activity", "err", err)
	}
	b.logger.Info("discord bot is running", "user", r.User.Username, "guilds", len(r.Guilds))
}

// keepTyping refreshes the typing indicator until done is closed.
func keepTyping(s *discordgo.Session, channelID string, done <-chan struct{}) {
	_ = s.ChannelTyping(channelID)
	ticker := time.NewTicker(typingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			_ = s.ChannelTyping(channelID)
		}
	}
}
