package discord

import (
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/compagnon/internal/mind"
)

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	in := toIncoming(s.State.User.ID, m.Message)

	done := make(chan struct{})
	var once sync.Once
	stop := func() { once.Do(func() { close(done) }) }
	defer stop()
	in.OnThinking = func() { go keepTyping(s, m.ChannelID, done) }

	out := b.engine.HandleMessage(b.context(), in)
	stop()

	b.logger.Debug("message handled", "user", in.AuthorName, "channel", in.ChannelID, "outcome", out.Kind, "replies", len(out.Replies))
	b.deliver(s, m.Message, out)
}

// toIncoming maps a gateway message to the engine's view of it.
func toIncoming(botID string, m *discordgo.Message) mind.Incoming {
	in := mind.Incoming{
		AuthorID:   m.Author.ID,
		AuthorName: m.Author.Username,
		ChannelID:  m.ChannelID,
		GuildID:    m.GuildID,
		Content:    m.Content,
		BotID:      botID,
		IsDM:       m.GuildID == "",
	}
	for _, u := range m.Mentions {
		if u.ID == botID {
			in.MentionsBot = true
			continue
		}
		in.Mentions = append(in.Mentions, "@"+u.Username)
	}
	return in
}

// deliver replies to m with the first chunk and follows up with the rest.
func (b *Bot) deliver(s *discordgo.Session, m *discordgo.Message, out mind.Outcome) {
	if out.Reaction != "" {
		if err := s.MessageReactionAdd(m.ChannelID, m.ID, out.Reaction); err != nil {
			b.logger.Warn("failed to react", "channel", m.ChannelID, "err", err)
		}
	}
	for i, text := range out.Replies {
		var err error
		if i == 0 {
			_, err = s.ChannelMessageSendReply(m.ChannelID, text, m.Reference())
		} else {
			time.Sleep(chunkDelay)
			_, err = s.ChannelMessageSend(m.ChannelID, text)
		}
		if err != nil {
			b.logger.Error("failed to send reply", "channel", m.ChannelID, "chunk", i, "err", err)
			return
		}
	}
}
