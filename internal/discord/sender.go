package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/compagnon/internal/mind"
)

// Channel resolves id from the state cache first, then the API, and reports
// whether the bot may post there.
func (b *Bot) Channel(ctx context.Context, id string) (mind.Channel, error) {
	ch, err := b.dg.State.Channel(id)
	if err != nil {
		ch, err = b.dg.Channel(id, discordgo.WithContext(ctx))
		if err != nil {
			return mind.Channel{}, fmt.Errorf("fetch channel %s: %w", id, err)
		}
	}

	out := mind.Channel{ID: ch.ID, Text: isText(ch.Type)}
	perms, err := b.dg.UserChannelPermissions(b.dg.State.User.ID, id, discordgo.WithContext(ctx))
	if err != nil {
		b.logger.Warn("failed to read permissions", "channel", id, "err", err)
		return out, nil
	}
	out.CanSend = canSend(perms)
	return out, nil
}

func (b *Bot) Send(ctx context.Context, channelID, text string) error {
	if _, err := b.dg.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send to %s: %w", channelID, err)
	}
	return nil
}

func isText(t discordgo.ChannelType) bool {
	return t == discordgo.ChannelTypeGuildText || t == discordgo.ChannelTypeGuildNews
}

func canSend(perms int64) bool {
	return perms&discordgo.PermissionSendMessages != 0
}

var _ mind.Sender = (*Bot)(nil)
