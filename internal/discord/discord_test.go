package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func TestToIncoming(t *testing.T) {
	tests := []struct {
		name    string
		msg     *discordgo.Message
		mention bool
		dm      bool
		others  []string
	}{
		{
			name: "guild mention",
			msg: &discordgo.Message{
				Author: &discordgo.User{ID: "u1", Username: "alex"}, ChannelID: "c1", GuildID: "g1",
				Content:  "<@42> salut @sam",
				Mentions: []*discordgo.User{{ID: "42", Username: "compagnon"}, {ID: "u2", Username: "sam"}},
			},
			mention: true,
			others:  []string{"@sam"},
		},
		{
			name: "direct message",
			msg:  &discordgo.Message{Author: &discordgo.User{ID: "u1", Username: "alex"}, ChannelID: "dm", Content: "coucou"},
			dm:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := toIncoming("42", tt.msg)
			assert.Equal(t, "u1", in.AuthorID)
			assert.Equal(t, "alex", in.AuthorName)
			assert.Equal(t, "42", in.BotID)
			assert.Equal(t, tt.msg.Content, in.Content)
			assert.Equal(t, tt.mention, in.MentionsBot)
			assert.Equal(t, tt.dm, in.IsDM)
			assert.Equal(t, tt.others, in.Mentions)
		})
	}
}

func TestChannelChecks(t *testing.T) {
	assert.True(t, isText(discordgo.ChannelTypeGuildText))
	assert.True(t, isText(discordgo.ChannelTypeGuildNews))
	assert.False(t, isText(discordgo.ChannelTypeGuildVoice))
	assert.False(t, isText(discordgo.ChannelTypeDM))

	assert.True(t, canSend(discordgo.PermissionSendMessages|discordgo.PermissionViewChannel))
	assert.False(t, canSend(discordgo.PermissionViewChannel))
}
