package discord

import (
	"github.com/bwmarrin/discordgo"
)

// RespondEphemeral answers an interaction with a message only the invoker
// can see. All courtbot command replies go through this.
func RespondEphemeral(s *discordgo.Session, i *discordgo.Interaction, content string) error {
	return s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}
