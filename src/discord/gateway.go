package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/example/courtbot/src/types"
)

// callTimeout bounds every REST call against Discord. A timed-out call is
// reported the same way as an explicit API failure.
const callTimeout = 10 * time.Second

const memberPermissions = discordgo.PermissionViewChannel |
	discordgo.PermissionSendMessages |
	discordgo.PermissionReadMessageHistory

// Gateway wraps the discordgo session behind the small surface the managers
// need. Every method maps API failures to ErrPlatformUnavailable so callers
// can classify without knowing discordgo.
type Gateway struct {
	session *discordgo.Session
}

func NewGateway(session *discordgo.Session) *Gateway {
	return &Gateway{session: session}
}

// CreateRestrictedRoom creates a text channel under categoryID that only the
// given members (and the bot) can see. The @everyone role is denied view
// access; Discord resolves it by the guild ID.
func (g *Gateway) CreateRestrictedRoom(ctx context.Context, guildID, categoryID, name string, memberIDs []string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	overwrites := []*discordgo.PermissionOverwrite{
		{
			ID:   guildID,
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel,
		},
	}
	for _, id := range memberIDs {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    id,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: memberPermissions,
		})
	}

	channel, err := g.session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:                 name,
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             categoryID,
		PermissionOverwrites: overwrites,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", platformErr("create room", err)
	}

	return channel.ID, nil
}

// AssignRole adds roleID to the member.
func (g *Gateway) AssignRole(ctx context.Context, guildID, userID, roleID string) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	if err := g.session.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return platformErr("assign role", err)
	}
	return nil
}

// RevokeRole removes roleID from the member.
func (g *Gateway) RevokeRole(ctx context.Context, guildID, userID, roleID string) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	if err := g.session.GuildMemberRoleRemove(guildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return platformErr("revoke role", err)
	}
	return nil
}

// ResolveCategory verifies that channelID denotes a category container and
// returns its ID. A plain channel yields ErrInvalidTarget.
func (g *Gateway) ResolveCategory(ctx context.Context, channelID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	channel, err := g.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return "", platformErr("fetch channel", err)
	}
	if channel.Type != discordgo.ChannelTypeGuildCategory {
		return "", fmt.Errorf("channel %s: %w", channelID, types.ErrInvalidTarget)
	}
	return channel.ID, nil
}

// LockRoom strips send access from @everyone in a room. Used after a verdict;
// the participant overwrites keep their view access.
func (g *Gateway) LockRoom(ctx context.Context, guildID, channelID string) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	err := g.session.ChannelPermissionSet(
		channelID, guildID,
		discordgo.PermissionOverwriteTypeRole,
		0, discordgo.PermissionViewChannel|discordgo.PermissionSendMessages,
		discordgo.WithContext(ctx),
	)
	if err != nil {
		return platformErr("lock room", err)
	}
	return nil
}

func platformErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, types.ErrPlatformUnavailable, err)
}
