package commands

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
	"github.com/example/courtbot/src/CourtBot/components/lawsuit"
	"github.com/example/courtbot/src/CourtBot/components/prison"
	"github.com/example/courtbot/src/discord"
	"github.com/example/courtbot/src/types"
	"github.com/microcosm-cc/bluemonday"
)

const (
	msgNoPermission  = "You don't have permission to do that."
	msgInternalError = "An internal error occurred."
	msgGuildOnly     = "This command only works inside a guild."
)

// Router dispatches slash command interactions to the managers and renders
// their outcomes as short ephemeral replies.
type Router struct {
	lawsuits  *lawsuit.Manager
	prison    *prison.Manager
	sanitizer *bluemonday.Policy
}

func NewRouter(lawsuits *lawsuit.Manager, prisonMgr *prison.Manager) *Router {
	return &Router{
		lawsuits:  lawsuits,
		prison:    prisonMgr,
		// Operator-supplied free text (reason, verdict) is stored and echoed
		// back later; strip all markup.
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// HandleInteraction is registered on the discordgo session for
// InteractionCreate events.
func (r *Router) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	var reply string
	if i.Member == nil || i.GuildID == "" {
		reply = msgGuildOnly
	} else {
		ctx := context.Background()
		cmd := i.ApplicationCommandData()

		switch cmd.Name {
		case discord.CommandLawsuit:
			reply = r.handleLawsuit(ctx, i, cmd)
		case discord.CommandPrison:
			reply = r.handlePrison(ctx, i, cmd)
		default:
			reply = "not implemented :("
		}
	}

	if err := discord.RespondEphemeral(s, i.Interaction, reply); err != nil {
		log.Printf("commands: respond to %s: %v", i.ID, err)
	}
}

func (r *Router) handleLawsuit(ctx context.Context, i *discordgo.InteractionCreate, cmd discordgo.ApplicationCommandInteractionData) string {
	if len(cmd.Options) == 0 {
		return msgInternalError
	}
	sub := cmd.Options[0]
	guildID := i.GuildID
	manage := hasManageGuild(i)

	switch sub.Name {
	case discord.SubcommandCreate:
		if !manage {
			return msgNoPermission
		}
		opts := optionMap(sub.Options)
		params := lawsuit.CreateParams{
			Plaintiff: userID(opts["plaintiff"]),
			Accused:   userID(opts["accused"]),
			Judge:     userID(opts["judge"]),
			Reason:    r.sanitizer.Sanitize(stringValue(opts["reason"])),
		}
		params.PlaintiffLawyer = userID(opts["plaintiff_lawyer"])
		params.AccusedLawyer = userID(opts["accused_lawyer"])

		suit, err := r.lawsuits.Create(ctx, guildID, params)
		switch {
		case err == nil:
			return fmt.Sprintf("Lawsuit filed. Court is in session in <#%s>.", suit.CourtRoom)
		case errors.Is(err, types.ErrUnconfigured):
			return "Set a court category first with /lawsuit set_category."
		case errors.Is(err, types.ErrInvalidTarget):
			return "A reason is required."
		case errors.Is(err, types.ErrPlatformUnavailable):
			log.Printf("commands: lawsuit create in %s: %v", guildID, err)
			return "Could not create the court room. Nothing was changed."
		default:
			log.Printf("commands: lawsuit create in %s: %v", guildID, err)
			return msgInternalError
		}

	case discord.SubcommandSetCategory:
		if !manage {
			return msgNoPermission
		}
		opts := optionMap(sub.Options)
		err := r.lawsuits.SetCourtCategory(ctx, guildID, channelID(opts["category"]))
		switch {
		case err == nil:
			return "Court category set."
		case errors.Is(err, types.ErrInvalidTarget):
			return "That is not a category."
		default:
			log.Printf("commands: set category in %s: %v", guildID, err)
			return msgInternalError
		}

	case discord.SubcommandClose:
		opts := optionMap(sub.Options)
		verdict := r.sanitizer.Sanitize(stringValue(opts["verdict"]))
		err := r.lawsuits.Close(ctx, guildID, i.Member.User.ID, i.ChannelID, verdict, manage)
		switch {
		case err == nil:
			return "The process has been closed."
		case errors.Is(err, types.ErrInvalidTarget):
			return "A verdict is required."
		case errors.Is(err, types.ErrNoActiveLawsuit):
			return "There is no active process in this room."
		case errors.Is(err, types.ErrForbidden):
			return "Only the judge can close this process."
		default:
			log.Printf("commands: close in %s room %s: %v", guildID, i.ChannelID, err)
			return msgInternalError
		}

	case discord.SubcommandClear:
		if !manage {
			return msgNoPermission
		}
		if err := r.lawsuits.Clear(ctx, guildID); err != nil {
			log.Printf("commands: clear guild %s: %v", guildID, err)
			return msgInternalError
		}
		return "All court data deleted."
	}

	return msgInternalError
}

func (r *Router) handlePrison(ctx context.Context, i *discordgo.InteractionCreate, cmd discordgo.ApplicationCommandInteractionData) string {
	if len(cmd.Options) == 0 {
		return msgInternalError
	}
	sub := cmd.Options[0]
	guildID := i.GuildID

	// Every prison subcommand is operator-only.
	if !hasManageGuild(i) {
		return msgNoPermission
	}

	opts := optionMap(sub.Options)

	switch sub.Name {
	case discord.SubcommandSetRole:
		role := opts["role"]
		if role == nil {
			return msgInternalError
		}
		if err := r.prison.SetRole(ctx, guildID, role.RoleValue(nil, guildID).ID); err != nil {
			log.Printf("commands: set prison role in %s: %v", guildID, err)
			return msgInternalError
		}
		return "Prison role set."

	case discord.SubcommandArrest:
		err := r.prison.Arrest(ctx, guildID, userID(opts["user"]))
		switch {
		case err == nil:
			return "The member has been arrested."
		case errors.Is(err, types.ErrUnconfigured):
			return "Set a prison role first with /prison set_role."
		case errors.Is(err, types.ErrPlatformUnavailable):
			// The entry is on record; the role follows on the next join.
			return "Arrest recorded, but the role could not be applied yet."
		default:
			log.Printf("commands: arrest in %s: %v", guildID, err)
			return msgInternalError
		}

	case discord.SubcommandRelease:
		err := r.prison.Release(ctx, guildID, userID(opts["user"]))
		switch {
		case err == nil:
			return "Freedom awaits."
		case errors.Is(err, types.ErrUnconfigured):
			return "Set a prison role first with /prison set_role."
		case errors.Is(err, types.ErrPlatformUnavailable):
			return "Released, but the role is still applied. Remove it manually."
		default:
			log.Printf("commands: release in %s: %v", guildID, err)
			return msgInternalError
		}
	}

	return msgInternalError
}

func hasManageGuild(i *discordgo.InteractionCreate) bool {
	return i.Member.Permissions&discordgo.PermissionManageServer != 0
}

func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

func userID(opt *discordgo.ApplicationCommandInteractionDataOption) string {
	if opt == nil {
		return ""
	}
	return opt.UserValue(nil).ID
}

func channelID(opt *discordgo.ApplicationCommandInteractionDataOption) string {
	if opt == nil {
		return ""
	}
	return opt.ChannelValue(nil).ID
}

func stringValue(opt *discordgo.ApplicationCommandInteractionDataOption) string {
	if opt == nil {
		return ""
	}
	return opt.StringValue()
}
