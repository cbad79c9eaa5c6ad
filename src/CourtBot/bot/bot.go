package bot

import (
	"context"
	"log"

	"github.com/bwmarrin/discordgo"
	"github.com/example/courtbot/src/CourtBot/components/commands"
	"github.com/example/courtbot/src/CourtBot/components/lawsuit"
	"github.com/example/courtbot/src/CourtBot/components/prison"
	"github.com/example/courtbot/src/data"
	"github.com/example/courtbot/src/discord"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Config struct {
	Token             string
	DevGuildID        string
	SetGlobalCommands bool
	DB                *gorm.DB
	Redis             *redis.Client
}

type Bot struct {
	session  *discordgo.Session
	config   Config
	store    *data.Store
	lawsuits *lawsuit.Manager
	prison   *prison.Manager
	router   *commands.Router
}

func New(config Config) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, err
	}

	bot := &Bot{
		session: dg,
		config:  config,
	}
	bot.initializeComponents()
	bot.registerHandlers()

	// Guild members intent is required for GuildMemberAdd, which drives the
	// prison role reconciliation.
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

	return bot, nil
}

func (b *Bot) initializeComponents() {
	b.store = data.NewStore(b.config.DB)
	gateway := discord.NewGateway(b.session)

	b.lawsuits = lawsuit.NewManager(b.store, gateway, b.config.Redis)
	b.prison = prison.NewManager(b.store, gateway, b.config.Redis)
	b.router = commands.NewRouter(b.lawsuits, b.prison)
}

func (b *Bot) registerHandlers() {
	b.session.AddHandler(b.handleReady)
	b.session.AddHandler(b.router.HandleInteraction)
	b.session.AddHandler(b.handleMemberJoin)
}

func (b *Bot) Start() error {
	return b.session.Open()
}

func (b *Bot) Stop() {
	b.session.Close()
}

func (b *Bot) handleReady(s *discordgo.Session, event *discordgo.Ready) {
	log.Printf("Discord bot logged in as %s", event.User.Username)

	if b.config.DevGuildID != "" {
		if err := discord.RegisterSlashCommands(s, b.config.DevGuildID); err != nil {
			log.Printf("Failed to register dev guild commands: %v", err)
		} else {
			log.Println("Installed guild slash commands")
		}
	}

	if b.config.SetGlobalCommands {
		if err := discord.RegisterSlashCommands(s, ""); err != nil {
			log.Printf("Failed to register global commands: %v", err)
		} else {
			log.Println("Installed global slash commands")
		}
	}
}

func (b *Bot) handleMemberJoin(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if err := b.prison.HandleMemberJoin(context.Background(), m.GuildID, m.User.ID); err != nil {
		log.Printf("member join reconciliation for %s in guild %s: %v", m.User.ID, m.GuildID, err)
	}
}
