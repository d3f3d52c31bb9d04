package bot

import (
	"context"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/communitykit/suggestbox/src/admin"
	"github.com/communitykit/suggestbox/src/bot/commands"
	"github.com/communitykit/suggestbox/src/bot/config"
	"github.com/communitykit/suggestbox/src/suggestions/bans"
	"github.com/communitykit/suggestbox/src/suggestions/engine"
	"github.com/communitykit/suggestbox/src/suggestions/erasure"
	"github.com/communitykit/suggestbox/src/suggestions/notify"
	"github.com/communitykit/suggestbox/src/suggestions/store"
	"github.com/communitykit/suggestbox/src/suggestions/transport"
)

type Bot struct {
	config   *config.Config
	db       *gorm.DB
	redis    *redis.Client
	session  *discordgo.Session
	engine   *engine.Engine
	handler  *commands.Handler
	eraser   *erasure.Service
	registry *bans.Registry
}

func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsDirectMessages

	st := store.New(db)
	registry := bans.NewRegistry(db)
	tp := transport.NewDiscord(session)
	eng := engine.New(st, registry, tp, notify.NewDispatcher(tp))
	handler := commands.NewHandler(eng, registry, bans.NewConfirmStore(rdb))

	b := &Bot{
		config:   cfg,
		db:       db,
		redis:    rdb,
		session:  session,
		engine:   eng,
		handler:  handler,
		eraser:   erasure.NewService(st),
		registry: registry,
	}

	b.initHandlers()

	return b, nil
}

func (b *Bot) initHandlers() {
	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Printf("Logged in as: %v#%v", s.State.User.Username, s.State.User.Discriminator)
	})

	b.session.AddHandler(b.handler.OnInteractionCreate)

	// Single-choice voting: a member's older reaction goes away when they
	// add a new one on a tracked suggestion.
	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
		if r.GuildID == "" || r.UserID == s.State.User.ID {
			return
		}
		go func() {
			err := b.engine.ReactionGuard(context.Background(),
				r.GuildID, r.ChannelID, r.MessageID, r.UserID, r.Emoji.APIName())
			if err != nil {
				log.Printf("bot: reaction guard: %v", err)
			}
		}()
	})
}

func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	for _, guildID := range b.config.Guilds {
		if err := commands.RegisterSlashCommands(b.session, guildID); err != nil {
			log.Printf("bot: register commands for guild %s: %v", guildID, err)
		}
	}

	if b.config.AdminAddr != "" {
		srv := admin.New(b.config.AdminAddr, []byte(b.config.JWTSecret), b.eraser, b.registry)
		go func() {
			log.Printf("Starting ops API on %s", b.config.AdminAddr)
			if err := srv.Run(); err != nil {
				log.Printf("bot: ops API: %v", err)
			}
		}()
	}

	return nil
}

func (b *Bot) Stop() {
	if b.session != nil {
		b.session.Close()
	}

	if b.handler != nil {
		b.handler.Close()
	}

	if b.db != nil {
		sqlDB, err := b.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	if b.redis != nil {
		b.redis.Close()
	}
}
