// Package bot runs the Discord FAQ bot that posts an interactive
// information menu to a configured channel.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"github.com/ilng/roster/config"
)

// ErrNotConfigured is returned by New when no bot token is set.
var ErrNotConfigured = errors.New("discord bot token is not configured")

// How many recent channel messages are searched for an existing menu.
const faqLookback = 10

// Bot owns the Discord session.
type Bot struct {
	config  config.DiscordConfig
	session *discordgo.Session
	now     func() time.Time
}

// New creates a bot without connecting it.
func New(cfg config.DiscordConfig) (*Bot, error) {
	if cfg.BotToken == "" {
		return nil, ErrNotConfigured
	}
	dg, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	b := &Bot{config: cfg, session: dg, now: time.Now}
	dg.AddHandler(b.handleReady)
	dg.AddHandler(b.handleInteraction)
	return b, nil
}

// Run opens the gateway connection and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}
	log.Info("Discord bot connected")

	<-ctx.Done()
	if err := b.session.Close(); err != nil {
		return fmt.Errorf("error closing discord session: %w", err)
	}
	log.Info("Discord bot disconnected")
	return nil
}

func (b *Bot) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	log.WithField("user", r.User.Username).Info("Discord bot ready")
	if b.config.FAQChannelID == "" {
		log.Warn("FAQ channel is not configured, skipping FAQ post")
		return
	}
	if err := b.publishFAQ(s, r.User.ID); err != nil {
		log.WithError(err).Error("Failed to publish FAQ menu")
	}
}

// publishFAQ edits the bot's previous menu in place, or posts a new one.
func (b *Bot) publishFAQ(s *discordgo.Session, botID string) error {
	channelID := b.config.FAQChannelID
	msg := MainMenu(b.now())

	recent, err := s.ChannelMessages(channelID, faqLookback, "", "", "")
	if err != nil {
		return fmt.Errorf("fetch channel messages: %w", err)
	}

	if existing := findFAQ(recent, botID); existing != nil {
		_, err := s.ChannelMessageEditComplex(&discordgo.MessageEdit{
			Channel:    channelID,
			ID:         existing.ID,
			Embeds:     &msg.Embeds,
			Components: &msg.Components,
		})
		if err != nil {
			return fmt.Errorf("edit FAQ message: %w", err)
		}
		log.WithField("message_id", existing.ID).Info("Updated FAQ menu")
		return nil
	}

	sent, err := s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:     msg.Embeds,
		Components: msg.Components,
	})
	if err != nil {
		return fmt.Errorf("send FAQ message: %w", err)
	}
	log.WithField("message_id", sent.ID).Info("Posted FAQ menu")
	return nil
}

// findFAQ returns the first message authored by botID whose leading
// embed is an FAQ menu.
func findFAQ(messages []*discordgo.Message, botID string) *discordgo.Message {
	for _, m := range messages {
		if m == nil || m.Author == nil || m.Author.ID != botID {
			continue
		}
		if len(m.Embeds) > 0 && strings.Contains(m.Embeds[0].Title, "FAQ") {
			return m
		}
	}
	return nil
}

func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}
	data := i.MessageComponentData()

	msg, ok := Route(data.CustomID, data.Values, b.now())
	if !ok {
		log.WithField("custom_id", data.CustomID).Debug("Ignoring unknown component")
		return
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     msg.Embeds,
			Components: msg.Components,
		},
	})
	if err != nil {
		log.WithError(err).WithField("custom_id", data.CustomID).Error("Failed to respond to interaction")
	}
}
