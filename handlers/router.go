package handlers

import (
	"errors"
	"log"

	"ticket-bot/config"
	"ticket-bot/lang"
	"ticket-bot/notify"
	"ticket-bot/ticket"
	"ticket-bot/transcript"

	"github.com/bwmarrin/discordgo"
)

var adminPerm = int64(discordgo.PermissionAdministrator)

// Handler owns everything the interaction router needs: configuration, the
// store, the lifecycle engine and the optional event publisher. It is built
// once at startup and registered on the session.
type Handler struct {
	Cfg      *config.Config
	Store    ticket.Store
	Engine   *ticket.Engine
	Notifier *notify.Publisher
	Format   transcript.Format
}

func New(cfg *config.Config, st ticket.Store, engine *ticket.Engine, notifier *notify.Publisher) *Handler {
	return &Handler{
		Cfg:      cfg,
		Store:    st,
		Engine:   engine,
		Notifier: notifier,
		Format:   transcript.ParseFormat(cfg.Tickets.TranscriptFormat),
	}
}

// Commands declares the two administrative slash commands.
func (h *Handler) Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:                     "setup",
			Description:              "Set up the ticket system",
			DefaultMemberPermissions: &adminPerm,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionChannel,
					Name:         "category",
					Description:  "Discord category for ticket channels",
					ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildCategory},
					Required:     true,
				},
				{
					Type:         discordgo.ApplicationCommandOptionChannel,
					Name:         "log",
					Description:  "Channel for transcripts and lifecycle logs",
					ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
					Required:     true,
				},
			},
		},
		{
			Name:                     "panel",
			Description:              "Send the ticket panel",
			DefaultMemberPermissions: &adminPerm,
		},
	}
}

func (h *Handler) Register(s *discordgo.Session) {
	s.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.GuildID == "" || i.Member == nil {
			return
		}

		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			h.handleSlashCommand(s, i)
		case discordgo.InteractionMessageComponent:
			h.handleComponent(s, i)
		}
	})
}

func (h *Handler) handleSlashCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	name := i.ApplicationCommandData().Name

	if !h.actor(i).IsAdmin {
		respond(s, i, lang.T("setup.admin_only"), true)
		return
	}

	switch name {
	case "setup":
		h.handleSetup(s, i)
	case "panel":
		h.handlePanel(s, i)
	default:
		log.Printf("Unknown command: %s", name)
	}
}

func (h *Handler) handleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID

	action, ok := ParseAction(customID)
	if !ok {
		log.Printf("Unknown component: %s", customID)
		return
	}

	switch action.Kind {
	case ActionOpen:
		h.handleOpen(s, i, action.Category)
	case ActionClaim:
		h.handleClaim(s, i)
	case ActionClose:
		h.handleCloseRequest(s, i)
	case ActionConfirmClose:
		h.handleCloseConfirm(s, i)
	case ActionCancelClose:
		h.handleCloseCancel(s, i)
	case ActionTranscript:
		h.handleTranscript(s, i)
	case ActionReopen:
		h.handleReopen(s, i)
	case ActionDelete:
		h.handleDelete(s, i)
	}
}

// actor resolves the acting member into the engine's permission view.
func (h *Handler) actor(i *discordgo.InteractionCreate) ticket.Actor {
	a := ticket.Actor{ID: i.Member.User.ID}
	a.IsAdmin = i.Member.Permissions&discordgo.PermissionAdministrator != 0
	for _, roleID := range i.Member.Roles {
		if roleID == h.Cfg.Tickets.StaffRole {
			a.IsStaff = true
			break
		}
	}
	return a
}

// rejectMessage maps an engine guard rejection onto its user-facing string.
func rejectMessage(err error) string {
	switch {
	case errors.Is(err, ticket.ErrPermissionDenied):
		return lang.T("err.permission")
	case errors.Is(err, ticket.ErrNotConfigured):
		return lang.T("err.not_configured")
	case errors.Is(err, ticket.ErrAlreadyClaimed):
		return lang.T("err.already_claimed")
	case errors.Is(err, ticket.ErrNotClaimed):
		return lang.T("err.not_claimed")
	case errors.Is(err, ticket.ErrRecordMissing):
		return lang.T("err.record_missing")
	case errors.Is(err, ticket.ErrAlreadyClosed):
		return lang.T("err.already_closed")
	case errors.Is(err, ticket.ErrNotClosed):
		return lang.T("err.not_closed")
	case errors.Is(err, ticket.ErrDeletePending):
		return lang.T("err.delete_pending")
	case errors.Is(err, ticket.ErrTooManyOpen):
		return lang.T("err.too_many_open")
	default:
		log.Printf("Unexpected ticket error: %v", err)
		return lang.T("err.internal")
	}
}

func respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   flags,
		},
	})
	if err != nil {
		log.Printf("Failed to respond: %v", err)
	}
}

func optionMap(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption)
	for _, opt := range i.ApplicationCommandData().Options {
		m[opt.Name] = opt
	}
	return m
}
