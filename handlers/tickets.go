package handlers

import (
	"bytes"
	"fmt"
	"log"
	"strconv"
	"time"

	"ticket-bot/lang"
	"ticket-bot/notify"
	"ticket-bot/ticket"
	"ticket-bot/transcript"

	"github.com/bwmarrin/discordgo"
)

const (
	colorPanel  = 0xFF0000
	colorOpened = 0x2ECC71
	colorClaim  = 0xF1C40F
	colorPrompt = 0xE67E22
	colorClosed = 0xE74C3C
)

func (h *Handler) handleSetup(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	setup := ticket.Setup{
		CategoryID:   opts["category"].ChannelValue(nil).ID,
		LogChannelID: opts["log"].ChannelValue(nil).ID,
	}

	if err := h.Store.SaveSetup(setup); err != nil {
		log.Printf("Failed to save setup: %v", err)
		respond(s, i, lang.T("err.internal"), true)
		return
	}
	respond(s, i, lang.T("setup.done"), true)
}

func (h *Handler) handlePanel(s *discordgo.Session, i *discordgo.InteractionCreate) {
	embed := &discordgo.MessageEmbed{
		Title:       lang.T("panel.title"),
		Description: lang.T("panel.body"),
		Color:       colorPanel,
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					categoryButton(ticket.CategoryGeneral, "General", discordgo.SecondaryButton),
					categoryButton(ticket.CategoryPartner, "Partnership", discordgo.SuccessButton),
				}},
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					categoryButton(ticket.CategoryReport, "Report", discordgo.DangerButton),
					categoryButton(ticket.CategoryStore, "Store", discordgo.PrimaryButton),
					categoryButton(ticket.CategoryAppeal, "Appeal", discordgo.SecondaryButton),
				}},
			},
		},
	})
	if err != nil {
		log.Printf("Failed to send panel: %v", err)
	}
}

func categoryButton(cat ticket.Category, label string, style discordgo.ButtonStyle) discordgo.Button {
	return discordgo.Button{
		Label:    label,
		Style:    style,
		CustomID: string(cat),
		Emoji:    &discordgo.ComponentEmoji{Name: cat.Emoji()},
	}
}

func (h *Handler) handleOpen(s *discordgo.Session, i *discordgo.InteractionCreate, cat ticket.Category) {
	actor := h.actor(i)

	res, err := h.Engine.Open(actor, cat)
	if err != nil {
		respond(s, i, rejectMessage(err), true)
		return
	}
	t := res.Ticket

	setup, _ := h.Store.Setup()
	overwrites := []*discordgo.PermissionOverwrite{
		{ID: i.GuildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionViewChannel},
		{
			ID:    actor.ID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionAttachFiles | discordgo.PermissionReadMessageHistory,
		},
		{
			ID:    h.Cfg.Tickets.StaffRole,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionAttachFiles | discordgo.PermissionReadMessageHistory,
		},
	}

	ch, err := s.GuildChannelCreateComplex(i.GuildID, discordgo.GuildChannelCreateData{
		Name:                 t.ChannelName(),
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             setup.CategoryID,
		PermissionOverwrites: overwrites,
	})
	if err != nil {
		log.Printf("Failed to create ticket channel: %v", err)
		respond(s, i, lang.T("err.internal"), true)
		return
	}

	t.ChannelID = ch.ID
	if err := h.Engine.Register(t); err != nil {
		log.Printf("Failed to persist ticket %s: %v", ch.ID, err)
		respond(s, i, lang.T("err.internal"), true)
		return
	}

	welcome := &discordgo.MessageEmbed{
		Description: lang.T("open.welcome", "user", actor.ID),
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Ticket #%d • %s", t.Number, t.Category.Label())},
	}
	_, _ = s.ChannelMessageSendComplex(ch.ID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{welcome},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "Claim", Style: discordgo.PrimaryButton, CustomID: idClaim, Emoji: &discordgo.ComponentEmoji{Name: "🛠️"}},
				discordgo.Button{Label: "Close", Style: discordgo.DangerButton, CustomID: idClose, Emoji: &discordgo.ComponentEmoji{Name: "🔒"}},
			}},
		},
	})

	for _, intent := range res.Intents {
		switch intent {
		case ticket.IntentCreateChannel:
			// done above; record was persisted with the new channel ID
		case ticket.IntentNotifyOpener:
			opened := &discordgo.MessageEmbed{
				Color:       colorOpened,
				Description: lang.T("open.created", "channel", ch.ID),
			}
			_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
				Type: discordgo.InteractionResponseChannelMessageWithSource,
				Data: &discordgo.InteractionResponseData{
					Embeds: []*discordgo.MessageEmbed{opened},
					Flags:  discordgo.MessageFlagsEphemeral,
				},
			})
		case ticket.IntentNotifyLogSink:
			h.sendToLogSink(s, &discordgo.MessageSend{
				Content: lang.T("open.logged",
					"number", strconv.Itoa(t.Number),
					"user", t.Opener,
					"category", t.Category.Label()),
			})
		}
	}

	h.Notifier.Publish(notify.EventOpened, actor.ID, t)
}

func (h *Handler) handleClaim(s *discordgo.Session, i *discordgo.InteractionCreate) {
	actor := h.actor(i)
	res, err := h.Engine.Claim(i.ChannelID, actor)
	if err != nil {
		respond(s, i, rejectMessage(err), true)
		return
	}

	h.runIntents(s, i, res, actor)
	respond(s, i, lang.T("claim.done"), true)
	h.Notifier.Publish(notify.EventClaimed, actor.ID, res.Ticket)
}

func (h *Handler) handleCloseRequest(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := h.Engine.RequestClose(i.ChannelID, h.actor(i)); err != nil {
		respond(s, i, rejectMessage(err), true)
		return
	}

	prompt := &discordgo.MessageEmbed{
		Color:       colorPrompt,
		Description: lang.T("close.prompt"),
	}
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{prompt},
			Flags:  discordgo.MessageFlagsEphemeral,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.Button{Label: "Confirm", Style: discordgo.DangerButton, CustomID: idConfirmClose},
					discordgo.Button{Label: "Cancel", Style: discordgo.SecondaryButton, CustomID: idCancelClose},
				}},
			},
		},
	})
}

func (h *Handler) handleCloseConfirm(s *discordgo.Session, i *discordgo.InteractionCreate) {
	actor := h.actor(i)
	res, err := h.Engine.ConfirmClose(i.ChannelID, actor)
	if err != nil {
		_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseUpdateMessage,
			Data: &discordgo.InteractionResponseData{Content: rejectMessage(err), Embeds: []*discordgo.MessageEmbed{}, Components: []discordgo.MessageComponent{}},
		})
		return
	}

	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{Content: lang.T("close.done"), Embeds: []*discordgo.MessageEmbed{}, Components: []discordgo.MessageComponent{}},
	})

	h.runIntents(s, i, res, actor)
	h.Notifier.Publish(notify.EventClosed, actor.ID, res.Ticket)
}

func (h *Handler) handleCloseCancel(s *discordgo.Session, i *discordgo.InteractionCreate) {
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{Content: lang.T("close.cancelled"), Embeds: []*discordgo.MessageEmbed{}, Components: []discordgo.MessageComponent{}},
	})
}

func (h *Handler) handleTranscript(s *discordgo.Session, i *discordgo.InteractionCreate) {
	actor := h.actor(i)
	t, err := h.Engine.Transcript(i.ChannelID, actor)
	if err != nil {
		respond(s, i, rejectMessage(err), true)
		return
	}

	doc, err := h.generateTranscript(s, i.GuildID, t, i.Member.User.Username)
	if err != nil {
		log.Printf("Failed to generate transcript for %s: %v", i.ChannelID, err)
		respond(s, i, lang.T("err.internal"), true)
		return
	}

	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
			Files: []*discordgo.File{docFile(doc)},
		},
	})
}

func (h *Handler) handleReopen(s *discordgo.Session, i *discordgo.InteractionCreate) {
	actor := h.actor(i)
	res, err := h.Engine.Reopen(i.ChannelID, actor)
	if err != nil {
		respond(s, i, rejectMessage(err), true)
		return
	}

	h.runIntents(s, i, res, actor)
	respond(s, i, lang.T("reopen.done"), false)
	h.Notifier.Publish(notify.EventReopened, actor.ID, res.Ticket)
}

func (h *Handler) handleDelete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	actor := h.actor(i)
	guildID := i.GuildID
	closedBy := i.Member.User.Username

	grace, err := h.Engine.ScheduleDelete(i.ChannelID, actor, func(t ticket.Ticket) {
		doc, err := h.generateTranscript(s, guildID, t, closedBy)
		if err != nil {
			log.Printf("Failed to generate final transcript for %s: %v", t.ChannelID, err)
		} else {
			h.sendToLogSink(s, &discordgo.MessageSend{Files: []*discordgo.File{docFile(doc)}})
		}
		h.Notifier.Publish(notify.EventDeleted, actor.ID, t)
		if _, err := s.ChannelDelete(t.ChannelID); err != nil {
			log.Printf("Failed to delete channel %s: %v", t.ChannelID, err)
		}
	})
	if err != nil {
		respond(s, i, rejectMessage(err), true)
		return
	}

	respond(s, i, lang.T("delete.countdown", "seconds", strconv.Itoa(int(grace/time.Second))), false)
}

// runIntents executes the platform side effects the engine owes after a
// claim, close or reopen. The transcript document is produced once and
// shared by the delivery intents that follow it in the list.
func (h *Handler) runIntents(s *discordgo.Session, i *discordgo.InteractionCreate, res ticket.Result, actor ticket.Actor) {
	t := res.Ticket
	var doc *transcript.Document

	for _, intent := range res.Intents {
		switch intent {
		case ticket.IntentRenameChannel:
			if _, err := s.ChannelEdit(t.ChannelID, &discordgo.ChannelEdit{Name: t.ChannelName()}); err != nil {
				log.Printf("Failed to rename %s: %v", t.ChannelID, err)
			}

		case ticket.IntentAnnounceClaim:
			_, _ = s.ChannelMessageSendEmbed(t.ChannelID, &discordgo.MessageEmbed{
				Color:       colorClaim,
				Description: lang.T("claim.announce", "user", actor.ID),
			})

		case ticket.IntentAnnounceReopen:
			// the reopen confirmation itself is posted by the handler

		case ticket.IntentRevokeSend:
			if err := s.ChannelPermissionSet(t.ChannelID, t.Opener, discordgo.PermissionOverwriteTypeMember,
				discordgo.PermissionViewChannel|discordgo.PermissionReadMessageHistory,
				discordgo.PermissionSendMessages); err != nil {
				log.Printf("Failed to revoke send for %s: %v", t.Opener, err)
			}

		case ticket.IntentRestoreSend:
			if err := s.ChannelPermissionSet(t.ChannelID, t.Opener, discordgo.PermissionOverwriteTypeMember,
				discordgo.PermissionViewChannel|discordgo.PermissionSendMessages|discordgo.PermissionAttachFiles|discordgo.PermissionReadMessageHistory,
				0); err != nil {
				log.Printf("Failed to restore send for %s: %v", t.Opener, err)
			}

		case ticket.IntentGenerateTranscript:
			d, err := h.generateTranscript(s, i.GuildID, t, i.Member.User.Username)
			if err != nil {
				log.Printf("Failed to generate transcript for %s: %v", t.ChannelID, err)
				continue
			}
			doc = &d

		case ticket.IntentNotifyOpener:
			// Best-effort: the opener may have DMs disabled.
			if doc == nil {
				continue
			}
			dm, err := s.UserChannelCreate(t.Opener)
			if err != nil {
				continue
			}
			_, _ = s.ChannelMessageSendComplex(dm.ID, &discordgo.MessageSend{
				Content: lang.T("close.done"),
				Files:   []*discordgo.File{docFile(*doc)},
			})

		case ticket.IntentNotifyLogSink:
			msg := &discordgo.MessageSend{
				Embeds: []*discordgo.MessageEmbed{{
					Title: fmt.Sprintf("Ticket #%d Closed", t.Number),
					Color: colorClosed,
					Fields: []*discordgo.MessageEmbedField{
						{Name: "Opened By", Value: fmt.Sprintf("<@%s>", t.Opener), Inline: true},
						{Name: "Closed By", Value: fmt.Sprintf("<@%s>", actor.ID), Inline: true},
						{Name: "Category", Value: t.Category.Label(), Inline: true},
						{Name: "Opened At", Value: t.CreatedAt, Inline: true},
					},
					Timestamp: time.Now().Format(time.RFC3339),
				}},
			}
			if doc != nil {
				msg.Files = []*discordgo.File{docFile(*doc)}
			}
			h.sendToLogSink(s, msg)

		case ticket.IntentPostClosedControls:
			_, _ = s.ChannelMessageSendComplex(t.ChannelID, &discordgo.MessageSend{
				Embeds: []*discordgo.MessageEmbed{{
					Color:       colorClosed,
					Description: lang.T("close.done"),
				}},
				Components: []discordgo.MessageComponent{
					discordgo.ActionsRow{Components: []discordgo.MessageComponent{
						discordgo.Button{Label: "Transcript", Style: discordgo.SecondaryButton, CustomID: idTranscript, Emoji: &discordgo.ComponentEmoji{Name: "🧾"}},
						discordgo.Button{Label: "Reopen", Style: discordgo.SuccessButton, CustomID: idReopen, Emoji: &discordgo.ComponentEmoji{Name: "🔓"}},
						discordgo.Button{Label: "Delete", Style: discordgo.DangerButton, CustomID: idDelete, Emoji: &discordgo.ComponentEmoji{Name: "🗑️"}},
					}},
				},
			})

		case ticket.IntentCreateChannel:
			// only emitted by Open, which handles creation itself
		}
	}
}

// sendToLogSink posts to the configured log channel, best-effort.
func (h *Handler) sendToLogSink(s *discordgo.Session, msg *discordgo.MessageSend) {
	setup, ok := h.Store.Setup()
	if !ok || setup.LogChannelID == "" {
		return
	}
	if _, err := s.ChannelMessageSendComplex(setup.LogChannelID, msg); err != nil {
		log.Printf("Failed to post to log channel: %v", err)
	}
}

// generateTranscript fetches the channel history and renders it in the
// configured format.
func (h *Handler) generateTranscript(s *discordgo.Session, guildID string, t ticket.Ticket, closedBy string) (transcript.Document, error) {
	raw, err := s.ChannelMessages(t.ChannelID, 100, "", "", "")
	if err != nil {
		return transcript.Document{}, err
	}

	// Discord returns newest first; transcripts read oldest first.
	msgs := make([]transcript.Message, 0, len(raw))
	for idx := len(raw) - 1; idx >= 0; idx-- {
		m := raw[idx]
		tm := transcript.Message{
			AuthorID:   m.Author.ID,
			AuthorName: m.Author.Username,
			Bot:        m.Author.Bot,
			Timestamp:  m.Timestamp,
			Content:    m.Content,
		}
		for _, a := range m.Attachments {
			tm.Attachments = append(tm.Attachments, a.URL)
		}
		msgs = append(msgs, tm)
	}

	guildName := guildID
	if g, err := s.State.Guild(guildID); err == nil {
		guildName = g.Name
	}

	return transcript.Generate(h.Format, transcript.Meta{
		GuildName:   guildName,
		ChannelName: t.ChannelName(),
		Ticket:      t,
		ClosedBy:    closedBy,
	}, msgs)
}

func docFile(doc transcript.Document) *discordgo.File {
	return &discordgo.File{
		Name:        doc.FileName,
		ContentType: doc.ContentType,
		Reader:      bytes.NewReader(doc.Body),
	}
}
