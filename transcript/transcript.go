// Package transcript renders a ticket's message history into an archival
// document, either plain text or HTML. Messages authored by bots are
// excluded from both renderings.
package transcript

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"ticket-bot/ticket"
)

// Format selects the rendering.
type Format string

const (
	FormatText Format = "text"
	FormatHTML Format = "html"
)

func ParseFormat(s string) Format {
	if s == string(FormatText) {
		return FormatText
	}
	return FormatHTML
}

// Message is a transport-neutral view of one channel message, oldest-first
// when passed to Generate.
type Message struct {
	AuthorID    string
	AuthorName  string
	Bot         bool
	Timestamp   time.Time
	Content     string
	Attachments []string
}

// Meta describes the ticket the transcript belongs to.
type Meta struct {
	GuildName   string
	ChannelName string
	Ticket      ticket.Ticket
	ClosedBy    string
	GeneratedAt time.Time
}

// Document is a finished transcript ready to attach to a Discord message.
type Document struct {
	FileName    string
	ContentType string
	Body        []byte
}

//go:embed transcript.html.tmpl
var htmlTemplateText string

var htmlTemplate = template.Must(template.New("transcript").Parse(htmlTemplateText))

// Generate renders the transcript in the requested format.
func Generate(format Format, meta Meta, msgs []Message) (Document, error) {
	if meta.GeneratedAt.IsZero() {
		meta.GeneratedAt = time.Now()
	}
	switch format {
	case FormatText:
		return generateText(meta, msgs), nil
	default:
		return generateHTML(meta, msgs)
	}
}

func claimedByLine(t ticket.Ticket) string {
	if t.ClaimedBy == "" {
		return "Not Claimed"
	}
	return "<@" + t.ClaimedBy + ">"
}

func generateText(meta Meta, msgs []Message) Document {
	var sb strings.Builder
	sb.WriteString("Ticket Transcript\n")
	sb.WriteString("==============================\n\n")
	fmt.Fprintf(&sb, "Server     : %s\n", meta.GuildName)
	fmt.Fprintf(&sb, "Channel    : %s\n", meta.ChannelName)
	fmt.Fprintf(&sb, "Opened By  : <@%s>\n", meta.Ticket.Opener)
	fmt.Fprintf(&sb, "Category   : %s\n", meta.Ticket.Category.Label())
	fmt.Fprintf(&sb, "Claimed By : %s\n", claimedByLine(meta.Ticket))
	fmt.Fprintf(&sb, "Closed By  : %s\n", meta.ClosedBy)
	fmt.Fprintf(&sb, "Time       : %s\n", meta.GeneratedAt.Format("2006-01-02 15:04:05"))
	sb.WriteString("\n-----------------------------------\n\n")

	for _, m := range msgs {
		if m.Bot {
			continue
		}
		content := m.Content
		if content == "" && len(m.Attachments) > 0 {
			content = "[Attachment]"
		}
		fmt.Fprintf(&sb, "[%s] %s: %s\n", m.Timestamp.Format("15:04:05"), m.AuthorName, content)
		for _, a := range m.Attachments {
			fmt.Fprintf(&sb, "    %s\n", a)
		}
	}

	return Document{
		FileName:    meta.ChannelName + "-transcript.txt",
		ContentType: "text/plain",
		Body:        []byte(sb.String()),
	}
}

type htmlData struct {
	Meta      Meta
	ClaimedBy string
	Category  string
	Messages  []htmlMessage
}

type htmlMessage struct {
	AuthorName  string
	Timestamp   string
	Content     string
	Attachments []string
}

func generateHTML(meta Meta, msgs []Message) (Document, error) {
	data := htmlData{
		Meta:     meta,
		Category: meta.Ticket.Category.Label(),
	}
	data.ClaimedBy = "Not Claimed"
	if meta.Ticket.ClaimedBy != "" {
		data.ClaimedBy = "@" + meta.Ticket.ClaimedBy
	}
	for _, m := range msgs {
		if m.Bot {
			continue
		}
		data.Messages = append(data.Messages, htmlMessage{
			AuthorName:  m.AuthorName,
			Timestamp:   m.Timestamp.Format("2006-01-02 15:04:05"),
			Content:     m.Content,
			Attachments: m.Attachments,
		})
	}

	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, data); err != nil {
		return Document{}, fmt.Errorf("render transcript: %w", err)
	}
	return Document{
		FileName:    meta.ChannelName + "-transcript.html",
		ContentType: "text/html",
		Body:        buf.Bytes(),
	}, nil
}
