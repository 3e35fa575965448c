package transcript

import (
	"strings"
	"testing"
	"time"

	"ticket-bot/ticket"
)

func sampleMeta() Meta {
	return Meta{
		GuildName:   "Test Server",
		ChannelName: "closed-ticket-7",
		Ticket: ticket.Ticket{
			ChannelID: "ch-7",
			Number:    7,
			Opener:    "user-a",
			Category:  ticket.CategoryReport,
			ClaimedBy: "staff-s",
			Status:    ticket.StatusClosed,
		},
		ClosedBy:    "staff-s",
		GeneratedAt: time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
	}
}

func sampleMessages() []Message {
	at := time.Date(2026, 9, 1, 11, 30, 0, 0, time.UTC)
	return []Message{
		{AuthorID: "user-a", AuthorName: "alice", Timestamp: at, Content: "my order never arrived"},
		{AuthorID: "bot-1", AuthorName: "ticketbot", Bot: true, Timestamp: at, Content: "Hello alice, please describe your issue."},
		{AuthorID: "staff-s", AuthorName: "sam", Timestamp: at.Add(time.Minute), Content: "looking into it", Attachments: []string{"https://cdn.example/proof.png"}},
	}
}

func TestTextTranscript(t *testing.T) {
	doc, err := Generate(FormatText, sampleMeta(), sampleMessages())
	if err != nil {
		t.Fatal(err)
	}
	if doc.FileName != "closed-ticket-7-transcript.txt" {
		t.Errorf("FileName = %q", doc.FileName)
	}
	if doc.ContentType != "text/plain" {
		t.Errorf("ContentType = %q", doc.ContentType)
	}

	body := string(doc.Body)
	for _, want := range []string{
		"Server     : Test Server",
		"Opened By  : <@user-a>",
		"Category   : User Report",
		"Claimed By : <@staff-s>",
		"alice: my order never arrived",
		"sam: looking into it",
		"https://cdn.example/proof.png",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("text transcript missing %q", want)
		}
	}
	if strings.Contains(body, "ticketbot") {
		t.Error("bot message leaked into the transcript")
	}
}

func TestTextTranscriptUnclaimed(t *testing.T) {
	meta := sampleMeta()
	meta.Ticket.ClaimedBy = ""
	doc, err := Generate(FormatText, meta, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(doc.Body), "Claimed By : Not Claimed") {
		t.Error("unclaimed ticket not marked Not Claimed")
	}
}

func TestAttachmentOnlyMessage(t *testing.T) {
	msgs := []Message{{
		AuthorName:  "alice",
		Timestamp:   time.Now(),
		Attachments: []string{"https://cdn.example/shot.png"},
	}}
	doc, err := Generate(FormatText, sampleMeta(), msgs)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(doc.Body), "alice: [Attachment]") {
		t.Errorf("attachment-only message rendered wrong:\n%s", doc.Body)
	}
}

func TestHTMLTranscript(t *testing.T) {
	doc, err := Generate(FormatHTML, sampleMeta(), sampleMessages())
	if err != nil {
		t.Fatal(err)
	}
	if doc.FileName != "closed-ticket-7-transcript.html" {
		t.Errorf("FileName = %q", doc.FileName)
	}
	if doc.ContentType != "text/html" {
		t.Errorf("ContentType = %q", doc.ContentType)
	}

	body := string(doc.Body)
	for _, want := range []string{"Test Server", "alice", "my order never arrived", "https://cdn.example/proof.png"} {
		if !strings.Contains(body, want) {
			t.Errorf("html transcript missing %q", want)
		}
	}
	if strings.Contains(body, "ticketbot") {
		t.Error("bot message leaked into the html transcript")
	}
}

func TestHTMLTranscriptEscapesContent(t *testing.T) {
	msgs := []Message{{
		AuthorName: "mallory",
		Timestamp:  time.Now(),
		Content:    `<script>alert("x")</script>`,
	}}
	doc, err := Generate(FormatHTML, sampleMeta(), msgs)
	if err != nil {
		t.Fatal(err)
	}
	body := string(doc.Body)
	if strings.Contains(body, "<script>alert") {
		t.Fatal("message content not escaped")
	}
	if !strings.Contains(body, "&lt;script&gt;") {
		t.Error("escaped content not found")
	}
}

func TestParseFormat(t *testing.T) {
	if ParseFormat("text") != FormatText {
		t.Error(`ParseFormat("text")`)
	}
	// Anything else falls back to HTML, the default format.
	if ParseFormat("html") != FormatHTML || ParseFormat("") != FormatHTML {
		t.Error("ParseFormat default")
	}
}
