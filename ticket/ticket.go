package ticket

import "fmt"

// Status is the lifecycle state of a ticket. Claimed counts as "open for
// business"; only Closed tickets can be reopened or deleted.
type Status string

const (
	StatusOpen    Status = "open"
	StatusClaimed Status = "claimed"
	StatusClosed  Status = "closed"
)

// Category is one of the fixed panel categories. The set is closed; runtime
// category management is deliberately not supported.
type Category string

const (
	CategoryGeneral Category = "general"
	CategoryPartner Category = "partner"
	CategoryReport  Category = "report"
	CategoryStore   Category = "store"
	CategoryAppeal  Category = "appeal"
)

// Categories lists every category in panel order.
var Categories = []Category{
	CategoryGeneral,
	CategoryPartner,
	CategoryReport,
	CategoryStore,
	CategoryAppeal,
}

var categoryLabels = map[Category]string{
	CategoryGeneral: "General Support",
	CategoryPartner: "Partnership Request",
	CategoryReport:  "User Report",
	CategoryStore:   "Store / Purchases",
	CategoryAppeal:  "Appeal",
}

var categoryEmojis = map[Category]string{
	CategoryGeneral: "💬",
	CategoryPartner: "🤝",
	CategoryReport:  "🚨",
	CategoryStore:   "🛒",
	CategoryAppeal:  "📩",
}

func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	_, ok := categoryLabels[c]
	return c, ok
}

func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

func (c Category) Emoji() string { return categoryEmojis[c] }

// Ticket is one support ticket, keyed by the backing channel's ID.
type Ticket struct {
	ChannelID string   `json:"channel_id" bson:"channel_id"`
	Number    int      `json:"number"     bson:"number"`
	Opener    string   `json:"opener"     bson:"opener"`
	Category  Category `json:"category"   bson:"category"`
	ClaimedBy string   `json:"claimed_by,omitempty" bson:"claimed_by,omitempty"`
	Status    Status   `json:"status"     bson:"status"`
	CreatedAt string   `json:"created_at" bson:"created_at"`
}

// ChannelName derives the display name from the sequence number and status
// alone. Names are never rewritten from the previous name, so rapid
// transitions cannot stack prefixes.
func ChannelName(number int, status Status) string {
	switch status {
	case StatusClaimed:
		return fmt.Sprintf("claimed-ticket-%d", number)
	case StatusClosed:
		return fmt.Sprintf("closed-ticket-%d", number)
	default:
		return fmt.Sprintf("ticket-%d", number)
	}
}

func (t Ticket) ChannelName() string { return ChannelName(t.Number, t.Status) }

// Setup is the guild-level configuration established by /setup. Ticket
// creation is refused until both channels are known.
type Setup struct {
	CategoryID   string `json:"categoryId"   bson:"category_id"`
	LogChannelID string `json:"logChannelId" bson:"log_channel_id"`
}

func (s Setup) Complete() bool { return s.CategoryID != "" && s.LogChannelID != "" }

// Store persists ticket records, the guild setup and the monotonic sequence
// counter. Implementations must be safe for concurrent use, and NextSequence
// must be atomic with its own persist.
type Store interface {
	Setup() (Setup, bool)
	SaveSetup(Setup) error

	Ticket(channelID string) (Ticket, bool)
	PutTicket(Ticket) error
	RemoveTicket(channelID string) error
	Tickets() []Ticket

	// NextSequence returns the current counter value and persists the
	// incremented one. Issued numbers are never reused, even for tickets
	// that are later deleted.
	NextSequence() (int, error)

	Close() error
}
