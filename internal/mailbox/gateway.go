// Package mailbox provides per-account mailbox access for the RFQ
// pipeline: listing and fetching inbound vendor mail, marking it read,
// and sending acknowledgments and reminders.
package mailbox

import (
	"context"
	"time"
)

// Message is a lightweight inbox listing entry. Full content requires a
// GetMessage call.
type Message struct {
	ID       string
	ThreadID string
}

// Attachment is a decoded MIME attachment.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ParsedMessage is a fully fetched and MIME-decoded email.
type ParsedMessage struct {
	ID          string
	ThreadID    string
	Subject     string
	From        string // raw RFC 5322 From header
	Date        time.Time
	TextBody    string
	HTMLBody    string
	Attachments []Attachment
}

// Gateway abstracts mailbox access for one or more accounts. AccountID
// selects which mailbox to operate on; implementations own credential
// handling per account.
type Gateway interface {
	// ListMessages returns up to max messages matching the provider query.
	ListMessages(ctx context.Context, accountID, query string, max int64) ([]Message, error)

	// GetMessage fetches and decodes a single message.
	GetMessage(ctx context.Context, accountID, messageID string) (*ParsedMessage, error)

	// MarkRead clears the unread flag on a message.
	MarkRead(ctx context.Context, accountID, messageID string) error

	// Send sends an HTML email and returns the provider message ID.
	Send(ctx context.Context, accountID, to, subject, htmlBody string, cc, bcc []string) (string, error)

	// SendWithAttachments sends an HTML email with file attachments.
	SendWithAttachments(ctx context.Context, accountID, to, subject, htmlBody string, atts []Attachment) (string, error)
}
