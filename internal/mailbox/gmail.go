package mailbox

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/mail"

	"github.com/jhillyerd/enmime"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"

	"github.com/milltech-erp/procure-cli/internal/resilience"
)

const unreadLabel = "UNREAD"

// GmailGateway implements Gateway over the Gmail API. Clients come from
// a ClientCache; transient API errors are retried with backoff.
type GmailGateway struct {
	cache *ClientCache
	from  string
	retry resilience.RetryConfig
}

// NewGmailGateway returns a gateway sending as fromAddress.
func NewGmailGateway(cache *ClientCache, fromAddress string) *GmailGateway {
	return &GmailGateway{
		cache: cache,
		from:  fromAddress,
		retry: resilience.DefaultRetryConfig(),
	}
}

// ListMessages returns up to max messages matching the Gmail query.
func (g *GmailGateway) ListMessages(ctx context.Context, accountID, query string, max int64) ([]Message, error) {
	svc, err := g.cache.Service(ctx, accountID)
	if err != nil {
		return nil, err
	}

	cfg := g.retry
	cfg.OnRetry = resilience.RetryLogger("gmail", "list")
	resp, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*gmail.ListMessagesResponse, error) {
		return svc.Users.Messages.List("me").Q(query).MaxResults(max).Context(ctx).Do()
	})
	if err != nil {
		g.noteAuthError(accountID, err)
		return nil, eris.Wrapf(err, "mailbox: list messages for account %s", accountID)
	}

	messages := make([]Message, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		messages = append(messages, Message{ID: m.Id, ThreadID: m.ThreadId})
	}
	return messages, nil
}

// GetMessage fetches a message in raw form and decodes its MIME content.
func (g *GmailGateway) GetMessage(ctx context.Context, accountID, messageID string) (*ParsedMessage, error) {
	svc, err := g.cache.Service(ctx, accountID)
	if err != nil {
		return nil, err
	}

	cfg := g.retry
	cfg.OnRetry = resilience.RetryLogger("gmail", "get")
	msg, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*gmail.Message, error) {
		return svc.Users.Messages.Get("me", messageID).Format("raw").Context(ctx).Do()
	})
	if err != nil {
		g.noteAuthError(accountID, err)
		return nil, eris.Wrapf(err, "mailbox: get message %s", messageID)
	}

	raw, err := decodeWebSafe(msg.Raw)
	if err != nil {
		return nil, eris.Wrapf(err, "mailbox: decode message %s", messageID)
	}

	parsed, err := parseRaw(msg.Id, msg.ThreadId, raw)
	if err != nil {
		return nil, eris.Wrapf(err, "mailbox: parse message %s", messageID)
	}
	return parsed, nil
}

// MarkRead removes the unread label from a message.
func (g *GmailGateway) MarkRead(ctx context.Context, accountID, messageID string) error {
	svc, err := g.cache.Service(ctx, accountID)
	if err != nil {
		return err
	}

	cfg := g.retry
	cfg.OnRetry = resilience.RetryLogger("gmail", "modify")
	err = resilience.Do(ctx, cfg, func(ctx context.Context) error {
		_, err := svc.Users.Messages.Modify("me", messageID, &gmail.ModifyMessageRequest{
			RemoveLabelIds: []string{unreadLabel},
		}).Context(ctx).Do()
		return err
	})
	if err != nil {
		g.noteAuthError(accountID, err)
		return eris.Wrapf(err, "mailbox: mark read %s", messageID)
	}
	return nil
}

// Send sends an HTML email and returns the Gmail message ID.
func (g *GmailGateway) Send(ctx context.Context, accountID, to, subject, htmlBody string, cc, bcc []string) (string, error) {
	return g.send(ctx, accountID, to, subject, htmlBody, cc, bcc, nil)
}

// SendWithAttachments sends an HTML email with attachments.
func (g *GmailGateway) SendWithAttachments(ctx context.Context, accountID, to, subject, htmlBody string, atts []Attachment) (string, error) {
	return g.send(ctx, accountID, to, subject, htmlBody, nil, nil, atts)
}

func (g *GmailGateway) send(ctx context.Context, accountID, to, subject, htmlBody string, cc, bcc []string, atts []Attachment) (string, error) {
	svc, err := g.cache.Service(ctx, accountID)
	if err != nil {
		return "", err
	}

	raw, err := buildOutbound(g.from, to, subject, htmlBody, cc, bcc, atts)
	if err != nil {
		return "", err
	}

	cfg := g.retry
	cfg.OnRetry = resilience.RetryLogger("gmail", "send")
	sent, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*gmail.Message, error) {
		return svc.Users.Messages.Send("me", &gmail.Message{
			Raw: base64.RawURLEncoding.EncodeToString(raw),
		}).Context(ctx).Do()
	})
	if err != nil {
		g.noteAuthError(accountID, err)
		return "", eris.Wrapf(err, "mailbox: send to %s", to)
	}

	zap.L().Debug("email sent",
		zap.String("account_id", accountID),
		zap.String("to", to),
		zap.String("message_id", sent.Id),
	)
	return sent.Id, nil
}

// noteAuthError evicts the cached client when the API rejects our
// credentials, so the next call rebuilds from the stored token.
func (g *GmailGateway) noteAuthError(accountID string, err error) {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusUnauthorized {
		zap.L().Warn("mailbox auth error, invalidating cached client",
			zap.String("account_id", accountID))
		g.cache.Invalidate(accountID)
	}
}

// parseRaw decodes a raw RFC 2822 message into a ParsedMessage.
func parseRaw(messageID, threadID string, raw []byte) (*ParsedMessage, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, eris.Wrap(err, "read envelope")
	}

	parsed := &ParsedMessage{
		ID:       messageID,
		ThreadID: threadID,
		Subject:  env.GetHeader("Subject"),
		From:     env.GetHeader("From"),
		TextBody: env.Text,
		HTMLBody: env.HTML,
	}

	if dateHeader := env.GetHeader("Date"); dateHeader != "" {
		if date, err := mail.ParseDate(dateHeader); err == nil {
			parsed.Date = date
		}
	}

	for _, att := range env.Attachments {
		parsed.Attachments = append(parsed.Attachments, Attachment{
			Filename:    att.FileName,
			ContentType: att.ContentType,
			Data:        att.Content,
		})
	}
	// Inline parts with filenames count as attachments too (common for
	// quotation sheets pasted into the body).
	for _, att := range env.Inlines {
		if att.FileName != "" {
			parsed.Attachments = append(parsed.Attachments, Attachment{
				Filename:    att.FileName,
				ContentType: att.ContentType,
				Data:        att.Content,
			})
		}
	}

	return parsed, nil
}

// buildOutbound assembles a MIME message ready for the Gmail raw-send API.
func buildOutbound(from, to, subject, htmlBody string, cc, bcc []string, atts []Attachment) ([]byte, error) {
	toAddr, err := mail.ParseAddress(to)
	if err != nil {
		return nil, eris.Wrapf(err, "mailbox: parse recipient %q", to)
	}

	b := enmime.Builder().
		From("", from).
		To(toAddr.Name, toAddr.Address).
		Subject(subject).
		HTML([]byte(htmlBody))

	if len(cc) > 0 {
		addrs, err := parseAddressList(cc)
		if err != nil {
			return nil, eris.Wrap(err, "mailbox: parse cc")
		}
		b = b.CCAddrs(addrs)
	}
	if len(bcc) > 0 {
		addrs, err := parseAddressList(bcc)
		if err != nil {
			return nil, eris.Wrap(err, "mailbox: parse bcc")
		}
		b = b.BCCAddrs(addrs)
	}

	for _, att := range atts {
		b = b.AddAttachment(att.Data, att.ContentType, att.Filename)
	}

	root, err := b.Build()
	if err != nil {
		return nil, eris.Wrap(err, "mailbox: build mime message")
	}

	var buf bytes.Buffer
	if err := root.Encode(&buf); err != nil {
		return nil, eris.Wrap(err, "mailbox: encode mime message")
	}
	return buf.Bytes(), nil
}

func parseAddressList(raw []string) ([]mail.Address, error) {
	addrs := make([]mail.Address, 0, len(raw))
	for _, r := range raw {
		addr, err := mail.ParseAddress(r)
		if err != nil {
			return nil, eris.Wrapf(err, "parse address %q", r)
		}
		addrs = append(addrs, *addr)
	}
	return addrs, nil
}

// decodeWebSafe handles Gmail's URL-safe base64, with or without padding.
func decodeWebSafe(s string) ([]byte, error) {
	if raw, err := base64.URLEncoding.DecodeString(s); err == nil {
		return raw, nil
	}
	return base64.RawURLEncoding.DecodeString(s)
}
