package mailbox

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/jhillyerd/enmime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRawEmail = "From: Acme Industrial Supplies <sales@acme.example.com>\r\n" +
	"To: procurement@mill.example.com\r\n" +
	"Subject: RE: RFQ-2025-0007 - Quotation\r\n" +
	"Date: Mon, 14 Jul 2025 10:30:00 +0530\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Please find our quote below.\r\n" +
	"Unit price: Rs. 1,250.00 per bearing assembly.\r\n"

func TestParseRawPlainText(t *testing.T) {
	parsed, err := parseRaw("msg-1", "thread-1", []byte(sampleRawEmail))
	require.NoError(t, err)

	assert.Equal(t, "msg-1", parsed.ID)
	assert.Equal(t, "thread-1", parsed.ThreadID)
	assert.Equal(t, "RE: RFQ-2025-0007 - Quotation", parsed.Subject)
	assert.Contains(t, parsed.From, "sales@acme.example.com")
	assert.Contains(t, parsed.TextBody, "Rs. 1,250.00")
	assert.Empty(t, parsed.HTMLBody)
	assert.Equal(t, 2025, parsed.Date.Year())
	assert.Empty(t, parsed.Attachments)
}

func TestParseRawWithAttachment(t *testing.T) {
	root, err := enmime.Builder().
		From("Acme", "sales@acme.example.com").
		To("", "procurement@mill.example.com").
		Subject("RFQ-2025-0011 quotation attached").
		Text([]byte("see attached")).
		AddAttachment([]byte("item,price\nbearing,1250"), "text/csv", "quote.csv").
		Build()
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, root.Encode(&sb))

	parsed, err := parseRaw("msg-2", "thread-2", []byte(sb.String()))
	require.NoError(t, err)

	require.Len(t, parsed.Attachments, 1)
	assert.Equal(t, "quote.csv", parsed.Attachments[0].Filename)
	assert.Contains(t, string(parsed.Attachments[0].Data), "bearing,1250")
}

func TestBuildOutboundRoundTrip(t *testing.T) {
	raw, err := buildOutbound(
		"procurement@mill.example.com",
		"Acme Sales <sales@acme.example.com>",
		"Quotation Received - RFQ-2025-0007",
		"<p>Thank you for your quotation.</p>",
		[]string{"buyer@mill.example.com"},
		nil,
		nil,
	)
	require.NoError(t, err)

	env, err := enmime.ReadEnvelope(strings.NewReader(string(raw)))
	require.NoError(t, err)

	assert.Contains(t, env.GetHeader("To"), "sales@acme.example.com")
	assert.Contains(t, env.GetHeader("Cc"), "buyer@mill.example.com")
	assert.Equal(t, "Quotation Received - RFQ-2025-0007", env.GetHeader("Subject"))
	assert.Contains(t, env.HTML, "Thank you")
}

func TestBuildOutboundBadRecipient(t *testing.T) {
	_, err := buildOutbound("from@mill.example.com", "not-an-address", "s", "<p>b</p>", nil, nil, nil)
	require.Error(t, err)
}

func TestDecodeWebSafe(t *testing.T) {
	payload := []byte("raw email bytes!")

	padded := base64.URLEncoding.EncodeToString(payload)
	got, err := decodeWebSafe(padded)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	unpadded := base64.RawURLEncoding.EncodeToString(payload)
	got, err = decodeWebSafe(unpadded)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}
