package mailbox

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockGateway is a testify mock implementation of Gateway.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) ListMessages(ctx context.Context, accountID, query string, max int64) ([]Message, error) {
	args := m.Called(ctx, accountID, query, max)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Message), args.Error(1)
}

func (m *MockGateway) GetMessage(ctx context.Context, accountID, messageID string) (*ParsedMessage, error) {
	args := m.Called(ctx, accountID, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ParsedMessage), args.Error(1)
}

func (m *MockGateway) MarkRead(ctx context.Context, accountID, messageID string) error {
	args := m.Called(ctx, accountID, messageID)
	return args.Error(0)
}

func (m *MockGateway) Send(ctx context.Context, accountID, to, subject, htmlBody string, cc, bcc []string) (string, error) {
	args := m.Called(ctx, accountID, to, subject, htmlBody, cc, bcc)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) SendWithAttachments(ctx context.Context, accountID, to, subject, htmlBody string, atts []Attachment) (string, error) {
	args := m.Called(ctx, accountID, to, subject, htmlBody, atts)
	return args.String(0), args.Error(1)
}
