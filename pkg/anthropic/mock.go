package anthropic

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockClient is a testify mock of Client for use in pipeline tests.
type MockClient struct {
	mock.Mock
}

var _ Client = (*MockClient)(nil)

func (m *MockClient) CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	args := m.Called(ctx, req)
	if resp, ok := args.Get(0).(*MessageResponse); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}

// TextResponse builds a single-text-block response, the common fixture
// shape in extractor tests.
func TextResponse(text string) *MessageResponse {
	return &MessageResponse{
		ID:      "msg_test",
		Content: []ContentBlock{{Type: "text", Text: text}},
	}
}
