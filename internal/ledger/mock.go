package ledger

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// mockClient settles without external I/O and always succeeds. Each
// call yields a unique opaque transaction id.
type mockClient struct{}

// NewMock returns the mock settlement client.
func NewMock() Client {
	return &mockClient{}
}

func (c *mockClient) Settle(_ context.Context, taskID string, _ bool, _ string) (string, error) {
	if taskID == "" {
		return "", fmt.Errorf("%w: empty task id", ErrSettlementFailed)
	}
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSettlementFailed, err)
	}
	return fmt.Sprintf("mock-tx-%d-%s", time.Now().UnixNano(), hex.EncodeToString(suffix)), nil
}
