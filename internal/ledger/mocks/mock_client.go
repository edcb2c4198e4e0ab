package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) Settle(ctx context.Context, taskID string, result bool, reportHash string) (string, error) {
	args := m.Called(ctx, taskID, result, reportHash)
	return args.String(0), args.Error(1)
}
