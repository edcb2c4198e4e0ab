package mocks

import (
	"context"

	"github.com/DF-AutoPilot/droneforce-functions/internal/resolver"

	"github.com/stretchr/testify/mock"
)

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, filePath string, meta resolver.Metadata) (string, error) {
	args := m.Called(ctx, filePath, meta)
	return args.String(0), args.Error(1)
}
