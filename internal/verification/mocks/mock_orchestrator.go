package mocks

import (
	"context"

	"github.com/DF-AutoPilot/droneforce-functions/internal/model"
	"github.com/DF-AutoPilot/droneforce-functions/internal/verification"

	"github.com/stretchr/testify/mock"
)

type MockOrchestrator struct {
	mock.Mock
}

func (m *MockOrchestrator) Verify(ctx context.Context, in verification.Input) (model.VerificationOutcome, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(model.VerificationOutcome), args.Error(1)
}
