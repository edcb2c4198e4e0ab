package mocks

import (
	"context"

	"github.com/DF-AutoPilot/droneforce-functions/internal/model"
	"github.com/DF-AutoPilot/droneforce-functions/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *MockTaskRepository) FindLatestCompleted(ctx context.Context) (*model.Task, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *MockTaskRepository) RecordVerification(ctx context.Context, id string, upd repository.VerificationUpdate) error {
	args := m.Called(ctx, id, upd)
	return args.Error(0)
}
