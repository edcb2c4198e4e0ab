package mocks

import (
	"context"

	"github.com/DF-AutoPilot/droneforce-functions/internal/model"
	"github.com/DF-AutoPilot/droneforce-functions/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockProvenanceRepository struct {
	mock.Mock
}

func (m *MockProvenanceRepository) Insert(ctx context.Context, rec *model.FileProvenanceRecord) (*model.FileProvenanceRecord, error) {
	args := m.Called(ctx, rec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FileProvenanceRecord), args.Error(1)
}

func (m *MockProvenanceRepository) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.FileProvenanceRecord], error) {
	args := m.Called(ctx, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.FileProvenanceRecord]), args.Error(1)
}
