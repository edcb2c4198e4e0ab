package mocks

import (
	"context"
	"time"

	"github.com/DF-AutoPilot/droneforce-functions/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) DownloadToFile(ctx context.Context, key, dir string) (string, error) {
	args := m.Called(ctx, key, dir)
	if f, ok := args.Get(0).(func(context.Context, string, string) string); ok {
		return f(ctx, key, dir), args.Error(1)
	}
	return args.String(0), args.Error(1)
}

func (m *MockStorage) Stat(ctx context.Context, key string) (storage.ObjectInfo, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(storage.ObjectInfo), args.Error(1)
}

func (m *MockStorage) SetObjectTags(ctx context.Context, key string, tags map[string]string) error {
	args := m.Called(ctx, key, tags)
	return args.Error(0)
}

func (m *MockStorage) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, key, expiry)
	return args.String(0), args.Error(1)
}
