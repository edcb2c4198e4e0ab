package resolver

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DF-AutoPilot/droneforce-functions/internal/model"
	repoMocks "github.com/DF-AutoPilot/droneforce-functions/internal/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("metadata task id wins over path token", func(t *testing.T) {
		mRepo := new(repoMocks.MockTaskRepository)
		r := New(mRepo, nil)

		id, err := r.Resolve(ctx, "logs/task-T2/flight.bin", Metadata{TaskID: "T1"})

		require.NoError(t, err)
		assert.Equal(t, "T1", id)
		mRepo.AssertNotCalled(t, "FindLatestCompleted")
	})

	t.Run("metadata id returned verbatim without existence check", func(t *testing.T) {
		mRepo := new(repoMocks.MockTaskRepository)
		r := New(mRepo, nil)

		id, err := r.Resolve(ctx, "logs/flight.bin", Metadata{TaskID: "does-not-exist"})

		require.NoError(t, err)
		assert.Equal(t, "does-not-exist", id)
		mRepo.AssertExpectations(t)
	})

	t.Run("path token extracted when metadata absent", func(t *testing.T) {
		mRepo := new(repoMocks.MockTaskRepository)
		r := New(mRepo, nil)

		id, err := r.Resolve(ctx, "logs/task-ABC123/flight.bin", Metadata{})

		require.NoError(t, err)
		assert.Equal(t, "ABC123", id)
		mRepo.AssertNotCalled(t, "FindLatestCompleted")
	})

	t.Run("first path token wins", func(t *testing.T) {
		mRepo := new(repoMocks.MockTaskRepository)
		r := New(mRepo, nil)

		id, err := r.Resolve(ctx, "logs/task-ONE/nested/task-TWO.bin", Metadata{})

		require.NoError(t, err)
		assert.Equal(t, "ONE", id)
	})

	t.Run("falls back to latest completed task", func(t *testing.T) {
		mRepo := new(repoMocks.MockTaskRepository)
		completed := time.Now().UTC()
		mRepo.On("FindLatestCompleted", ctx).Return(&model.Task{
			ID:          "T9",
			Status:      model.TaskStatusCompleted,
			CompletedAt: &completed,
		}, nil).Once()
		r := New(mRepo, nil)

		id, err := r.Resolve(ctx, "logs/flight.bin", Metadata{})

		require.NoError(t, err)
		assert.Equal(t, "T9", id)
		mRepo.AssertExpectations(t)
	})

	t.Run("no completed task resolves to unresolved", func(t *testing.T) {
		mRepo := new(repoMocks.MockTaskRepository)
		mRepo.On("FindLatestCompleted", ctx).Return(nil, sql.ErrNoRows).Once()
		r := New(mRepo, nil)

		id, err := r.Resolve(ctx, "logs/flight.bin", Metadata{})

		assert.ErrorIs(t, err, ErrTaskUnresolved)
		assert.Empty(t, id)
	})

	t.Run("query failure treated like unresolved", func(t *testing.T) {
		mRepo := new(repoMocks.MockTaskRepository)
		mRepo.On("FindLatestCompleted", ctx).Return(nil, errors.New("store down")).Once()
		r := New(mRepo, nil)

		id, err := r.Resolve(ctx, "logs/flight.bin", Metadata{})

		assert.ErrorIs(t, err, ErrTaskUnresolved)
		assert.Empty(t, id)
	})
}
