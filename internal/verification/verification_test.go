package verification

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	ledgerMocks "github.com/DF-AutoPilot/droneforce-functions/internal/ledger/mocks"
	"github.com/DF-AutoPilot/droneforce-functions/internal/model"
	"github.com/DF-AutoPilot/droneforce-functions/internal/repository"
	repoMocks "github.com/DF-AutoPilot/droneforce-functions/internal/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completedTask(id string) *model.Task {
	completed := time.Now().UTC()
	return &model.Task{
		ID:          id,
		Status:      model.TaskStatusCompleted,
		CompletedAt: &completed,
	}
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	in := Input{TaskID: "T1", ReportHash: "abc123", Decision: model.Pass()}

	t.Run("records passing verification", func(t *testing.T) {
		mRepo := new(repoMocks.MockTaskRepository)
		mLedger := new(ledgerMocks.MockClient)
		mRepo.On("FindByID", ctx, "T1").Return(completedTask("T1"), nil).Once()
		mLedger.On("Settle", ctx, "T1", true, "abc123").Return("tx-1", nil).Once()
		mRepo.On("RecordVerification", ctx, "T1", repository.VerificationUpdate{
			Result:        true,
			ReportHash:    "abc123",
			TransactionID: "tx-1",
		}).Return(nil).Once()

		out, err := New(mRepo, mLedger, nil).Verify(ctx, in)

		require.NoError(t, err)
		assert.True(t, out.Success)
		require.NotNil(t, out.TransactionID)
		assert.Equal(t, "tx-1", *out.TransactionID)
		mRepo.AssertExpectations(t)
		mLedger.AssertExpectations(t)
	})

	t.Run("records failing decision with reason", func(t *testing.T) {
		mRepo := new(repoMocks.MockTaskRepository)
		mLedger := new(ledgerMocks.MockClient)
		mRepo.On("FindByID", ctx, "T1").Return(completedTask("T1"), nil).Once()
		mLedger.On("Settle", ctx, "T1", false, "abc123").Return("tx-2", nil).Once()
		mRepo.On("RecordVerification", ctx, "T1", repository.VerificationUpdate{
			Result:        false,
			ReportHash:    "abc123",
			TransactionID: "tx-2",
		}).Return(nil).Once()

		out, err := New(mRepo, mLedger, nil).Verify(ctx, Input{
			TaskID:     "T1",
			ReportHash: "abc123",
			Decision:   model.Fail("altitude envelope exceeded"),
		})

		require.NoError(t, err)
		assert.True(t, out.Success)
		assert.Contains(t, out.Message, "altitude envelope exceeded")
		mRepo.AssertExpectations(t)
	})

	t.Run("task not found", func(t *testing.T) {
		mRepo := new(repoMocks.MockTaskRepository)
		mLedger := new(ledgerMocks.MockClient)
		mRepo.On("FindByID", ctx, "T1").Return(nil, sql.ErrNoRows).Once()

		out, err := New(mRepo, mLedger, nil).Verify(ctx, in)

		require.NoError(t, err)
		assert.False(t, out.Success)
		assert.Equal(t, "task not found", out.Message)
		mLedger.AssertNotCalled(t, "Settle")
	})

	t.Run("task lookup failure is retryable", func(t *testing.T) {
		mRepo := new(repoMocks.MockTaskRepository)
		mLedger := new(ledgerMocks.MockClient)
		mRepo.On("FindByID", ctx, "T1").Return(nil, errors.New("store down")).Once()

		_, err := New(mRepo, mLedger, nil).Verify(ctx, in)

		assert.Error(t, err)
		mLedger.AssertNotCalled(t, "Settle")
	})

	t.Run("task not completed", func(t *testing.T) {
		mRepo := new(repoMocks.MockTaskRepository)
		mLedger := new(ledgerMocks.MockClient)
		mRepo.On("FindByID", ctx, "T1").Return(&model.Task{
			ID:     "T1",
			Status: model.TaskStatusPending,
		}, nil).Once()

		out, err := New(mRepo, mLedger, nil).Verify(ctx, in)

		require.NoError(t, err)
		assert.False(t, out.Success)
		assert.Equal(t, "task not completed", out.Message)
		mLedger.AssertNotCalled(t, "Settle")
	})

	t.Run("already verified short-circuits before the ledger", func(t *testing.T) {
		mRepo := new(repoMocks.MockTaskRepository)
		mLedger := new(ledgerMocks.MockClient)
		task := completedTask("T1")
		result := true
		task.Status = model.TaskStatusVerified
		task.VerificationResult = &result
		mRepo.On("FindByID", ctx, "T1").Return(task, nil).Once()

		out, err := New(mRepo, mLedger, nil).Verify(ctx, in)

		require.NoError(t, err)
		assert.False(t, out.Success)
		assert.Equal(t, "already verified", out.Message)
		mLedger.AssertNotCalled(t, "Settle")
		mRepo.AssertNotCalled(t, "RecordVerification")
	})

	t.Run("settlement failure leaves task untouched", func(t *testing.T) {
		mRepo := new(repoMocks.MockTaskRepository)
		mLedger := new(ledgerMocks.MockClient)
		mRepo.On("FindByID", ctx, "T1").Return(completedTask("T1"), nil).Once()
		mLedger.On("Settle", ctx, "T1", true, "abc123").Return("", errors.New("timeout")).Once()

		out, err := New(mRepo, mLedger, nil).Verify(ctx, in)

		require.NoError(t, err)
		assert.False(t, out.Success)
		assert.Contains(t, out.Message, "settlement failed")
		mRepo.AssertNotCalled(t, "RecordVerification")
	})

	t.Run("write conflict means a concurrent run won", func(t *testing.T) {
		mRepo := new(repoMocks.MockTaskRepository)
		mLedger := new(ledgerMocks.MockClient)
		mRepo.On("FindByID", ctx, "T1").Return(completedTask("T1"), nil).Once()
		mLedger.On("Settle", ctx, "T1", true, "abc123").Return("tx-3", nil).Once()
		mRepo.On("RecordVerification", ctx, "T1", repository.VerificationUpdate{
			Result:        true,
			ReportHash:    "abc123",
			TransactionID: "tx-3",
		}).Return(repository.ErrVerificationConflict).Once()

		out, err := New(mRepo, mLedger, nil).Verify(ctx, in)

		require.NoError(t, err)
		assert.False(t, out.Success)
		assert.Equal(t, "already verified", out.Message)
	})

	t.Run("persistence failure is retryable", func(t *testing.T) {
		mRepo := new(repoMocks.MockTaskRepository)
		mLedger := new(ledgerMocks.MockClient)
		mRepo.On("FindByID", ctx, "T1").Return(completedTask("T1"), nil).Once()
		mLedger.On("Settle", ctx, "T1", true, "abc123").Return("tx-4", nil).Once()
		mRepo.On("RecordVerification", ctx, "T1", repository.VerificationUpdate{
			Result:        true,
			ReportHash:    "abc123",
			TransactionID: "tx-4",
		}).Return(errors.New("connection reset")).Once()

		_, err := New(mRepo, mLedger, nil).Verify(ctx, in)

		assert.Error(t, err)
	})
}
