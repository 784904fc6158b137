package mocks

import (
	"context"
	"time"

	"birthfire/internal/models"
)

// MockBirthdayJobStore is a mock implementation of store.BirthdayJobStore
// for testing.
type MockBirthdayJobStore struct {
	SubmitFunc      func(ctx context.Context, jobID, userID string, scheduledAt time.Time) error
	CancelFunc      func(ctx context.Context, jobID string) error
	FetchDueFunc    func(ctx context.Context, now time.Time, limit int) ([]models.BirthdayJob, error)
	LockFunc        func(ctx context.Context, jobID, lockedBy string) (bool, error)
	MarkSuccessFunc func(ctx context.Context, jobID string) error
	MarkFailureFunc func(ctx context.Context, jobID string, errMsg string, attempts, maxAttempts int) error
	UnlockStaleFunc func(ctx context.Context, timeout time.Duration) error
	CloseFunc       func() error
}

func (m *MockBirthdayJobStore) Submit(ctx context.Context, jobID, userID string, scheduledAt time.Time) error {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, jobID, userID, scheduledAt)
	}
	return nil
}

func (m *MockBirthdayJobStore) Cancel(ctx context.Context, jobID string) error {
	if m.CancelFunc != nil {
		return m.CancelFunc(ctx, jobID)
	}
	return nil
}

func (m *MockBirthdayJobStore) FetchDue(ctx context.Context, now time.Time, limit int) ([]models.BirthdayJob, error) {
	if m.FetchDueFunc != nil {
		return m.FetchDueFunc(ctx, now, limit)
	}
	return nil, nil
}

func (m *MockBirthdayJobStore) Lock(ctx context.Context, jobID, lockedBy string) (bool, error) {
	if m.LockFunc != nil {
		return m.LockFunc(ctx, jobID, lockedBy)
	}
	return true, nil
}

func (m *MockBirthdayJobStore) MarkSuccess(ctx context.Context, jobID string) error {
	if m.MarkSuccessFunc != nil {
		return m.MarkSuccessFunc(ctx, jobID)
	}
	return nil
}

func (m *MockBirthdayJobStore) MarkFailure(ctx context.Context, jobID string, errMsg string, attempts, maxAttempts int) error {
	if m.MarkFailureFunc != nil {
		return m.MarkFailureFunc(ctx, jobID, errMsg, attempts, maxAttempts)
	}
	return nil
}

func (m *MockBirthdayJobStore) UnlockStale(ctx context.Context, timeout time.Duration) error {
	if m.UnlockStaleFunc != nil {
		return m.UnlockStaleFunc(ctx, timeout)
	}
	return nil
}

func (m *MockBirthdayJobStore) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}
