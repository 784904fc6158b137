package mocks

import (
	"context"

	"birthfire/internal/models"
)

// MockUserStore is a mock implementation of store.UserStore for testing.
type MockUserStore struct {
	CreateFunc                 func(ctx context.Context, user *models.User) (string, error)
	FindByIDFunc               func(ctx context.Context, userID string) (*models.User, error)
	UpdateFunc                 func(ctx context.Context, userID string, patch models.UserPatch) (*models.User, error)
	DeleteFunc                 func(ctx context.Context, userID string) error
	FindEligibleCandidatesFunc func(ctx context.Context, monthDays, excludedDates []string, verifiedOnly bool) ([]models.User, error)
	MarkDeliveredFunc          func(ctx context.Context, userID, today string) (bool, error)
	ScanAllFunc                func(ctx context.Context, fn func(models.User) error) error
	CloseFunc                  func() error
}

func (m *MockUserStore) Create(ctx context.Context, user *models.User) (string, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return "", nil
}

func (m *MockUserStore) FindByID(ctx context.Context, userID string) (*models.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockUserStore) Update(ctx context.Context, userID string, patch models.UserPatch) (*models.User, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, userID, patch)
	}
	return nil, nil
}

func (m *MockUserStore) Delete(ctx context.Context, userID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, userID)
	}
	return nil
}

func (m *MockUserStore) FindEligibleCandidates(ctx context.Context, monthDays, excludedDates []string, verifiedOnly bool) ([]models.User, error) {
	if m.FindEligibleCandidatesFunc != nil {
		return m.FindEligibleCandidatesFunc(ctx, monthDays, excludedDates, verifiedOnly)
	}
	return nil, nil
}

func (m *MockUserStore) MarkDelivered(ctx context.Context, userID, today string) (bool, error) {
	if m.MarkDeliveredFunc != nil {
		return m.MarkDeliveredFunc(ctx, userID, today)
	}
	return true, nil
}

func (m *MockUserStore) ScanAll(ctx context.Context, fn func(models.User) error) error {
	if m.ScanAllFunc != nil {
		return m.ScanAllFunc(ctx, fn)
	}
	return nil
}

func (m *MockUserStore) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}
