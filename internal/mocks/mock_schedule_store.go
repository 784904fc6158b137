package mocks

import "context"

// MockScheduleStore is a mock implementation of store.ScheduleStore for
// testing.
type MockScheduleStore struct {
	GetFunc    func(ctx context.Context, userID string) (string, error)
	SetFunc    func(ctx context.Context, userID, jobID string) error
	DeleteFunc func(ctx context.Context, userID string) error
	CloseFunc  func() error
}

func (m *MockScheduleStore) Get(ctx context.Context, userID string) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID)
	}
	return "", nil
}

func (m *MockScheduleStore) Set(ctx context.Context, userID, jobID string) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, userID, jobID)
	}
	return nil
}

func (m *MockScheduleStore) Delete(ctx context.Context, userID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, userID)
	}
	return nil
}

func (m *MockScheduleStore) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}
