package mocks

import (
	"context"
	"sync"

	"birthfire/internal/models"
)

// MockSender records greeting deliveries for testing.
type MockSender struct {
	SendFunc func(ctx context.Context, user models.User) error

	mu   sync.Mutex
	sent []models.User
}

func (m *MockSender) Send(ctx context.Context, user models.User) error {
	m.mu.Lock()
	m.sent = append(m.sent, user)
	m.mu.Unlock()

	if m.SendFunc != nil {
		return m.SendFunc(ctx, user)
	}
	return nil
}

// Sent returns a copy of the delivered users in order.
func (m *MockSender) Sent() []models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, len(m.sent))
	copy(out, m.sent)
	return out
}
