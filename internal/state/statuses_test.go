package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidTransition(t *testing.T) {
	tests := []struct {
		name string
		from JobStatus
		to   JobStatus
		want bool
	}{
		{"claim queued job", StatusQueued, StatusProcessing, true},
		{"requeue after attempt", StatusProcessing, StatusQueued, true},
		{"retire exhausted job", StatusProcessing, StatusFailed, true},
		{"queued cannot fail directly", StatusQueued, StatusFailed, false},
		{"failed is terminal", StatusFailed, StatusProcessing, false},
		{"failed cannot requeue", StatusFailed, StatusQueued, false},
		{"no self transition", StatusProcessing, StatusProcessing, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, IsValidTransition(test.from, test.to))
		})
	}
}
