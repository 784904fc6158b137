package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthDay(t *testing.T) {
	tests := []struct {
		birthday string
		want     string
	}{
		{"1990-12-14", "12-14"},
		{"2000-02-29", "02-29"},
		{"1985-01-01", "01-01"},
	}

	for _, test := range tests {
		got, err := MonthDay(test.birthday)
		require.NoError(t, err, test.birthday)
		assert.Equal(t, test.want, got)
	}
}

func TestMonthDay_Invalid(t *testing.T) {
	for _, birthday := range []string{"", "14-12-1990", "1990/12/14", "1990-02-30", "yesterday"} {
		_, err := MonthDay(birthday)
		assert.Error(t, err, birthday)
	}
}
