package accounts_test

import (
	"testing"
	"time"

	accounts "github.com/goliatone/go-chat-accounts"
	"github.com/stretchr/testify/assert"
)

func TestIsWithinThresholdPeriod(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		since     time.Time
		threshold time.Duration
		expected  bool
	}{
		{
			name:      "Within 1 hour threshold",
			since:     now.Add(-30 * time.Minute),
			threshold: time.Hour,
			expected:  true,
		},
		{
			name:      "Outside 1 hour threshold",
			since:     now.Add(-90 * time.Minute),
			threshold: time.Hour,
			expected:  false,
		},
		{
			name:      "At exact threshold boundary",
			since:     now.Add(-time.Hour),
			threshold: time.Hour,
			expected:  true,
		},
		{
			name:      "Since in the future",
			since:     now.Add(time.Hour),
			threshold: 2 * time.Hour,
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := accounts.IsWithinThresholdPeriod(now, tt.since, tt.threshold)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, !tt.expected, accounts.IsOutsideThresholdPeriod(now, tt.since, tt.threshold))
		})
	}
}
