package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubscription_IsCurrentlyActive(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name   string
		status SubscriptionStatus
		end    time.Time
		want   bool
	}{
		{"active with future end date", SubscriptionStatusActive, now.Add(24 * time.Hour), true},
		{"active but expired by date", SubscriptionStatusActive, now.Add(-time.Minute), false},
		{"pending is not active", SubscriptionStatusPending, now.Add(24 * time.Hour), false},
		{"cancelled is not active", SubscriptionStatusCancelled, now.Add(24 * time.Hour), false},
		{"expired is not active", SubscriptionStatusExpired, now.Add(24 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := &Subscription{Status: tt.status, EndDate: tt.end}
			assert.Equal(t, tt.want, sub.IsCurrentlyActive(now))
		})
	}
}

func TestSubscription_RemainingDays(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name string
		end  time.Time
		want int
	}{
		{"exactly 30 days", now.Add(30 * 24 * time.Hour), 30},
		{"partial day rounds up", now.Add(30*24*time.Hour - time.Hour), 30},
		{"one hour left counts as a day", now.Add(time.Hour), 1},
		{"already ended", now.Add(-time.Hour), 0},
		{"ends exactly now", now, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := &Subscription{EndDate: tt.end}
			assert.Equal(t, tt.want, sub.RemainingDays(now))
		})
	}
}

func TestSubscriptionStatus_IsTerminal(t *testing.T) {
	assert.False(t, SubscriptionStatusPending.IsTerminal())
	assert.False(t, SubscriptionStatusActive.IsTerminal())
	assert.True(t, SubscriptionStatusExpired.IsTerminal())
	assert.True(t, SubscriptionStatusCancelled.IsTerminal())
}
