package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to RequestStatus
		want     bool
	}{
		{RequestPending, RequestMatched, true},
		{RequestMatched, RequestCompleted, true},
		{RequestPending, RequestCancelled, true},
		{RequestMatched, RequestCancelled, true},
		{RequestCompleted, RequestCancelled, true},
		{RequestPending, RequestCompleted, false},
		{RequestCompleted, RequestMatched, false},
		{RequestCancelled, RequestPending, false},
		{RequestMatched, RequestPending, false},
		{"bogus", RequestCancelled, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestRequestStatus_Terminal(t *testing.T) {
	assert.True(t, RequestCompleted.Terminal())
	assert.True(t, RequestCancelled.Terminal())
	assert.False(t, RequestPending.Terminal())
	assert.False(t, RequestMatched.Terminal())
}

func TestUrgency_Valid(t *testing.T) {
	for _, u := range []Urgency{UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyEmergency} {
		assert.True(t, u.Valid(), u)
	}
	assert.Equal(t, Urgency("emergency"), UrgencyEmergency)
	assert.False(t, Urgency("critical").Valid())
	assert.False(t, Urgency("").Valid())
}

func TestPriorityForUrgency(t *testing.T) {
	assert.Equal(t, PriorityHigh, PriorityForUrgency(UrgencyEmergency))
	assert.Equal(t, PriorityHigh, PriorityForUrgency(UrgencyHigh))
	assert.Equal(t, PriorityMedium, PriorityForUrgency(UrgencyMedium))
	assert.Equal(t, PriorityLow, PriorityForUrgency(UrgencyLow))
}
