package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPlanIsUnlimited(t *testing.T) {
	assert.False(t, (&Plan{CreditsPerPeriod: 4}).IsUnlimited())
	assert.False(t, (&Plan{CreditsPerPeriod: 8}).IsUnlimited())
	assert.False(t, (&Plan{CreditsPerPeriod: 98}).IsUnlimited())
	assert.True(t, (&Plan{CreditsPerPeriod: UnlimitedCredits}).IsUnlimited())
	assert.True(t, (&Plan{CreditsPerPeriod: 150}).IsUnlimited())
}

func TestBookingStatusIsTerminal(t *testing.T) {
	assert.False(t, BookingStatusBooked.IsTerminal())
	assert.True(t, BookingStatusCancelled.IsTerminal())
	assert.True(t, BookingStatusAttended.IsTerminal())
	assert.True(t, BookingStatusNoShow.IsTerminal())
}

func TestChildAge(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		birth time.Time
		age   int
	}{
		{"день рождения уже был", time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC), 7},
		{"день рождения еще впереди", time.Date(2019, 9, 1, 0, 0, 0, 0, time.UTC), 6},
		{"день рождения сегодня", time.Date(2019, 6, 15, 0, 0, 0, 0, time.UTC), 7},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			child := &Child{BirthDate: tc.birth}
			assert.Equal(t, tc.age, child.Age(now))
		})
	}
}
