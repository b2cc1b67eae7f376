package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShowtimeStale(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		startsAt time.Time
		want     bool
	}{
		{"future showtime", now.Add(time.Hour), false},
		{"started but inside the grace window", now.Add(-GraceWindow + time.Minute), false},
		{"aged past the grace window", now.Add(-GraceWindow - time.Minute), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Showtime{StartsAt: tt.startsAt}
			assert.Equal(t, tt.want, s.Stale(now))
		})
	}
}

func TestShowtimeTicketExpiry(t *testing.T) {
	start := time.Date(2026, time.March, 14, 18, 30, 0, 0, time.UTC)
	s := Showtime{StartsAt: start}

	assert.Equal(t, start.Add(GraceWindow), s.TicketExpiry())
}

func TestTicketExpired(t *testing.T) {
	now := time.Now()

	live := Ticket{ExpiresAt: now.Add(time.Minute)}
	assert.False(t, live.Expired(now))

	past := Ticket{ExpiresAt: now.Add(-time.Minute)}
	assert.True(t, past.Expired(now))
}
