package domain

import (
	"context"
	"time"
)

// GraceWindow is how long after its start time a showtime is still considered
// live. Occupancy and booking requests for older showtimes are rejected, and a
// ticket stays redeemable until showtime start + GraceWindow.
const GraceWindow = 3 * time.Hour

type Showtime struct {
	ID         int
	MovieID    int
	MovieTitle string
	MovieGenre string
	Free       bool
	StartsAt   time.Time
}

// Stale reports whether the showtime has aged out of the booking window.
func (s *Showtime) Stale(now time.Time) bool {
	return s.StartsAt.Before(now.Add(-GraceWindow))
}

// TicketExpiry is the expiration timestamp stamped on tickets issued for this
// showtime.
func (s *Showtime) TicketExpiry() time.Time {
	return s.StartsAt.Add(GraceWindow)
}

type ShowtimeRepository interface {
	GetById(ctx context.Context, id int) (*Showtime, error)
}
