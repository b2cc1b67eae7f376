package domain

import (
	"context"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

type PlanKind string

const (
	PlanStandard PlanKind = "standard"
	PlanFilmFest PlanKind = "filmfest"
)

// Membership is one quota grant for one user. Standard plans carry a counted
// ticket quota (AvailQR); film-fest plans instead carry a capped set of parent
// movies already booked against the pass. A user holds at most one valid
// membership at a time; new grants must first invalidate any survivor.
//
// IsValid mirrors the stored cache column. It is maintained on the write side
// so dashboards can filter on it, but business decisions always re-derive
// liveness through Live.
type Membership struct {
	ID          int
	UserID      int
	Plan        string
	Kind        PlanKind
	TxnID       string
	Validity    time.Duration
	AvailQR     int
	Amount      decimal.Decimal
	MovieCount  int
	MoviesUsed  []int
	IsValid     bool
	PurchasedAt time.Time
	ExpiresAt   time.Time
}

// Live re-derives whether the membership can still authorize a booking from
// its expiry and quota, ignoring the cached IsValid flag.
func (m *Membership) Live(now time.Time) bool {
	if m.ExpiresAt.Before(now) {
		return false
	}

	return !m.Exhausted()
}

// Exhausted reports whether the quota side of the membership is spent.
func (m *Membership) Exhausted() bool {
	if m.Kind == PlanFilmFest {
		return len(m.MoviesUsed) >= m.MovieCount
	}

	return m.AvailQR <= 0
}

func (m *Membership) HasMovie(movieID int) bool {
	return slices.Contains(m.MoviesUsed, movieID)
}

type MembershipRepository interface {
	// GetCurrentValid returns the user's membership whose cached validity
	// flag is still raised, or ErrRecordNotFound. Callers are expected to run
	// InvalidateStale first so the flag has been reconciled with quota and
	// expiry.
	GetCurrentValid(ctx context.Context, userID int) (*Membership, error)

	GetAllByUser(ctx context.Context, userID int) ([]Membership, error)

	Create(ctx context.Context, m *Membership) error

	// InvalidateStale lowers the validity flag (and zeroes standard quota) of
	// every membership of the user whose expiry has passed or whose quota is
	// exhausted.
	InvalidateStale(ctx context.Context, userID int, now time.Time) error
}
