package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Ticket is one seat-hold for one user at one showtime, together with the
// signed QR code that redeems it. A ticket starts unused and not deleted, and
// ends in exactly one of two terminal states: used (checked in) or deleted
// (cancelled). Expiry is a derived sub-state of the active ticket, enforced
// against ExpiresAt rather than anything inside the code itself.
type Ticket struct {
	ID           uuid.UUID
	UserID       int
	MembershipID *int
	ShowtimeID   int
	Seat         string
	Code         string
	Free         bool
	Used         bool
	Deleted      bool
	IsValid      bool
	RegisteredAt time.Time
	ExpiresAt    time.Time
}

func (t *Ticket) Expired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}

// TicketSummary decorates a ticket with the movie context shown to the user
// and to door staff.
type TicketSummary struct {
	Ticket
	MovieTitle    string
	MovieGenre    string
	ShowtimeStart time.Time
}

type TicketRepository interface {
	// AssignSeat atomically inserts the ticket, claims its seat in the seat
	// map, and debits the membership (one quota unit, or the showtime's movie
	// appended to a film-fest pass's used set). membership may be nil for
	// free-entry showtimes. On success the in-memory membership counters are
	// updated to match the stored state. Returns ErrSeatAlreadyAssigned when
	// the seat claim loses the race and ErrInsufficientQuota when the guarded
	// debit finds no quota left; in both cases nothing is persisted.
	AssignSeat(ctx context.Context, ticket *Ticket, membership *Membership) error

	// GetByCredential looks a ticket up by the exact tuple embedded in a
	// verified QR credential. All four values must match.
	GetByCredential(ctx context.Context, id uuid.UUID, userID int, seat, code string) (*Ticket, error)

	// MarkUsed flips used=false to used=true. The update is conditional, so
	// concurrent redemptions of the same ticket see exactly one true result.
	MarkUsed(ctx context.Context, id uuid.UUID) (bool, error)

	// MarkExpired lowers the cached validity flag of a ticket whose
	// expiration has passed. Write-side cache only; never consulted to
	// authorize anything.
	MarkExpired(ctx context.Context, id uuid.UUID) error

	// Cancel flips deleted, releases the seat, and credits the ledger in one
	// all-or-nothing transaction. basePlan seeds the fresh grant used when the
	// owner has no membership left to credit. Returns ErrRecordNotFound when
	// the ticket is missing, already used, or already cancelled.
	Cancel(ctx context.Context, id uuid.UUID, userID int, basePlan *Plan) (*Ticket, error)

	GetAllByUser(ctx context.Context, userID int) ([]TicketSummary, error)
	CountFreeByUserAndMovie(ctx context.Context, userID, movieID int) (int, error)
	ExistsActiveByUserAndShowtime(ctx context.Context, userID, showtimeID int) (bool, error)
}
