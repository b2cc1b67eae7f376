package repository

import (
	"context"
	"errors"
	"time"

	"github.com/filmsociety/ticketing/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresTicketRepository struct {
	db *pgxpool.Pool
}

func NewPostgresTicketRepository(db *pgxpool.Pool) *PostgresTicketRepository {
	return &PostgresTicketRepository{
		db: db,
	}
}

// AssignSeat runs the whole per-seat unit of work in one transaction: ticket
// insert, seat-map claim, ledger debit. Any failure rolls all three back, so a
// lost seat race or an exhausted quota leaves no trace.
func (p *PostgresTicketRepository) AssignSeat(
	ctx context.Context,
	ticket *domain.Ticket,
	membership *domain.Membership) error {

	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO tickets (id, user_id, membership_id, showtime_id, seat, code, free, expires_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING registered_at
		`

		err := tx.QueryRow(
			ctx,
			query,
			ticket.ID,
			ticket.UserID,
			ticket.MembershipID,
			ticket.ShowtimeID,
			ticket.Seat,
			ticket.Code,
			ticket.Free,
			ticket.ExpiresAt,
		).Scan(&ticket.RegisteredAt)

		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
				return domain.ErrEditConflict
			}

			return err
		}

		ticket.IsValid = true

		err = claimSeat(ctx, tx, ticket.ShowtimeID, ticket.Seat, ticket.ID)
		if err != nil {
			return err
		}

		if membership == nil {
			return nil
		}

		if membership.Kind == domain.PlanFilmFest {
			return debitFilmFest(ctx, tx, membership, ticket.ShowtimeID)
		}

		return debitStandard(ctx, tx, membership)
	})
}

// debitStandard decrements one quota unit under an avail_qr > 0 guard, so the
// counter can never go negative even when validation raced. The cached
// validity flag drops in the same statement as the last unit.
func debitStandard(ctx context.Context, tx pgx.Tx, membership *domain.Membership) error {
	query := `
		UPDATE memberships
		SET avail_qr = avail_qr - 1, is_valid = avail_qr - 1 > 0
		WHERE id = $1 AND avail_qr > 0
		RETURNING avail_qr, is_valid
	`

	err := tx.QueryRow(ctx, query, membership.ID).Scan(&membership.AvailQR, &membership.IsValid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrInsufficientQuota
		}

		return err
	}

	return nil
}

// debitFilmFest appends the showtime's parent movie to the pass's used set,
// but only when it is absent and the movie cap still has room. Booking a
// second seat for an already-used movie costs nothing.
func debitFilmFest(ctx context.Context, tx pgx.Tx, membership *domain.Membership, showtimeID int) error {
	query := `
		UPDATE memberships m
		SET movies_used = m.movies_used || s.movie_id,
		    is_valid = cardinality(m.movies_used) + 1 < m.movie_count
		FROM showtimes s
		WHERE m.id = $1
			AND s.id = $2
			AND cardinality(m.movies_used) < m.movie_count
			AND NOT s.movie_id = ANY (m.movies_used)
		RETURNING m.movies_used, m.is_valid
	`

	err := tx.QueryRow(ctx, query, membership.ID, showtimeID).Scan(&membership.MoviesUsed, &membership.IsValid)
	if err == nil {
		return nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	// No row updated: either the movie was already in the set (no debit due)
	// or the cap is reached.
	var alreadyUsed bool

	query = `
		SELECT s.movie_id = ANY (m.movies_used)
		FROM memberships m, showtimes s
		WHERE m.id = $1 AND s.id = $2
	`

	err = tx.QueryRow(ctx, query, membership.ID, showtimeID).Scan(&alreadyUsed)
	if err != nil {
		return err
	}

	if alreadyUsed {
		return nil
	}

	return domain.ErrInsufficientQuota
}

func (p *PostgresTicketRepository) GetByCredential(
	ctx context.Context,
	id uuid.UUID,
	userID int,
	seat, code string) (*domain.Ticket, error) {

	query := `
		SELECT id, user_id, membership_id, showtime_id, seat, code, free,
			used, deleted, is_valid, registered_at, expires_at
		FROM tickets
		WHERE id = $1 AND user_id = $2 AND seat = $3 AND code = $4
	`

	ticket, err := scanTicket(p.db.QueryRow(ctx, query, id, userID, seat, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return ticket, nil
}

func (p *PostgresTicketRepository) MarkUsed(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE tickets
		SET used = true
		WHERE id = $1 AND used = false AND deleted = false
	`

	tag, err := p.db.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

func (p *PostgresTicketRepository) MarkExpired(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE tickets
		SET is_valid = false
		WHERE id = $1
	`

	_, err := p.db.Exec(ctx, query, id)

	return err
}

// Cancel is the one operation that must not be decomposed: flipping the
// deleted flag, freeing the seat, and crediting the ledger either all happen
// or none do. A half-applied cancellation is a double-booking or a quota leak.
func (p *PostgresTicketRepository) Cancel(
	ctx context.Context,
	id uuid.UUID,
	userID int,
	basePlan *domain.Plan) (*domain.Ticket, error) {

	var ticket *domain.Ticket

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			UPDATE tickets
			SET deleted = true, is_valid = false
			WHERE id = $1 AND user_id = $2 AND used = false AND deleted = false
			RETURNING id, user_id, membership_id, showtime_id, seat, code, free,
				used, deleted, is_valid, registered_at, expires_at
		`

		t, err := scanTicket(tx.QueryRow(ctx, query, id, userID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrRecordNotFound
			}

			return err
		}

		ticket = t

		err = releaseSeat(ctx, tx, ticket.ShowtimeID, ticket.Seat)
		if err != nil {
			return err
		}

		if ticket.Free {
			return nil
		}

		return creditLedger(ctx, tx, ticket, basePlan)
	})

	if err != nil {
		return nil, err
	}

	return ticket, nil
}

// creditLedger refunds one quota unit for a cancelled paid ticket. A ticket
// issued on a film-fest pass returns its movie to the pass; otherwise any
// still-valid standard membership with quota left gets the unit back and a
// fresh validity clock, and failing that the user is granted a new base-tier
// membership holding the single unit.
func creditLedger(ctx context.Context, tx pgx.Tx, ticket *domain.Ticket, basePlan *domain.Plan) error {
	if ticket.MembershipID != nil {
		var kind domain.PlanKind

		query := `
			SELECT kind
			FROM memberships
			WHERE id = $1
			FOR UPDATE
		`

		err := tx.QueryRow(ctx, query, *ticket.MembershipID).Scan(&kind)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		if kind == domain.PlanFilmFest {
			query = `
				UPDATE memberships m
				SET movies_used = array_remove(m.movies_used, s.movie_id),
				    is_valid = m.expires_at > now()
				FROM showtimes s
				WHERE m.id = $1 AND s.id = $2
			`

			_, err = tx.Exec(ctx, query, *ticket.MembershipID, ticket.ShowtimeID)

			return err
		}
	}

	var membershipID int
	var validitySeconds int64

	query := `
		SELECT id, validity_seconds
		FROM memberships
		WHERE user_id = $1 AND is_valid = true AND kind = $2 AND avail_qr > 0
		ORDER BY expires_at DESC
		LIMIT 1
		FOR UPDATE
	`

	err := tx.QueryRow(ctx, query, ticket.UserID, domain.PlanStandard).Scan(&membershipID, &validitySeconds)

	switch {
	case err == nil:
		// Refund also resets the validity clock to a full window from now.
		query = `
			UPDATE memberships
			SET avail_qr = avail_qr + 1,
			    expires_at = now() + validity_seconds * interval '1 second'
			WHERE id = $1
		`

		_, err = tx.Exec(ctx, query, membershipID)

		return err

	case errors.Is(err, pgx.ErrNoRows):
		query = `
			INSERT INTO memberships (user_id, plan, kind, txn_id, validity_seconds, avail_qr, amount, expires_at)
			VALUES ($1, $2, $3, $4, $5, 1, 0, $6)
		`

		expiresAt := time.Now().Add(basePlan.Validity)

		_, err = tx.Exec(
			ctx,
			query,
			ticket.UserID,
			basePlan.Name,
			domain.PlanStandard,
			"cancel-auto-grant",
			int64(basePlan.Validity.Seconds()),
			expiresAt,
		)

		return err

	default:
		return err
	}
}

func (p *PostgresTicketRepository) GetAllByUser(ctx context.Context, userID int) ([]domain.TicketSummary, error) {
	query := `
		SELECT t.id, t.user_id, t.membership_id, t.showtime_id, t.seat, t.code, t.free,
			t.used, t.deleted, t.is_valid, t.registered_at, t.expires_at,
			m.title, m.genre, s.starts_at
		FROM tickets t
		JOIN showtimes s ON t.showtime_id = s.id
		JOIN movies m ON s.movie_id = m.id
		WHERE t.user_id = $1
		ORDER BY t.registered_at DESC
	`

	rows, err := p.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]domain.TicketSummary, 0)

	for rows.Next() {
		var summary domain.TicketSummary
		var ticketID pgtype.UUID

		err = rows.Scan(
			&ticketID,
			&summary.UserID,
			&summary.MembershipID,
			&summary.ShowtimeID,
			&summary.Seat,
			&summary.Code,
			&summary.Free,
			&summary.Used,
			&summary.Deleted,
			&summary.IsValid,
			&summary.RegisteredAt,
			&summary.ExpiresAt,
			&summary.MovieTitle,
			&summary.MovieGenre,
			&summary.ShowtimeStart,
		)
		if err != nil {
			return nil, err
		}

		summary.ID = uuid.UUID(ticketID.Bytes)

		summaries = append(summaries, summary)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return summaries, nil
}

func (p *PostgresTicketRepository) CountFreeByUserAndMovie(ctx context.Context, userID, movieID int) (int, error) {
	query := `
		SELECT count(*)
		FROM tickets t
		JOIN showtimes s ON t.showtime_id = s.id
		WHERE t.user_id = $1 AND s.movie_id = $2 AND t.free = true AND t.deleted = false
	`

	var count int

	err := p.db.QueryRow(ctx, query, userID, movieID).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (p *PostgresTicketRepository) ExistsActiveByUserAndShowtime(
	ctx context.Context,
	userID, showtimeID int) (bool, error) {

	query := `
		SELECT EXISTS (
			SELECT 1
			FROM tickets
			WHERE user_id = $1 AND showtime_id = $2 AND deleted = false
		)
	`

	var exists bool

	err := p.db.QueryRow(ctx, query, userID, showtimeID).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var ticketID pgtype.UUID

	err := row.Scan(
		&ticketID,
		&ticket.UserID,
		&ticket.MembershipID,
		&ticket.ShowtimeID,
		&ticket.Seat,
		&ticket.Code,
		&ticket.Free,
		&ticket.Used,
		&ticket.Deleted,
		&ticket.IsValid,
		&ticket.RegisteredAt,
		&ticket.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	ticket.ID = uuid.UUID(ticketID.Bytes)

	return &ticket, nil
}
