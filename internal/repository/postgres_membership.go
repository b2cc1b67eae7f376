package repository

import (
	"context"
	"errors"
	"time"

	"github.com/filmsociety/ticketing/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresMembershipRepository struct {
	db *pgxpool.Pool
}

func NewPostgresMembershipRepository(db *pgxpool.Pool) *PostgresMembershipRepository {
	return &PostgresMembershipRepository{
		db: db,
	}
}

const membershipColumns = `
	id, user_id, plan, kind, txn_id, validity_seconds, avail_qr, amount,
	movie_count, movies_used, is_valid, purchased_at, expires_at
`

func (p *PostgresMembershipRepository) GetCurrentValid(ctx context.Context, userID int) (*domain.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE user_id = $1 AND is_valid = true
		ORDER BY purchased_at DESC
		LIMIT 1
	`

	membership, err := scanMembership(p.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return membership, nil
}

func (p *PostgresMembershipRepository) GetAllByUser(ctx context.Context, userID int) ([]domain.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE user_id = $1
		ORDER BY purchased_at DESC
	`

	rows, err := p.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	memberships := make([]domain.Membership, 0)

	for rows.Next() {
		membership, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}

		memberships = append(memberships, *membership)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return memberships, nil
}

func (p *PostgresMembershipRepository) Create(ctx context.Context, m *domain.Membership) error {
	query := `
		INSERT INTO memberships (user_id, plan, kind, txn_id, validity_seconds, avail_qr, amount,
			movie_count, movies_used, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, purchased_at, is_valid
	`

	moviesUsed := m.MoviesUsed
	if moviesUsed == nil {
		moviesUsed = []int{}
	}

	return p.db.QueryRow(
		ctx,
		query,
		m.UserID,
		m.Plan,
		m.Kind,
		m.TxnID,
		int64(m.Validity.Seconds()),
		m.AvailQR,
		m.Amount,
		m.MovieCount,
		moviesUsed,
		m.ExpiresAt,
	).Scan(&m.ID, &m.PurchasedAt, &m.IsValid)
}

// InvalidateStale reconciles the cached validity flag with the authoritative
// fields. Standard quotas are zeroed on the way down, like the original
// suspension flow, so a stale row can never re-authorize a booking.
func (p *PostgresMembershipRepository) InvalidateStale(ctx context.Context, userID int, now time.Time) error {
	query := `
		UPDATE memberships
		SET is_valid = false,
		    avail_qr = CASE WHEN kind = $3 THEN avail_qr ELSE 0 END
		WHERE user_id = $1
			AND is_valid = true
			AND (
				expires_at < $2
				OR (kind = $3 AND cardinality(movies_used) >= movie_count)
				OR (kind <> $3 AND avail_qr <= 0)
			)
	`

	_, err := p.db.Exec(ctx, query, userID, now, domain.PlanFilmFest)

	return err
}

func scanMembership(row pgx.Row) (*domain.Membership, error) {
	var m domain.Membership
	var validitySeconds int64

	err := row.Scan(
		&m.ID,
		&m.UserID,
		&m.Plan,
		&m.Kind,
		&m.TxnID,
		&validitySeconds,
		&m.AvailQR,
		&m.Amount,
		&m.MovieCount,
		&m.MoviesUsed,
		&m.IsValid,
		&m.PurchasedAt,
		&m.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	m.Validity = time.Duration(validitySeconds) * time.Second

	return &m, nil
}
