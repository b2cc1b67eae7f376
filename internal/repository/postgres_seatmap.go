package repository

import (
	"context"

	"github.com/filmsociety/ticketing/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresSeatMapRepository struct {
	db *pgxpool.Pool
}

func NewPostgresSeatMapRepository(db *pgxpool.Pool) *PostgresSeatMapRepository {
	return &PostgresSeatMapRepository{
		db: db,
	}
}

func (p *PostgresSeatMapRepository) Occupancy(ctx context.Context, showtimeID int) ([]domain.SeatOccupancy, error) {
	query := `
		SELECT seat, ticket_id
		FROM seat_maps
		WHERE showtime_id = $1
	`

	rows, err := p.db.Query(ctx, query, showtimeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	occupancy := make([]domain.SeatOccupancy, 0)

	for rows.Next() {
		var seat domain.SeatOccupancy
		var ticketID pgtype.UUID

		err = rows.Scan(&seat.Seat, &ticketID)
		if err != nil {
			return nil, err
		}

		if ticketID.Valid {
			id := uuid.UUID(ticketID.Bytes)
			seat.TicketID = &id
		}

		occupancy = append(occupancy, seat)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return occupancy, nil
}

func (p *PostgresSeatMapRepository) TryClaim(
	ctx context.Context,
	showtimeID int,
	seat string,
	ticketID uuid.UUID) error {

	return claimSeat(ctx, p.db, showtimeID, seat, ticketID)
}

func (p *PostgresSeatMapRepository) Release(ctx context.Context, showtimeID int, seat string) error {
	return releaseSeat(ctx, p.db, showtimeID, seat)
}

func (p *PostgresSeatMapRepository) RowConfigs(ctx context.Context) ([]domain.RowConfig, error) {
	query := `
		SELECT prefix, left_count, center_count, right_count, balcony
		FROM seat_rows
	`

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	configs := make([]domain.RowConfig, 0)

	for rows.Next() {
		var config domain.RowConfig

		err = rows.Scan(&config.Prefix, &config.Left, &config.Center, &config.Right, &config.Balcony)
		if err != nil {
			return nil, err
		}

		configs = append(configs, config)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return configs, nil
}

// claimSeat is the compare-and-set at the heart of seat assignment: the write
// only lands if the slot is still empty, so of any number of concurrent
// claimants exactly one sees a row affected.
func claimSeat(ctx context.Context, q queryer, showtimeID int, seat string, ticketID uuid.UUID) error {
	query := `
		UPDATE seat_maps
		SET ticket_id = $1
		WHERE showtime_id = $2 AND seat = $3 AND ticket_id IS NULL
	`

	tag, err := q.Exec(ctx, query, ticketID, showtimeID, seat)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrSeatAlreadyAssigned
	}

	return nil
}

func releaseSeat(ctx context.Context, q queryer, showtimeID int, seat string) error {
	query := `
		UPDATE seat_maps
		SET ticket_id = NULL
		WHERE showtime_id = $1 AND seat = $2
	`

	_, err := q.Exec(ctx, query, showtimeID, seat)

	return err
}
