package mocks

import (
	"context"

	"github.com/filmsociety/ticketing/internal/domain"
	"github.com/google/uuid"
)

type MockSeatMapRepo struct {
	domain.SeatMapRepository
	OccupancyFunc  func(ctx context.Context, showtimeID int) ([]domain.SeatOccupancy, error)
	TryClaimFunc   func(ctx context.Context, showtimeID int, seat string, ticketID uuid.UUID) error
	ReleaseFunc    func(ctx context.Context, showtimeID int, seat string) error
	RowConfigsFunc func(ctx context.Context) ([]domain.RowConfig, error)
}

func (m *MockSeatMapRepo) Occupancy(ctx context.Context, showtimeID int) ([]domain.SeatOccupancy, error) {
	return m.OccupancyFunc(ctx, showtimeID)
}

func (m *MockSeatMapRepo) TryClaim(ctx context.Context, showtimeID int, seat string, ticketID uuid.UUID) error {
	return m.TryClaimFunc(ctx, showtimeID, seat, ticketID)
}

func (m *MockSeatMapRepo) Release(ctx context.Context, showtimeID int, seat string) error {
	return m.ReleaseFunc(ctx, showtimeID, seat)
}

func (m *MockSeatMapRepo) RowConfigs(ctx context.Context) ([]domain.RowConfig, error) {
	return m.RowConfigsFunc(ctx)
}
