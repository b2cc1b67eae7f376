package mocks

import (
	"context"

	"github.com/filmsociety/ticketing/internal/domain"
	"github.com/google/uuid"
)

type MockTicketRepo struct {
	domain.TicketRepository
	AssignSeatFunc                    func(ctx context.Context, ticket *domain.Ticket, membership *domain.Membership) error
	GetByCredentialFunc               func(ctx context.Context, id uuid.UUID, userID int, seat, code string) (*domain.Ticket, error)
	MarkUsedFunc                      func(ctx context.Context, id uuid.UUID) (bool, error)
	MarkExpiredFunc                   func(ctx context.Context, id uuid.UUID) error
	CancelFunc                        func(ctx context.Context, id uuid.UUID, userID int, basePlan *domain.Plan) (*domain.Ticket, error)
	GetAllByUserFunc                  func(ctx context.Context, userID int) ([]domain.TicketSummary, error)
	CountFreeByUserAndMovieFunc       func(ctx context.Context, userID, movieID int) (int, error)
	ExistsActiveByUserAndShowtimeFunc func(ctx context.Context, userID, showtimeID int) (bool, error)
}

func (m *MockTicketRepo) AssignSeat(ctx context.Context, ticket *domain.Ticket, membership *domain.Membership) error {
	return m.AssignSeatFunc(ctx, ticket, membership)
}

func (m *MockTicketRepo) GetByCredential(ctx context.Context, id uuid.UUID, userID int, seat, code string) (*domain.Ticket, error) {
	return m.GetByCredentialFunc(ctx, id, userID, seat, code)
}

func (m *MockTicketRepo) MarkUsed(ctx context.Context, id uuid.UUID) (bool, error) {
	return m.MarkUsedFunc(ctx, id)
}

func (m *MockTicketRepo) MarkExpired(ctx context.Context, id uuid.UUID) error {
	return m.MarkExpiredFunc(ctx, id)
}

func (m *MockTicketRepo) Cancel(ctx context.Context, id uuid.UUID, userID int, basePlan *domain.Plan) (*domain.Ticket, error) {
	return m.CancelFunc(ctx, id, userID, basePlan)
}

func (m *MockTicketRepo) GetAllByUser(ctx context.Context, userID int) ([]domain.TicketSummary, error) {
	return m.GetAllByUserFunc(ctx, userID)
}

func (m *MockTicketRepo) CountFreeByUserAndMovie(ctx context.Context, userID, movieID int) (int, error) {
	return m.CountFreeByUserAndMovieFunc(ctx, userID, movieID)
}

func (m *MockTicketRepo) ExistsActiveByUserAndShowtime(ctx context.Context, userID, showtimeID int) (bool, error) {
	return m.ExistsActiveByUserAndShowtimeFunc(ctx, userID, showtimeID)
}
