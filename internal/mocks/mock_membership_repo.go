package mocks

import (
	"context"
	"time"

	"github.com/filmsociety/ticketing/internal/domain"
)

type MockMembershipRepo struct {
	domain.MembershipRepository
	GetCurrentValidFunc func(ctx context.Context, userID int) (*domain.Membership, error)
	GetAllByUserFunc    func(ctx context.Context, userID int) ([]domain.Membership, error)
	CreateFunc          func(ctx context.Context, m *domain.Membership) error
	InvalidateStaleFunc func(ctx context.Context, userID int, now time.Time) error
}

func (m *MockMembershipRepo) GetCurrentValid(ctx context.Context, userID int) (*domain.Membership, error) {
	return m.GetCurrentValidFunc(ctx, userID)
}

func (m *MockMembershipRepo) GetAllByUser(ctx context.Context, userID int) ([]domain.Membership, error) {
	return m.GetAllByUserFunc(ctx, userID)
}

func (m *MockMembershipRepo) Create(ctx context.Context, membership *domain.Membership) error {
	return m.CreateFunc(ctx, membership)
}

func (m *MockMembershipRepo) InvalidateStale(ctx context.Context, userID int, now time.Time) error {
	return m.InvalidateStaleFunc(ctx, userID, now)
}
