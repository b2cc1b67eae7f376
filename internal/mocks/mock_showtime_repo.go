package mocks

import (
	"context"

	"github.com/filmsociety/ticketing/internal/domain"
)

type MockShowtimeRepo struct {
	domain.ShowtimeRepository
	GetByIdFunc func(ctx context.Context, id int) (*domain.Showtime, error)
}

func (m *MockShowtimeRepo) GetById(ctx context.Context, id int) (*domain.Showtime, error) {
	return m.GetByIdFunc(ctx, id)
}
