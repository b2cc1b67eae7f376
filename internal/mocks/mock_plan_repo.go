package mocks

import (
	"context"

	"github.com/filmsociety/ticketing/internal/domain"
)

type MockPlanRepo struct {
	domain.PlanRepository
	GetAllFunc        func(ctx context.Context) ([]domain.Plan, error)
	GetByNameFunc     func(ctx context.Context, name string) (*domain.Plan, error)
	FreeAllowanceFunc func(ctx context.Context, designation string) (int, error)
}

func (m *MockPlanRepo) GetAll(ctx context.Context) ([]domain.Plan, error) {
	return m.GetAllFunc(ctx)
}

func (m *MockPlanRepo) GetByName(ctx context.Context, name string) (*domain.Plan, error) {
	return m.GetByNameFunc(ctx, name)
}

func (m *MockPlanRepo) FreeAllowance(ctx context.Context, designation string) (int, error) {
	return m.FreeAllowanceFunc(ctx, designation)
}
