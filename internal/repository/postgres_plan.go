package repository

import (
	"context"
	"errors"
	"time"

	"github.com/filmsociety/ticketing/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PostgresPlanRepository struct {
	db *pgxpool.Pool
}

func NewPostgresPlanRepository(db *pgxpool.Pool) *PostgresPlanRepository {
	return &PostgresPlanRepository{
		db: db,
	}
}

func (p *PostgresPlanRepository) GetAll(ctx context.Context) ([]domain.Plan, error) {
	query := `
		SELECT p.name, p.kind, p.validity_seconds, p.avail_qr, p.movie_count,
			pp.designation, pp.price
		FROM plans p
		JOIN plan_prices pp ON pp.plan_name = p.name
		ORDER BY p.name, pp.designation
	`

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := make([]domain.Plan, 0)
	index := make(map[string]int)

	for rows.Next() {
		var name string
		var kind domain.PlanKind
		var validitySeconds int64
		var availQR, movieCount int
		var designation string
		var price decimal.Decimal

		err = rows.Scan(&name, &kind, &validitySeconds, &availQR, &movieCount, &designation, &price)
		if err != nil {
			return nil, err
		}

		i, ok := index[name]
		if !ok {
			plans = append(plans, domain.Plan{
				Name:       name,
				Kind:       kind,
				Validity:   time.Duration(validitySeconds) * time.Second,
				AvailQR:    availQR,
				MovieCount: movieCount,
				Prices:     make(map[string]decimal.Decimal),
			})
			i = len(plans) - 1
			index[name] = i
		}

		plans[i].Prices[designation] = price
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return plans, nil
}

func (p *PostgresPlanRepository) GetByName(ctx context.Context, name string) (*domain.Plan, error) {
	query := `
		SELECT name, kind, validity_seconds, avail_qr, movie_count
		FROM plans
		WHERE name = $1
	`

	var plan domain.Plan
	var validitySeconds int64

	err := p.db.QueryRow(ctx, query, name).Scan(
		&plan.Name,
		&plan.Kind,
		&validitySeconds,
		&plan.AvailQR,
		&plan.MovieCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	plan.Validity = time.Duration(validitySeconds) * time.Second

	plan.Prices, err = p.retrievePrices(ctx, name)
	if err != nil {
		return nil, err
	}

	return &plan, nil
}

func (p *PostgresPlanRepository) retrievePrices(ctx context.Context, name string) (map[string]decimal.Decimal, error) {
	query := `
		SELECT designation, price
		FROM plan_prices
		WHERE plan_name = $1
	`

	rows, err := p.db.Query(ctx, query, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prices := make(map[string]decimal.Decimal)

	for rows.Next() {
		var designation string
		var price decimal.Decimal

		err = rows.Scan(&designation, &price)
		if err != nil {
			return nil, err
		}

		prices[designation] = price
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return prices, nil
}

func (p *PostgresPlanRepository) FreeAllowance(ctx context.Context, designation string) (int, error) {
	query := `
		SELECT seats
		FROM free_allowances
		WHERE designation = $1
	`

	var seats int

	err := p.db.QueryRow(ctx, query, designation).Scan(&seats)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrRecordNotFound
		}

		return 0, err
	}

	return seats, nil
}
