package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// User designations, as assigned by member management. They drive plan
// pricing and the free-entry seat allowance.
const (
	DesignationBtech    = "btech"
	DesignationMtechPhd = "mtech/phd"
	DesignationFaculty  = "faculty/staff"
	DesignationOther    = "other"
)

// Plan is one row of the membership catalog: quota size, validity window,
// kind, and the per-designation price list. Read-only to this service.
type Plan struct {
	Name       string
	Kind       PlanKind
	Validity   time.Duration
	AvailQR    int
	MovieCount int
	Prices     map[string]decimal.Decimal
}

// PriceFor returns the plan price for a designation, falling back to the
// "other" price when the designation has no dedicated entry.
func (p *Plan) PriceFor(designation string) decimal.Decimal {
	if price, ok := p.Prices[designation]; ok {
		return price
	}

	return p.Prices[DesignationOther]
}

// BasePlanName is the plan granted automatically when a paid ticket is
// cancelled and its owner has no membership left to credit.
const BasePlanName = "base"

type PlanRepository interface {
	GetAll(ctx context.Context) ([]Plan, error)
	GetByName(ctx context.Context, name string) (*Plan, error)

	// FreeAllowance returns the number of no-cost seats a designation may
	// book per free-entry movie.
	FreeAllowance(ctx context.Context, designation string) (int, error)
}
