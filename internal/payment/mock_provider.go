package payment

import (
	"strconv"

	"github.com/filmsociety/ticketing/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
)

type MockPaymentProvider struct {
	CreateCheckoutSessionFunc func(user *domain.User, plan *domain.Plan) (*stripe.CheckoutSession, error)
}

func NewMockPaymentProvider() *MockPaymentProvider {
	return &MockPaymentProvider{}
}

func (m *MockPaymentProvider) CreateCheckoutSession(user *domain.User, plan *domain.Plan) (*stripe.CheckoutSession, error) {
	if m.CreateCheckoutSessionFunc != nil {
		return m.CreateCheckoutSessionFunc(user, plan)
	}

	return &stripe.CheckoutSession{
		ID:          "cs_test_mock",
		URL:         "https://checkout.stripe.com/c/pay/cs_test_mock",
		AmountTotal: plan.PriceFor(user.Designation).Mul(decimal.NewFromInt(100)).IntPart(),
		Metadata: map[string]string{
			"plan":    plan.Name,
			"user_id": strconv.Itoa(user.ID),
		},
	}, nil
}
