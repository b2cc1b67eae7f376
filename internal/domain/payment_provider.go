package domain

import "github.com/stripe/stripe-go/v82"

type PaymentProvider interface {
	CreateCheckoutSession(user *User, plan *Plan) (*stripe.CheckoutSession, error)
}
