package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/filmsociety/ticketing/api"
	"github.com/filmsociety/ticketing/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

func (app *Application) GetMemberships(w http.ResponseWriter, r *http.Request) {
	userId := app.contextGetUserId(r)
	now := time.Now()

	err := app.membershipRepo.InvalidateStale(r.Context(), userId, now)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	memberships, err := app.membershipRepo.GetAllByUser(r.Context(), userId)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := api.MembershipsResponse{
		Memberships: make([]api.MembershipResponse, 0, len(memberships)),
	}

	for _, m := range memberships {
		active := m.IsValid && m.Live(now)
		if active {
			resp.HasMembership = true
		}

		resp.Memberships = append(resp.Memberships, api.MembershipResponse{
			Id:          m.ID,
			Plan:        m.Plan,
			Kind:        string(m.Kind),
			AvailQr:     m.AvailQR,
			MovieCount:  m.MovieCount,
			MoviesUsed:  m.MoviesUsed,
			Amount:      m.Amount,
			Active:      active,
			PurchasedAt: m.PurchasedAt,
			ExpiresAt:   m.ExpiresAt,
		})
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// GetMembershipPlans lists the purchasable catalog. The base plan is an
// internal cancellation grant and is not offered for sale.
func (app *Application) GetMembershipPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := app.planRepo.GetAll(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := api.PlansResponse{
		Plans: make([]api.PlanResponse, 0, len(plans)),
	}

	for _, p := range plans {
		if p.Name == domain.BasePlanName {
			continue
		}

		resp.Plans = append(resp.Plans, api.PlanResponse{
			Name:         p.Name,
			Kind:         string(p.Kind),
			ValidityDays: int(p.Validity.Hours() / 24),
			AvailQr:      p.AvailQR,
			MovieCount:   p.MovieCount,
			Prices:       p.Prices,
		})
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var input api.CheckoutRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	if input.Plan == domain.BasePlanName {
		app.badRequestResponse(w, r, fmt.Errorf("plan %q is not purchasable", input.Plan))
		return
	}

	plan, err := app.planRepo.GetByName(r.Context(), input.Plan)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponseWithErr(w, r, fmt.Errorf("unknown plan %q", input.Plan))
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	userId := app.contextGetUserId(r)
	now := time.Now()

	err = app.membershipRepo.InvalidateStale(r.Context(), userId, now)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	current, err := app.membershipRepo.GetCurrentValid(r.Context(), userId)
	if err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
		app.serverErrorResponse(w, r, err)
		return
	}

	if current != nil && current.Live(now) {
		app.editConflictResponseWithErr(w, r, fmt.Errorf("you already have an active membership"))
		return
	}

	user, err := app.userRepo.GetById(r.Context(), userId)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	checkoutSession, err := app.paymentProvider.CreateCheckoutSession(user, plan)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := api.CheckoutSessionResponse{
		RedirectUrl: checkoutSession.URL,
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// StripeWebhook grants the membership once the payment provider confirms the
// checkout. The signature check runs before anything is touched, so a forged
// callback mutates nothing. Provider retries are absorbed by the still-valid
// guard: a second delivery finds the freshly granted membership and skips.
func (app *Application) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 65536))
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), app.config.Stripe.WebhookSecret)
	if err != nil {
		logger.Warn("webhook signature verification failed", "error", err)
		app.badRequestResponse(w, r, fmt.Errorf("invalid webhook signature"))
		return
	}

	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		w.WriteHeader(http.StatusOK)
		return
	}

	var checkoutSession stripe.CheckoutSession

	err = json.Unmarshal(event.Data.Raw, &checkoutSession)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	planName := checkoutSession.Metadata["plan"]

	userId, err := strconv.Atoi(checkoutSession.Metadata["user_id"])
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("malformed user_id in checkout metadata"))
		return
	}

	plan, err := app.planRepo.GetByName(r.Context(), planName)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.badRequestResponse(w, r, fmt.Errorf("unknown plan %q in checkout metadata", planName))
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	now := time.Now()

	err = app.membershipRepo.InvalidateStale(r.Context(), userId, now)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	current, err := app.membershipRepo.GetCurrentValid(r.Context(), userId)
	if err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
		app.serverErrorResponse(w, r, err)
		return
	}

	if current != nil && current.Live(now) {
		logger.Info("skipping membership grant, user still holds a valid one",
			"user_id", userId, "membership_id", current.ID)
		w.WriteHeader(http.StatusOK)
		return
	}

	membership := &domain.Membership{
		UserID:     userId,
		Plan:       plan.Name,
		Kind:       plan.Kind,
		TxnID:      checkoutSession.ID,
		Validity:   plan.Validity,
		AvailQR:    plan.AvailQR,
		Amount:     decimal.NewFromInt(checkoutSession.AmountTotal).Div(decimal.NewFromInt(100)),
		MovieCount: plan.MovieCount,
		ExpiresAt:  now.Add(plan.Validity),
	}

	err = app.membershipRepo.Create(r.Context(), membership)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	logger.Info("membership granted", "user_id", userId, "plan", plan.Name, "membership_id", membership.ID)

	user, err := app.userRepo.GetById(r.Context(), userId)
	if err != nil {
		logger.Error("failed to load user for membership receipt", "user_id", userId, "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	app.background(logger, func() {
		data := map[string]any{
			"name":      user.Name,
			"plan":      plan.Name,
			"expiresAt": membership.ExpiresAt.Format("Jan 2, 2006"),
		}

		err := app.mailer.Send(user.Email, "membership_receipt.tmpl", data)
		if err != nil {
			logger.Error("failed to send membership receipt", "error", err)
		}
	})

	w.WriteHeader(http.StatusOK)
}
