// Package api defines the JSON request and response types exposed by the
// HTTP layer. The shapes are kept stable so that clients can rely on them.
package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Message   string    `json:"message"`
	RequestId string    `json:"requestId"`
	Timestamp time.Time `json:"timestamp"`
}

type ValidationError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

type ValidationErrorResponse struct {
	Message          string            `json:"message"`
	RequestId        string            `json:"requestId"`
	Timestamp        time.Time         `json:"timestamp"`
	ValidationErrors []ValidationError `json:"validationErrors"`
}

type SystemInfo struct {
	Environment string `json:"environment"`
	Version     string `json:"version"`
}

type HealthcheckResponse struct {
	Status     string     `json:"status"`
	SystemInfo SystemInfo `json:"systemInfo"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AlreadyLoggedInResponse struct {
	Message string `json:"message"`
}

// SeatStatus describes a single seat of a showtime's seat map. Section is a
// layout hint for rendering: 1 left, 2 center, 3 right, plus 3 for balcony
// rows, 0 when the row is not part of the configured layout.
type SeatStatus struct {
	Seat     string `json:"seat"`
	Occupied bool   `json:"occupied"`
	Section  int    `json:"section"`
}

type SeatMapResponse struct {
	ShowtimeId int          `json:"showtimeId"`
	Seats      []SeatStatus `json:"seats"`
}

type AssignSeatsRequest struct {
	Seats []string `json:"seats" validate:"required,min=1,max=10,dive,seat_label"`
}

// SeatAssignment reports the per-seat outcome of a booking request.
type SeatAssignment struct {
	Seat    string `json:"seat"`
	Message string `json:"message"`
}

type AssignSeatsResponse struct {
	Assignments []SeatAssignment `json:"assignments"`
}

type FreePassesResponse struct {
	Allowance int `json:"allowance"`
	Used      int `json:"used"`
	Remaining int `json:"remaining"`
}

type TicketResponse struct {
	Id           uuid.UUID `json:"id"`
	Seat         string    `json:"seat"`
	Movie        string    `json:"movie"`
	Genre        string    `json:"genre"`
	Show         time.Time `json:"show"`
	Free         bool      `json:"free"`
	QrData       string    `json:"qrData,omitempty"`
	RegisteredAt time.Time `json:"registeredAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

type TicketsResponse struct {
	Active    []TicketResponse `json:"active"`
	Used      []TicketResponse `json:"used"`
	Expired   []TicketResponse `json:"expired"`
	Cancelled []TicketResponse `json:"cancelled"`
}

type RedeemRequest struct {
	QrData string `json:"qrData" validate:"required"`
}

// RedemptionResponse mirrors what door staff need to see while scanning.
// Exactly one of the rejection flags is set when admission is denied; the
// holder details are only populated on a successful redemption.
type RedemptionResponse struct {
	Exists         bool       `json:"exists"`
	Cancelled      *bool      `json:"cancelled,omitempty"`
	Used           *bool      `json:"used,omitempty"`
	ValidityPassed *bool      `json:"validityPassed,omitempty"`
	Name           string     `json:"name,omitempty"`
	Email          string     `json:"email,omitempty"`
	Seat           string     `json:"seat,omitempty"`
	Show           *time.Time `json:"show,omitempty"`
	Movie          string     `json:"movie,omitempty"`
}

type MembershipResponse struct {
	Id          int             `json:"id"`
	Plan        string          `json:"plan"`
	Kind        string          `json:"kind"`
	AvailQr     int             `json:"availQr"`
	MovieCount  int             `json:"movieCount,omitempty"`
	MoviesUsed  []int           `json:"moviesUsed,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Active      bool            `json:"active"`
	PurchasedAt time.Time       `json:"purchasedAt"`
	ExpiresAt   time.Time       `json:"expiresAt"`
}

type MembershipsResponse struct {
	HasMembership bool                 `json:"hasMembership"`
	Memberships   []MembershipResponse `json:"memberships"`
}

type PlanResponse struct {
	Name         string                     `json:"name"`
	Kind         string                     `json:"kind"`
	ValidityDays int                        `json:"validityDays"`
	AvailQr      int                        `json:"availQr"`
	MovieCount   int                        `json:"movieCount,omitempty"`
	Prices       map[string]decimal.Decimal `json:"prices"`
}

type PlansResponse struct {
	Plans []PlanResponse `json:"plans"`
}

type CheckoutRequest struct {
	Plan string `json:"plan" validate:"required"`
}

type CheckoutSessionResponse struct {
	RedirectUrl string `json:"redirectUrl"`
}
