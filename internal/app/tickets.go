package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/filmsociety/ticketing/api"
	"github.com/filmsociety/ticketing/internal/domain"
	"github.com/filmsociety/ticketing/internal/events"
	"github.com/filmsociety/ticketing/internal/qrcode"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// GetTickets returns the user's tickets bucketed by lifecycle state. Only
// active tickets carry QR data; the credential for a spent or cancelled ticket
// is of no use and is not re-minted.
func (app *Application) GetTickets(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	userId := app.contextGetUserId(r)

	summaries, err := app.ticketRepo.GetAllByUser(r.Context(), userId)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	now := time.Now()

	resp := api.TicketsResponse{
		Active:    []api.TicketResponse{},
		Used:      []api.TicketResponse{},
		Expired:   []api.TicketResponse{},
		Cancelled: []api.TicketResponse{},
	}

	for _, summary := range summaries {
		ticket := toTicketResponse(summary)

		switch {
		case summary.Deleted:
			resp.Cancelled = append(resp.Cancelled, ticket)

		case summary.Used:
			resp.Used = append(resp.Used, ticket)

		case summary.Expired(now):
			if summary.IsValid {
				app.markExpiredLazily(logger, summary.ID)
			}

			resp.Expired = append(resp.Expired, ticket)

		default:
			qrData, err := app.qr.Issue(qrcode.Claims{
				UserID:   summary.UserID,
				TicketID: summary.ID,
				Seat:     summary.Seat,
				Nonce:    summary.Code,
			})
			if err != nil {
				logger.Error("failed to mint ticket credential", "ticket_id", summary.ID, "error", err)
			} else {
				ticket.QrData = qrData
			}

			resp.Active = append(resp.Active, ticket)
		}
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// RedeemTicket checks a scanned QR credential in and reports the admission
// decision to door staff. An unverifiable or unknown credential reads as a
// plain "does not exist"; rejections distinguish cancelled, already used, and
// expired, in that order of precedence. The used flip is conditional, so two
// scanners racing on the same ticket admit exactly one holder.
func (app *Application) RedeemTicket(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	var input api.RedeemRequest

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

	claims, err := app.qr.Verify(input.QrData)
	if err != nil {
		logger.Warn("redemption attempt with invalid credential")
		app.writeRedemption(w, r, api.RedemptionResponse{Exists: false})
		return
	}

	ticket, err := app.ticketRepo.GetByCredential(r.Context(), claims.TicketID, claims.UserID, claims.Seat, claims.Nonce)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			logger.Warn("redemption attempt for unknown ticket", "ticket_id", claims.TicketID)
			app.writeRedemption(w, r, api.RedemptionResponse{Exists: false})
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	now := time.Now()

	switch {
	case ticket.Deleted:
		app.writeRedemption(w, r, api.RedemptionResponse{Exists: true, Cancelled: ptr(true)})
		return

	case ticket.Used:
		app.writeRedemption(w, r, api.RedemptionResponse{Exists: true, Used: ptr(true)})
		return

	case ticket.Expired(now):
		if ticket.IsValid {
			app.markExpiredLazily(logger, ticket.ID)
		}

		app.writeRedemption(w, r, api.RedemptionResponse{Exists: true, ValidityPassed: ptr(true)})
		return
	}

	// Gather the door context before consuming the ticket, so a lookup
	// failure cannot strand an already burned credential.
	showtime, err := app.showtimeRepo.GetById(r.Context(), ticket.ShowtimeID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	holder, err := app.userRepo.GetById(r.Context(), ticket.UserID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	won, err := app.ticketRepo.MarkUsed(r.Context(), ticket.ID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	if !won {
		app.writeRedemption(w, r, api.RedemptionResponse{Exists: true, Used: ptr(true)})
		return
	}

	app.writeRedemption(w, r, api.RedemptionResponse{
		Exists: true,
		Name:   holder.Name,
		Email:  holder.Email,
		Seat:   ticket.Seat,
		Show:   &showtime.StartsAt,
		Movie:  showtime.MovieTitle,
	})
}

// CancelTicket voids an unused ticket, releases its seat, and returns the
// quota unit to the owner's ledger, all in one transaction.
func (app *Application) CancelTicket(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	ticketID, err := uuid.Parse(chi.URLParam(r, "ticketId"))
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid ticket ID"))
		return
	}

	userId := app.contextGetUserId(r)

	basePlan, err := app.planRepo.GetByName(r.Context(), domain.BasePlanName)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	ticket, err := app.ticketRepo.Cancel(r.Context(), ticketID, userId, basePlan)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponseWithErr(w, r, fmt.Errorf("ticket not found or already settled"))
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	event := events.TicketCancelledEvent{
		TicketID:    ticket.ID,
		UserID:      ticket.UserID,
		ShowtimeID:  ticket.ShowtimeID,
		Seat:        ticket.Seat,
		CancelledAt: time.Now(),
	}

	app.background(logger, func() {
		err := app.publisher.PublishTicketCancelled(context.Background(), event)
		if err != nil {
			logger.Error("failed to publish ticket cancelled event", "ticket_id", event.TicketID, "error", err)
		}
	})

	w.WriteHeader(http.StatusNoContent)
}

func (app *Application) writeRedemption(w http.ResponseWriter, r *http.Request, resp api.RedemptionResponse) {
	err := app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) markExpiredLazily(logger *slog.Logger, ticketID uuid.UUID) {
	app.background(logger, func() {
		err := app.ticketRepo.MarkExpired(context.Background(), ticketID)
		if err != nil {
			logger.Error("failed to mark ticket expired", "ticket_id", ticketID, "error", err)
		}
	})
}

func toTicketResponse(summary domain.TicketSummary) api.TicketResponse {
	return api.TicketResponse{
		Id:           summary.ID,
		Seat:         summary.Seat,
		Movie:        summary.MovieTitle,
		Genre:        summary.MovieGenre,
		Show:         summary.ShowtimeStart,
		Free:         summary.Free,
		RegisteredAt: summary.RegisteredAt,
		ExpiresAt:    summary.ExpiresAt,
	}
}
