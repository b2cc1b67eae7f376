package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/filmsociety/ticketing/api"
	"github.com/filmsociety/ticketing/internal/domain"
	"github.com/filmsociety/ticketing/internal/events"
	"github.com/google/uuid"
)

func (app *Application) GetSeatMapByShowtime(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	showtimeID, err := app.readIDParam(r, "showtimeId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	showtime, err := app.showtimeRepo.GetById(r.Context(), showtimeID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	if showtime.Stale(time.Now()) {
		app.errorResponse(w, r, http.StatusGone, "This showtime is no longer open")
		return
	}

	occupancy, err := app.seatMapRepo.Occupancy(r.Context(), showtimeID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	if len(occupancy) == 0 {
		logger.Warn("seat map not provisioned for showtime", "showtime_id", showtimeID)
		app.notFoundResponse(w, r)
		return
	}

	rows, err := app.seatMapRepo.RowConfigs(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	seats := make([]api.SeatStatus, 0, len(occupancy))
	for _, s := range occupancy {
		seats = append(seats, api.SeatStatus{
			Seat:     s.Seat,
			Occupied: s.Occupied(),
			Section:  domain.SectionOf(s.Seat, rows),
		})
	}

	sort.Slice(seats, func(i, j int) bool {
		return domain.CompareSeatLabels(seats[i].Seat, seats[j].Seat) < 0
	})

	resp := api.SeatMapResponse{
		ShowtimeId: showtimeID,
		Seats:      seats,
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetFreePasses(w http.ResponseWriter, r *http.Request) {
	showtimeID, err := app.readIDParam(r, "showtimeId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	showtime, err := app.showtimeRepo.GetById(r.Context(), showtimeID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	if !showtime.Free {
		app.badRequestResponse(w, r, fmt.Errorf("showtime %d is not a free-entry screening", showtimeID))
		return
	}

	userId := app.contextGetUserId(r)

	user, err := app.userRepo.GetById(r.Context(), userId)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	allowance, err := app.freeAllowanceFor(r.Context(), user.Designation)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	used, err := app.ticketRepo.CountFreeByUserAndMovie(r.Context(), userId, showtime.MovieID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := api.FreePassesResponse{
		Allowance: allowance,
		Used:      used,
		Remaining: max(allowance-used, 0),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// AssignSeats books the requested seats for the authenticated user against a
// showtime. Booking is per-seat best effort: each seat is claimed in its own
// transaction and the response reports one outcome line per seat, so a race
// lost on one seat never unwinds another that was already won. The fee gate,
// however, is all or nothing: a standard membership must cover the whole
// request up front.
func (app *Application) AssignSeats(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	showtimeID, err := app.readIDParam(r, "showtimeId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input api.AssignSeatsRequest

	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	showtime, err := app.showtimeRepo.GetById(r.Context(), showtimeID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	now := time.Now()

	if showtime.Stale(now) {
		app.errorResponse(w, r, http.StatusGone, "This showtime is no longer open for booking")
		return
	}

	occupancy, err := app.seatMapRepo.Occupancy(r.Context(), showtimeID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	known := make(map[string]bool, len(occupancy))
	occupied := make(map[string]bool, len(occupancy))

	for _, s := range occupancy {
		known[s.Seat] = true
		occupied[s.Seat] = s.Occupied()
	}

	seen := make(map[string]bool, len(input.Seats))

	for _, seat := range input.Seats {
		if !known[seat] {
			app.badRequestResponse(w, r, fmt.Errorf("seat %s does not exist in the hall", seat))
			return
		}

		if seen[seat] {
			app.badRequestResponse(w, r, fmt.Errorf("seat %s is requested more than once", seat))
			return
		}

		seen[seat] = true
	}

	userId := app.contextGetUserId(r)

	user, err := app.userRepo.GetById(r.Context(), userId)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	var membership *domain.Membership

	if showtime.Free {
		err = app.checkFreeAllowance(r.Context(), user, showtime, len(input.Seats))
	} else {
		membership, err = app.checkMembershipQuota(r.Context(), userId, showtime, len(input.Seats), now)
	}

	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoActiveMembership):
			app.forbiddenResponse(w, r, err)
		case errors.Is(err, domain.ErrInsufficientQuota), errors.Is(err, domain.ErrMovieCapReached):
			app.editConflictResponseWithErr(w, r, err)
		case errors.Is(err, errFreeAllowanceExceeded), errors.Is(err, errSingleSeatPass):
			app.forbiddenResponse(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	// Seats are claimed and reported in the order the client listed them.
	assignments := make([]api.SeatAssignment, 0, len(input.Seats))
	issued := make([]*domain.Ticket, 0, len(input.Seats))

	for _, seat := range input.Seats {
		if occupied[seat] {
			assignments = append(assignments, api.SeatAssignment{Seat: seat, Message: "Seat already assigned"})
			continue
		}

		ticket := &domain.Ticket{
			ID:         uuid.New(),
			UserID:     userId,
			ShowtimeID: showtimeID,
			Seat:       seat,
			Code:       uuid.NewString(),
			Free:       showtime.Free,
			ExpiresAt:  showtime.TicketExpiry(),
		}

		if membership != nil {
			membershipID := membership.ID
			ticket.MembershipID = &membershipID
		}

		err = app.ticketRepo.AssignSeat(r.Context(), ticket, membership)

		switch {
		case err == nil:
			assignments = append(assignments, api.SeatAssignment{Seat: seat, Message: "Seat assigned"})
			issued = append(issued, ticket)
		case errors.Is(err, domain.ErrSeatAlreadyAssigned):
			assignments = append(assignments, api.SeatAssignment{Seat: seat, Message: "Seat already assigned"})
		default:
			logger.Error("failed to assign seat", "seat", seat, "error", err)
			assignments = append(assignments, api.SeatAssignment{Seat: seat, Message: "Error assigning seat"})
		}
	}

	resp := api.AssignSeatsResponse{Assignments: assignments}

	if len(issued) == 0 {
		err = app.writeJSON(w, http.StatusConflict, resp, nil)
		if err != nil {
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	app.notifyIssued(logger, user, showtime, issued)

	err = app.writeJSON(w, http.StatusCreated, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

var (
	errFreeAllowanceExceeded = errors.New("free seat allowance exceeded for this movie")
	errSingleSeatPass        = errors.New("film festival passes admit a single seat per movie")
)

func (app *Application) freeAllowanceFor(ctx context.Context, designation string) (int, error) {
	allowance, err := app.planRepo.FreeAllowance(ctx, designation)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return 0, nil
		}

		return 0, err
	}

	return allowance, nil
}

func (app *Application) checkFreeAllowance(ctx context.Context, user *domain.User, showtime *domain.Showtime, requested int) error {
	allowance, err := app.freeAllowanceFor(ctx, user.Designation)
	if err != nil {
		return err
	}

	used, err := app.ticketRepo.CountFreeByUserAndMovie(ctx, user.ID, showtime.MovieID)
	if err != nil {
		return err
	}

	if used+requested > allowance {
		return errFreeAllowanceExceeded
	}

	return nil
}

func (app *Application) checkMembershipQuota(
	ctx context.Context,
	userId int,
	showtime *domain.Showtime,
	requested int,
	now time.Time,
) (*domain.Membership, error) {

	err := app.membershipRepo.InvalidateStale(ctx, userId, now)
	if err != nil {
		return nil, err
	}

	membership, err := app.membershipRepo.GetCurrentValid(ctx, userId)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.ErrNoActiveMembership
		}

		return nil, err
	}

	if !membership.Live(now) {
		return nil, domain.ErrNoActiveMembership
	}

	if membership.Kind == domain.PlanFilmFest {
		if requested > 1 {
			return nil, errSingleSeatPass
		}

		if membership.HasMovie(showtime.MovieID) {
			return nil, domain.ErrMovieCapReached
		}

		held, err := app.ticketRepo.ExistsActiveByUserAndShowtime(ctx, userId, showtime.ID)
		if err != nil {
			return nil, err
		}

		if held {
			return nil, domain.ErrMovieCapReached
		}

		return membership, nil
	}

	if membership.AvailQR < requested {
		return nil, domain.ErrInsufficientQuota
	}

	return membership, nil
}

func (app *Application) notifyIssued(logger *slog.Logger, user *domain.User, showtime *domain.Showtime, issued []*domain.Ticket) {
	seatLabels := make([]string, 0, len(issued))
	for _, t := range issued {
		seatLabels = append(seatLabels, t.Seat)
	}

	app.background(logger, func() {
		data := map[string]any{
			"name":  user.Name,
			"movie": showtime.MovieTitle,
			"show":  showtime.StartsAt.Format("Jan 2, 2006 15:04"),
			"seats": strings.Join(seatLabels, ", "),
		}

		err := app.mailer.Send(user.Email, "ticket_confirmation.tmpl", data)
		if err != nil {
			logger.Error("failed to send ticket confirmation email", "error", err)
		}
	})

	for _, t := range issued {
		event := events.TicketIssuedEvent{
			TicketID:   t.ID,
			UserID:     t.UserID,
			ShowtimeID: t.ShowtimeID,
			Seat:       t.Seat,
			Free:       t.Free,
			IssuedAt:   t.RegisteredAt,
		}

		app.background(logger, func() {
			err := app.publisher.PublishTicketIssued(context.Background(), event)
			if err != nil {
				logger.Error("failed to publish ticket issued event", "ticket_id", event.TicketID, "error", err)
			}
		})
	}
}
