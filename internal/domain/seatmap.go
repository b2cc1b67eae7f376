package domain

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// SeatOccupancy is one row of the seat map projection: a seat label and the
// ticket currently claiming it, if any.
type SeatOccupancy struct {
	Seat     string
	TicketID *uuid.UUID
}

func (s SeatOccupancy) Occupied() bool {
	return s.TicketID != nil
}

// RowConfig describes one physical row of the hall: the row letter prefix, the
// seat counts of its left/center/right blocks, and whether the row is up in
// the balcony. Stored in the seat_rows table and owned by hall management.
type RowConfig struct {
	Prefix  string
	Left    int
	Center  int
	Right   int
	Balcony bool
}

// Seating sections as numbered on the hall map. Balcony rows use the same
// left/center/right split shifted by balconyOffset.
const (
	SectionLeft   = 1
	SectionCenter = 2
	SectionRight  = 3

	balconyOffset = 3
)

// SectionOf derives the seating section of a seat label ("A12") from the row
// configuration. Seats are numbered right to left within a row, so a number
// beyond right+center falls in the left block. Unknown rows report section 0.
func SectionOf(seat string, rows []RowConfig) int {
	prefix, num, ok := splitSeatLabel(seat)
	if !ok {
		return 0
	}

	for _, row := range rows {
		if row.Prefix != prefix {
			continue
		}

		section := SectionRight
		switch {
		case num > row.Center+row.Right:
			section = SectionLeft
		case num > row.Right:
			section = SectionCenter
		}

		if row.Balcony {
			section += balconyOffset
		}

		return section
	}

	return 0
}

// SortSeatLabels orders seat labels naturally: by row prefix, then by the
// numeric suffix ("A2" before "A10", "A10" before "B1").
func SortSeatLabels(seats []string) {
	sort.Slice(seats, func(i, j int) bool {
		return CompareSeatLabels(seats[i], seats[j]) < 0
	})
}

func CompareSeatLabels(a, b string) int {
	aPrefix, aNum, aOk := splitSeatLabel(a)
	bPrefix, bNum, bOk := splitSeatLabel(b)

	if !aOk || !bOk || aPrefix != bPrefix {
		return strings.Compare(a, b)
	}

	switch {
	case aNum < bNum:
		return -1
	case aNum > bNum:
		return 1
	default:
		return 0
	}
}

func splitSeatLabel(seat string) (prefix string, num int, ok bool) {
	i := 0
	for i < len(seat) && (seat[i] < '0' || seat[i] > '9') {
		i++
	}

	if i == 0 || i == len(seat) {
		return "", 0, false
	}

	num, err := strconv.Atoi(seat[i:])
	if err != nil {
		return "", 0, false
	}

	return seat[:i], num, true
}

// SeatMapRepository is the ground truth of seat occupancy for a showtime.
// TryClaim is a single conditional write: it succeeds only if the seat is
// currently unclaimed, and exactly one of any set of concurrent claimants
// wins. Release unconditionally frees the seat and is only used by
// cancellation.
type SeatMapRepository interface {
	Occupancy(ctx context.Context, showtimeID int) ([]SeatOccupancy, error)
	TryClaim(ctx context.Context, showtimeID int, seat string, ticketID uuid.UUID) error
	Release(ctx context.Context, showtimeID int, seat string) error
	RowConfigs(ctx context.Context) ([]RowConfig, error)
}
