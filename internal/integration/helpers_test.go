package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/filmsociety/ticketing/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

func prepareRequest(method, path string, body io.Reader, headers map[string]string, cookies []*http.Cookie) (*http.Request, error) {
	req := httptest.NewRequest(method, path, body)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	for _, c := range cookies {
		req.AddCookie(c)
	}

	return req, nil
}

func compareResponse(t *testing.T, body io.Reader, expectedResponse string) {
	var actual map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&actual))

	var expected map[string]any
	require.NoError(t, json.Unmarshal([]byte(expectedResponse), &expected))

	// ignore indeterministic fields while comparing
	opts := cmpopts.IgnoreMapEntries(func(k string, _ any) bool {
		return k == "timestamp" || k == "requestId" || k == "createdAt"
	})

	if diff := cmp.Diff(expected, actual, opts); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

// createUser seeds a user holding TestUserPassword and returns its id.
func createUser(t testing.TB, app *TestApp, name, email, designation string) int {
	t.Helper()

	var user domain.User
	require.NoError(t, user.Password.Set(TestUserPassword))

	var id int

	err := app.DB.QueryRow(context.Background(), `
		INSERT INTO users (name, email, phone, password_hash, designation)
		VALUES ($1, $2, '', $3, $4)
		RETURNING id
	`, name, email, user.Password.Hash, designation).Scan(&id)
	require.NoError(t, err)

	return id
}

// createShowtime seeds a movie together with one showtime of it and returns
// both ids.
func createShowtime(t testing.TB, app *TestApp, title, genre string, free bool, startsAt time.Time) (movieID, showtimeID int) {
	t.Helper()

	ctx := context.Background()

	err := app.DB.QueryRow(ctx, `
		INSERT INTO movies (title, genre, free)
		VALUES ($1, $2, $3)
		RETURNING id
	`, title, genre, free).Scan(&movieID)
	require.NoError(t, err)

	err = app.DB.QueryRow(ctx, `
		INSERT INTO showtimes (movie_id, starts_at)
		VALUES ($1, $2)
		RETURNING id
	`, movieID, startsAt).Scan(&showtimeID)
	require.NoError(t, err)

	return movieID, showtimeID
}

// addShowtime seeds a second showtime for an existing movie.
func addShowtime(t testing.TB, app *TestApp, movieID int, startsAt time.Time) int {
	t.Helper()

	var id int

	err := app.DB.QueryRow(context.Background(), `
		INSERT INTO showtimes (movie_id, starts_at)
		VALUES ($1, $2)
		RETURNING id
	`, movieID, startsAt).Scan(&id)
	require.NoError(t, err)

	return id
}

// provisionSeats opens the given seats for booking at a showtime.
func provisionSeats(t testing.TB, app *TestApp, showtimeID int, seats ...string) {
	t.Helper()

	for _, seat := range seats {
		_, err := app.DB.Exec(context.Background(), `
			INSERT INTO seat_maps (showtime_id, seat)
			VALUES ($1, $2)
		`, showtimeID, seat)
		require.NoError(t, err)
	}
}

// grantMembership seeds a membership from the named catalog plan and returns
// its id.
func grantMembership(t testing.TB, app *TestApp, userID int, planName string) int {
	t.Helper()

	var id int

	err := app.DB.QueryRow(context.Background(), `
		INSERT INTO memberships (user_id, plan, kind, txn_id, validity_seconds, avail_qr, amount, movie_count, expires_at)
		SELECT $1, p.name, p.kind, 'seed-txn', p.validity_seconds, p.avail_qr, 0, p.movie_count,
			now() + p.validity_seconds * interval '1 second'
		FROM plans p
		WHERE p.name = $2
		RETURNING id
	`, userID, planName).Scan(&id)
	require.NoError(t, err)

	return id
}

// login runs the real login flow and hands back the session cookies to attach
// to subsequent requests.
func login(t testing.TB, app *TestApp, email string) []*http.Cookie {
	t.Helper()

	body := fmt.Sprintf(`{"email": %q, "password": %q}`, email, TestUserPassword)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	app.App.Routes().ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code, "login failed: %s", rec.Body.String())

	return rec.Result().Cookies()
}

// doWebhook posts a raw payload through the router with the given headers.
func doWebhook(t testing.TB, app *TestApp, payload []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req, err := prepareRequest(http.MethodPost, "/webhook/", bytes.NewReader(payload), headers, nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	app.App.Routes().ServeHTTP(rec, req)

	return rec
}

// doJSON sends an authenticated JSON request through the router and decodes
// the response body into out when it is non-nil.
func doJSON(t testing.TB, app *TestApp, method, url string, body string, cookies []*http.Cookie, out any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := prepareRequest(method, url, reader, nil, cookies)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	app.App.Routes().ServeHTTP(rec, req)

	if out != nil && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}

	return rec
}
