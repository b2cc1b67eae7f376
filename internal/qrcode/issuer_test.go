package qrcode

import (
	"strings"
	"testing"

	"github.com/filmsociety/ticketing/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	issuer := NewIssuer("test-secret")

	claims := Claims{
		UserID:   42,
		TicketID: uuid.New(),
		Seat:     "A12",
	}

	token, err := issuer.Issue(claims)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := issuer.Verify(token)
	require.NoError(t, err)

	assert.Equal(t, claims.UserID, got.UserID)
	assert.Equal(t, claims.TicketID, got.TicketID)
	assert.Equal(t, claims.Seat, got.Seat)
	assert.NotEmpty(t, got.Nonce)
}

func TestIssueGeneratesDistinctTokens(t *testing.T) {
	issuer := NewIssuer("test-secret")

	claims := Claims{
		UserID:   42,
		TicketID: uuid.New(),
		Seat:     "B7",
	}

	first, err := issuer.Issue(claims)
	require.NoError(t, err)

	second, err := issuer.Issue(claims)
	require.NoError(t, err)

	// The random nonce keeps credentials unpredictable even for the same
	// user, ticket, and seat.
	assert.NotEqual(t, first, second)
}

func TestVerifyFailsClosed(t *testing.T) {
	issuer := NewIssuer("test-secret")

	valid, err := issuer.Issue(Claims{UserID: 1, TicketID: uuid.New(), Seat: "C3"})
	require.NoError(t, err)

	otherSecret, err := NewIssuer("other-secret").Issue(Claims{UserID: 1, TicketID: uuid.New(), Seat: "C3"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"wrong secret", otherSecret},
		{"tampered payload", tamper(valid)},
		{"truncated", valid[:len(valid)/2]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.Verify(tt.token)
			assert.ErrorIs(t, err, domain.ErrInvalidCredential)
		})
	}
}

func tamper(token string) string {
	parts := strings.Split(token, ".")
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	parts[1] = string(payload)

	return strings.Join(parts, ".")
}
