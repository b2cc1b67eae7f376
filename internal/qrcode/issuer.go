// Package qrcode mints and verifies the signed tokens embedded in ticket QR
// codes.
package qrcode

import (
	"github.com/filmsociety/ticketing/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims binds a credential to one ticket: the owning user, the ticket id,
// the seat label, and a random nonce so two credentials for the same user and
// seat are never byte-identical.
type Claims struct {
	UserID   int
	TicketID uuid.UUID
	Seat     string
	Nonce    string
}

// Issuer signs and verifies ticket credentials with a shared HS256 secret.
// Tokens deliberately carry no expiry claim; expiration is enforced against
// the ticket record at redemption time, so a token stays verifiable after the
// showtime but the redemption flow still rejects it.
type Issuer struct {
	secret []byte
}

func NewIssuer(secret string) *Issuer {
	return &Issuer{secret: []byte(secret)}
}

// Issue signs the claims, generating a fresh nonce when none is set.
func (i *Issuer) Issue(claims Claims) (string, error) {
	if claims.Nonce == "" {
		claims.Nonce = uuid.NewString()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid":   claims.UserID,
		"tid":   claims.TicketID.String(),
		"seat":  claims.Seat,
		"nonce": claims.Nonce,
	})

	return token.SignedString(i.secret)
}

// Verify checks the signature and extracts the claims. Any failure, whether a
// bad signature, a tampered payload, or a token that does not parse at all,
// comes back as the single opaque ErrInvalidCredential so a scanner learns
// nothing about which check tripped.
func (i *Issuer) Verify(tokenString string) (Claims, error) {
	token, err := jwt.Parse(
		tokenString,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, domain.ErrInvalidCredential
			}
			return i.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !token.Valid {
		return Claims{}, domain.ErrInvalidCredential
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, domain.ErrInvalidCredential
	}

	uid, ok := mapClaims["uid"].(float64)
	if !ok {
		return Claims{}, domain.ErrInvalidCredential
	}

	tidString, ok := mapClaims["tid"].(string)
	if !ok {
		return Claims{}, domain.ErrInvalidCredential
	}

	tid, err := uuid.Parse(tidString)
	if err != nil {
		return Claims{}, domain.ErrInvalidCredential
	}

	seat, ok := mapClaims["seat"].(string)
	if !ok {
		return Claims{}, domain.ErrInvalidCredential
	}

	nonce, _ := mapClaims["nonce"].(string)

	return Claims{
		UserID:   int(uid),
		TicketID: tid,
		Seat:     seat,
		Nonce:    nonce,
	}, nil
}
