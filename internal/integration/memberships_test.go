package integration_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/filmsociety/ticketing/api"
	"github.com/stretchr/testify/suite"
	"github.com/stripe/stripe-go/v82"
)

type MembershipsSuite struct {
	BaseSuite
}

func TestMembershipsSuite(t *testing.T) {
	if testing.Short() {
		t.Skip()
	}

	suite.Run(t, new(MembershipsSuite))
}

func (s *MembershipsSuite) TestGetPlansIsPublic() {
	var resp api.PlansResponse
	rec := doJSON(s.T(), s.app, http.MethodGet, "/memberships/plans", "", nil, &resp)

	s.Require().Equal(http.StatusOK, rec.Code)
	s.Require().Len(resp.Plans, 2, "the base grant is not offered for sale")

	s.Equal(TestStandardPlan, resp.Plans[0].Name)
	s.Equal(180, resp.Plans[0].ValidityDays)
	s.Equal(10, resp.Plans[0].AvailQr)
	s.Equal("200", resp.Plans[0].Prices["btech"].String())

	s.Equal(TestFilmFestPlan, resp.Plans[1].Name)
	s.Equal(7, resp.Plans[1].ValidityDays)
	s.Equal(4, resp.Plans[1].MovieCount)
}

func (s *MembershipsSuite) TestGetMemberships() {
	userID := createUser(s.T(), s.app, TestUserName, TestUserEmail, TestUserDesignation)
	grantMembership(s.T(), s.app, userID, TestStandardPlan)

	cookies := login(s.T(), s.app, TestUserEmail)

	var resp api.MembershipsResponse
	rec := doJSON(s.T(), s.app, http.MethodGet, "/users/me/memberships", "", cookies, &resp)

	s.Require().Equal(http.StatusOK, rec.Code)
	s.True(resp.HasMembership)
	s.Require().Len(resp.Memberships, 1)
	s.Equal(TestStandardPlan, resp.Memberships[0].Plan)
	s.Equal(10, resp.Memberships[0].AvailQr)
	s.True(resp.Memberships[0].Active)
}

func (s *MembershipsSuite) TestCreateCheckoutSession() {
	createUser(s.T(), s.app, TestUserName, TestUserEmail, TestUserDesignation)
	cookies := login(s.T(), s.app, TestUserEmail)

	var resp api.CheckoutSessionResponse
	rec := doJSON(s.T(), s.app, http.MethodPost, "/checkout/session",
		fmt.Sprintf(`{"plan": %q}`, TestStandardPlan), cookies, &resp)

	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal("https://checkout.stripe.com/c/pay/cs_test_mock", resp.RedirectUrl)
}

func (s *MembershipsSuite) TestCreateCheckoutSessionRefusedWhileLive() {
	userID := createUser(s.T(), s.app, TestUserName, TestUserEmail, TestUserDesignation)
	grantMembership(s.T(), s.app, userID, TestStandardPlan)

	cookies := login(s.T(), s.app, TestUserEmail)

	rec := doJSON(s.T(), s.app, http.MethodPost, "/checkout/session",
		fmt.Sprintf(`{"plan": %q}`, TestFilmFestPlan), cookies, nil)

	s.Equal(http.StatusConflict, rec.Code)
}

// signWebhookPayload produces a Stripe-Signature header for a payload, the
// same HMAC scheme ConstructEvent verifies.
func signWebhookPayload(payload []byte, secret string) string {
	ts := time.Now().Unix()

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)

	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func checkoutCompletedPayload(userID int, plan string, amountCents int) []byte {
	return fmt.Appendf(nil, `{
		"id": "evt_test_1",
		"api_version": %q,
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": "cs_test_1",
				"amount_total": %d,
				"metadata": {
					"plan": %q,
					"user_id": "%d"
				}
			}
		}
	}`, stripe.APIVersion, amountCents, plan, userID)
}

func (s *MembershipsSuite) TestWebhookGrantsMembership() {
	userID := createUser(s.T(), s.app, TestUserName, TestUserEmail, TestUserDesignation)

	payload := checkoutCompletedPayload(userID, TestStandardPlan, 20000)

	rec := doWebhook(s.T(), s.app, payload, map[string]string{
		"Stripe-Signature": signWebhookPayload(payload, TestWebhookSecret),
	})

	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	ctx := context.Background()

	var plan, txnID string
	var availQR int
	var amount string
	err := s.app.DB.QueryRow(ctx, `
		SELECT plan, txn_id, avail_qr, amount::text
		FROM memberships
		WHERE user_id = $1 AND is_valid = true
	`, userID).Scan(&plan, &txnID, &availQR, &amount)
	s.Require().NoError(err)

	s.Equal(TestStandardPlan, plan)
	s.Equal("cs_test_1", txnID)
	s.Equal(10, availQR)
	s.Equal("200.00", amount)

	s.Eventually(func() bool {
		return len(s.app.Mailer.GetSentEmails()) == 1
	}, 2*time.Second, 20*time.Millisecond)

	emails := s.app.Mailer.GetSentEmails()
	s.Equal("membership_receipt.tmpl", emails[0].TemplateFile)

	// A provider retry finds the freshly granted membership and skips.
	rec = doWebhook(s.T(), s.app, payload, map[string]string{
		"Stripe-Signature": signWebhookPayload(payload, TestWebhookSecret),
	})
	s.Require().Equal(http.StatusOK, rec.Code)

	var granted int
	err = s.app.DB.QueryRow(ctx,
		`SELECT count(*) FROM memberships WHERE user_id = $1`, userID).Scan(&granted)
	s.Require().NoError(err)
	s.Equal(1, granted, "the retry must not double grant")
}

func (s *MembershipsSuite) TestWebhookRejectsForgedSignature() {
	userID := createUser(s.T(), s.app, TestUserName, TestUserEmail, TestUserDesignation)

	payload := checkoutCompletedPayload(userID, TestStandardPlan, 20000)

	rec := doWebhook(s.T(), s.app, payload, map[string]string{
		"Stripe-Signature": signWebhookPayload(payload, "whsec_wrong"),
	})

	s.Equal(http.StatusBadRequest, rec.Code)

	var granted int
	err := s.app.DB.QueryRow(context.Background(),
		`SELECT count(*) FROM memberships WHERE user_id = $1`, userID).Scan(&granted)
	s.Require().NoError(err)
	s.Zero(granted)
}
