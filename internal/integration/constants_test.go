package integration_test

import (
	"github.com/filmsociety/ticketing/internal/domain"
)

const (
	TestQRSecret      = "integration-test-secret"
	TestWebhookSecret = "whsec_integration_test"

	// User related constants
	TestUserName        = "Asha Rao"
	TestUserEmail       = "asha@example.com"
	TestUserPassword    = "Test123!@#"
	TestUserDesignation = domain.DesignationBtech

	// Movie related constants
	TestMovieTitle = "Stalker"
	TestMovieGenre = "Drama"

	// Plan names as seeded by the catalog migration
	TestStandardPlan = "standard"
	TestFilmFestPlan = "filmfest"
)
