package integration_test

import (
	"io"
	"log/slog"

	"github.com/filmsociety/ticketing/internal/app"
	"github.com/filmsociety/ticketing/internal/events"
	"github.com/filmsociety/ticketing/internal/mailer"
	"github.com/filmsociety/ticketing/internal/payment"
	"github.com/filmsociety/ticketing/internal/repository"
	appvalidator "github.com/filmsociety/ticketing/internal/validator"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TestApp struct {
	App       *app.Application
	DB        *pgxpool.Pool
	Mailer    *mailer.MockMailer
	Publisher *events.MockPublisher
}

func newTestApp(cfg app.Config) (*TestApp, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	validator := appvalidator.NewValidator()
	mockMailer := mailer.NewMockMailer()
	mockPublisher := events.NewMockPublisher()

	db, err := app.NewDatabasePool(cfg)
	if err != nil {
		return nil, err
	}

	redisClient, err := app.NewRedisClient(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	sessionManager := app.NewSessionManager(redisClient)

	application := app.NewApp(
		cfg,
		logger,
		db,
		redisClient,
		validator,
		mockMailer,
		sessionManager,
		repository.NewPostgresUserRepository(db),
		repository.NewPostgresShowtimeRepository(db),
		repository.NewPostgresSeatMapRepository(db),
		repository.NewPostgresTicketRepository(db),
		repository.NewPostgresMembershipRepository(db),
		repository.NewPostgresPlanRepository(db),
		payment.NewMockPaymentProvider(),
		mockPublisher,
	)

	return &TestApp{
		App:       application,
		DB:        db,
		Mailer:    mockMailer,
		Publisher: mockPublisher,
	}, nil
}
