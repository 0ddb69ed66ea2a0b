package container

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/nats-io/nats.go"

	"ecgrisk/adapters/excel"
	"ecgrisk/adapters/memory"
	"ecgrisk/adapters/postgres"
	"ecgrisk/domain/core"
	"ecgrisk/domain/patient"
	"ecgrisk/internal/api"
	"ecgrisk/internal/config"
	"ecgrisk/internal/migration"
	"ecgrisk/internal/predict"
	"ecgrisk/internal/session"
	"ecgrisk/internal/stream"
	"ecgrisk/internal/usage"
	"ecgrisk/ports"
	"ecgrisk/ui"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB   *sqlx.DB
	NATS *nats.Conn

	// Repositories (data access layer)
	PatientRepo ports.PatientRepository
	UIStateRepo ports.UIStateRepository

	// Streaming
	Predictor ports.Predictor
	Usage     *usage.Service
	SSEHub    *api.SSEHub
	WSHub     *api.WSHub
	Publisher ports.FramePublisher

	// Dashboard
	Sessions *session.Manager
	UI       *ui.Server
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	return &Container{Config: cfg}, nil
}

// InitWithDatabase migrates the schema, switches the repositories to
// postgres and seeds the patient catalog.
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}
	c.DB = db

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	runner, err := migration.NewRunner()
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	if err := runner.Run(ctx, db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	catalog, err := c.catalog()
	if err != nil {
		return err
	}
	patients := postgres.NewPatientRepository(db)
	if err := patients.Seed(ctx, catalog); err != nil {
		return fmt.Errorf("failed to seed patients: %w", err)
	}
	c.PatientRepo = patients
	c.UIStateRepo = postgres.NewUIStateRepository(db)

	log.Printf("[Container] Repositories backed by postgres (schema %s)", runner.Version())
	return nil
}

// InitWithNATS sets the connection used for publishing and, in nats mode,
// for prediction requests.
func (c *Container) InitWithNATS(nc *nats.Conn) error {
	if nc == nil {
		return fmt.Errorf("nats connection cannot be nil")
	}
	c.NATS = nc
	return nil
}

// Init builds everything that is not yet set. Repositories default to the
// in-memory implementations seeded with the patient catalog.
func (c *Container) Init() error {
	if c.PatientRepo == nil {
		catalog, err := c.catalog()
		if err != nil {
			return err
		}
		c.PatientRepo = memory.NewPatientRepository(catalog...)
	}
	if c.UIStateRepo == nil {
		c.UIStateRepo = memory.NewUIStateRepository()
	}

	if err := c.initPredictor(); err != nil {
		return fmt.Errorf("failed to initialize predictor: %w", err)
	}

	c.Usage = usage.NewService()
	c.SSEHub = api.NewSSEHub()
	c.WSHub = api.NewWSHub()
	fanout := stream.Fanout{c.Usage, c.SSEHub, c.WSHub}
	if c.NATS != nil {
		fanout = append(fanout, stream.NewPublisher(c.NATS, c.Config.NATS))
	}
	c.Publisher = fanout

	c.Sessions = session.NewManager(c.PatientRepo, c.UIStateRepo, c.Predictor,
		session.SettingsFromConfig(c.Config),
		session.WithPublisher(c.Publisher),
		session.WithOnClose(func(id core.SessionID) { c.Usage.Forget(id) }),
	)

	server, err := ui.NewServer(ui.Deps{
		Sessions:  c.Sessions,
		Patients:  c.PatientRepo,
		Predictor: c.Predictor,
		SSE:       c.SSEHub,
		WS:        c.WSHub,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize dashboard: %w", err)
	}
	c.UI = server

	log.Printf("[Container] Initialized: predictor=%s, publishers=%d", c.Config.Predictor.Mode, len(fanout))
	return nil
}

// catalog returns the configured patient file's cases, or the built-in ones.
func (c *Container) catalog() ([]patient.Patient, error) {
	path := c.Config.Database.PatientsFile
	if path == "" {
		return patient.Catalog(), nil
	}
	patients, err := excel.NewDataReader(path).ReadPatients()
	if err != nil {
		return nil, fmt.Errorf("failed to import patients from %s: %w", path, err)
	}
	return patients, nil
}

func (c *Container) initPredictor() error {
	if c.Predictor != nil {
		return nil
	}
	switch c.Config.Predictor.Mode {
	case config.PredictorNATS:
		if c.NATS == nil {
			return fmt.Errorf("predictor mode nats needs a NATS connection")
		}
		c.Predictor = predict.NewNATSPredictor(c.NATS, c.Config.NATS.PredictSubject)
	case config.PredictorHTTP:
		c.Predictor = predict.NewHTTPPredictor(c.Config.Predictor.URL, c.Config.Predictor.Timeout)
	default:
		c.Predictor = predict.NewMock(c.Config.Signal.Seed)
	}
	return nil
}

// OpsHandler serves health and metrics for whatever the container holds.
func (c *Container) OpsHandler() http.Handler {
	checks := map[string]api.HealthCheck{}
	if c.DB != nil {
		checks["database"] = c.DB.PingContext
	}
	if c.NATS != nil {
		nc := c.NATS
		checks["nats"] = func(context.Context) error {
			if !nc.IsConnected() {
				return fmt.Errorf("nats status %s", nc.Status())
			}
			return nil
		}
	}
	deps := api.OpsDeps{Usage: c.Usage, SSE: c.SSEHub, WS: c.WSHub, Checks: checks}
	if c.Sessions != nil {
		deps.Sessions = func() int { return len(c.Sessions.List()) }
	}
	return api.NewOpsRouter(deps)
}

// Close persists sessions and releases connections.
func (c *Container) Close(ctx context.Context) error {
	var firstErr error
	if c.Sessions != nil {
		if err := c.Sessions.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if c.SSEHub != nil {
		c.SSEHub.Close()
	}
	if c.NATS != nil {
		if err := c.NATS.Drain(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
