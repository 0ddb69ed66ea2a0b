package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"ecgrisk/internal"
	"ecgrisk/internal/config"
	"ecgrisk/internal/container"
	apperrors "ecgrisk/internal/errors"
	"ecgrisk/internal/stream"
)

var logger = internal.DefaultLogger.With("Main")

// initDatabase opens the PostgreSQL connection when one is configured.
func initDatabase(appConfig *config.Config) (*sqlx.DB, error) {
	if !appConfig.Database.Enabled() {
		return nil, nil
	}
	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to connect to database")
	}
	return db, nil
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(appConfig.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}

	db, err := initDatabase(appConfig)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if db != nil {
		if err := appContainer.InitWithDatabase(ctx, db); err != nil {
			log.Fatalf("Failed to initialize container with database: %v", err)
		}
	} else {
		logger.Info("DATABASE_URL not set, using in-memory repositories")
	}

	if appConfig.NATS.Enabled() {
		nc, err := stream.Connect(appConfig.NATS)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		if err := appContainer.InitWithNATS(nc); err != nil {
			log.Fatalf("Failed to initialize container with NATS: %v", err)
		}
		logger.Info("Publishing frames to %s.<session>", appConfig.NATS.WaveSubject)
	}

	if err := appContainer.Init(); err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	dashboard := &http.Server{Addr: ":" + appConfig.Server.Port, Handler: appContainer.UI.Handler()}
	ops := &http.Server{Addr: ":" + appConfig.Server.OpsPort, Handler: appContainer.OpsHandler()}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range []*http.Server{dashboard, ops} {
		srv := srv
		g.Go(func() error {
			logger.Info("Listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), appConfig.Server.ShutdownTimeout)
		defer cancel()
		if err := dashboard.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Dashboard shutdown: %v", err)
		}
		if err := ops.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Ops shutdown: %v", err)
		}
		return appContainer.Close(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped: %v", err)
		os.Exit(1)
	}
}
