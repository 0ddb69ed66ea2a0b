package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ecgrisk/internal/config"
	"ecgrisk/internal/predict"
	"ecgrisk/internal/stream"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	addr := flag.String("addr", ":9000", "HTTP listen address")
	seed := flag.Int64("seed", 1, "Seed of the mock model")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	model := predict.NewMock(*seed)

	if cfg.NATS.Enabled() {
		nc, err := stream.Connect(cfg.NATS)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer nc.Drain()
		if _, err := predict.ServeNATS(nc, cfg.NATS.PredictSubject, model); err != nil {
			log.Fatalf("Failed to subscribe to %s: %v", cfg.NATS.PredictSubject, err)
		}
		log.Printf("[Predictor] Answering requests on %s", cfg.NATS.PredictSubject)
	}

	srv := &http.Server{Addr: *addr, Handler: predict.Handler(model), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Printf("[Predictor] Listening on %s", *addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Predictor] Shutdown: %v", err)
	}
}
