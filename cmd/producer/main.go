package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	ecg "ecgrisk/domain/signal"
	"ecgrisk/internal"
	"ecgrisk/internal/config"
	"ecgrisk/internal/stream"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	var (
		session = flag.String("session", "producer", "session suffix of the wave subject")
		fs      = flag.Int("fs", 250, "sampling rate Hz")
		hr      = flag.Float64("hr", 72, "heart rate bpm")
		noise   = flag.Float64("noise", 0.02, "noise amplitude")
		batch   = flag.Int("batch", 10, "samples per message")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if !cfg.NATS.Enabled() {
		log.Fatal("NATS_URL is required")
	}
	nc, err := stream.Connect(cfg.NATS)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer nc.Drain()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(time.Second / time.Duration(*fs))
	defer ticker.Stop()

	p := &producer{
		conn:          nc,
		waveSubject:   cfg.NATS.WaveSubject + "." + *session,
		paramsSubject: cfg.NATS.ParamsSubject,
		session:       *session,
		sim:           ecg.NewECGSim(float64(*fs), *hr, *noise),
		detector:      ecg.NewHRDetector(),
		batch:         *batch,
		log:           internal.DefaultLogger.With("Producer"),
	}
	p.log.Info("Streaming %d Hz to %s in batches of %d", *fs, p.waveSubject, *batch)
	sent := p.run(ctx, ticker.C)
	p.log.Info("Stopping after %d batches", sent)
}
