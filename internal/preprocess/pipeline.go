package preprocess

import (
	"context"
	"log"
	"runtime"

	"golang.org/x/sync/semaphore"

	"ecgrisk/domain/signal"
	"ecgrisk/internal/errors"
)

// Result is a processed signal and its quality report.
type Result struct {
	Signal  signal.Signal `json:"-"`
	Quality Quality       `json:"quality"`
}

// Pipeline runs bandpass, notch, denoise, optional Savitzky-Golay smoothing,
// normalize and resample in order.
type Pipeline struct {
	cfg      Config
	bandpass Cascade
	notch    Cascade
}

// NewPipeline validates cfg and designs the filters once.
func NewPipeline(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	bp, ok := Bandpass(cfg.LowCut, cfg.HighCut, cfg.FilterOrder, cfg.SamplingRate)
	if !ok {
		return nil, errors.InvalidInput("bandpass cannot be realized at this sampling rate")
	}
	p := &Pipeline{cfg: cfg, bandpass: bp}
	if n, ok := Notch(cfg.NotchFreq, cfg.NotchQuality, cfg.SamplingRate); ok {
		p.notch = Cascade{n}
	} else {
		log.Printf("[Preprocess] Notch at %.1f Hz skipped for %.1f Hz sampling", cfg.NotchFreq, cfg.SamplingRate)
	}
	return p, nil
}

// Config returns the pipeline's configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Process runs every stage on sig and reports the output's quality.
// The returned signal carries the rate implied by TargetLength.
func (p *Pipeline) Process(sig signal.Signal) (Result, error) {
	if sig.IsEmpty() {
		return Result{}, errors.InvalidInput("signal is empty")
	}
	x := p.bandpass.FiltFilt(sig.Samples())
	if p.notch != nil {
		x = p.notch.FiltFilt(x)
	}
	x = WaveletDenoise(x, p.cfg.WaveletLevel)
	if p.cfg.SmoothWindow > 0 {
		smoothed, err := SavgolSmooth(x, p.cfg.SmoothWindow, p.cfg.SmoothOrder)
		if err != nil {
			return Result{}, err
		}
		x = smoothed
	}

	x, err := Normalize(x, p.cfg.Normalization)
	if err != nil {
		return Result{}, err
	}

	rate := p.cfg.SamplingRate
	if len(x) != p.cfg.TargetLength {
		rate = rate * float64(p.cfg.TargetLength) / float64(len(x))
		x = Resample(x, p.cfg.TargetLength)
	}
	return Result{Signal: signal.New(x, rate), Quality: AssessQuality(x, rate)}, nil
}

// Batch processes signals concurrently with at most workers in flight and
// returns results in input order. workers <= 0 uses GOMAXPROCS.
func (p *Pipeline) Batch(ctx context.Context, signals []signal.Signal, workers int) ([]Result, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	log.Printf("[Preprocess] Processing batch of %d signals with %d workers", len(signals), workers)

	sem := semaphore.NewWeighted(int64(workers))
	results := make([]Result, len(signals))
	errs := make([]error, len(signals))

	for i, sig := range signals {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		go func(i int, sig signal.Signal) {
			defer sem.Release(1)
			results[i], errs[i] = p.Process(sig)
		}(i, sig)
	}
	if err := sem.Acquire(ctx, int64(workers)); err != nil {
		return nil, err
	}

	for i, err := range errs {
		if err != nil {
			return nil, errors.Wrapf(err, "signal %d", i)
		}
	}
	return results, nil
}
