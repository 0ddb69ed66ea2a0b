package predict

import (
	"context"
	"log"
	"sync"
	"time"

	"ecgrisk/domain/model"
	"ecgrisk/domain/state"
	"ecgrisk/internal/interval"
	"ecgrisk/ports"
)

// DefaultFeedInterval is how often a session asks for a fresh prediction.
const DefaultFeedInterval = 2 * time.Second

// Target is the session a feed keeps up to date.
type Target interface {
	State() state.State
	SetPrediction(model.Prediction) state.State
}

// FeedOption configures a Feed.
type FeedOption func(*Feed)

// WithFeedTicker injects the ticker source, for tests.
func WithFeedTicker(f interval.TickerFactory) FeedOption {
	return func(fd *Feed) { fd.tickers = f }
}

// WithTimeout bounds each predictor call.
func WithTimeout(d time.Duration) FeedOption {
	return func(fd *Feed) {
		if d > 0 {
			fd.timeout = d
		}
	}
}

// Feed periodically predicts on the target's current signal and replaces
// its prediction. A failed call is logged and the previous value stays.
type Feed struct {
	predictor ports.Predictor
	target    Target
	every     time.Duration
	timeout   time.Duration
	tickers   interval.TickerFactory

	mu     sync.Mutex
	loop   *interval.Interval
	ctx    context.Context
	cancel context.CancelFunc
}

// NewFeed creates a stopped feed.
func NewFeed(p ports.Predictor, target Target, every time.Duration, opts ...FeedOption) *Feed {
	if every <= 0 {
		every = DefaultFeedInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	fd := &Feed{
		predictor: p,
		target:    target,
		every:     every,
		timeout:   every,
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(fd)
		}
	}
	return fd
}

// Start begins polling. Calling it again has no effect.
func (fd *Feed) Start() {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	if fd.loop != nil {
		return
	}
	var opts []interval.Option
	if fd.tickers != nil {
		opts = append(opts, interval.WithTicker(fd.tickers))
	}
	fd.loop = interval.New(fd.tick, interval.Every(fd.every), opts...)
}

// Stop cancels polling and any request in flight.
func (fd *Feed) Stop() {
	fd.mu.Lock()
	loop := fd.loop
	fd.mu.Unlock()
	if loop != nil {
		loop.Stop()
	}
	fd.cancel()
}

// Once runs a single prediction synchronously.
func (fd *Feed) Once(ctx context.Context) (model.Prediction, error) {
	s := fd.target.State()
	ctx, cancel := context.WithTimeout(ctx, fd.timeout)
	defer cancel()

	pred, err := fd.predictor.Predict(ctx, s.SelectedModel, s.Signal)
	if err != nil {
		return model.Prediction{}, err
	}
	if pred.Model == "" {
		pred.Model = s.SelectedModel
	}
	if cur := fd.target.State(); cur.SelectedModel != s.SelectedModel || cur.SelectedPatient != s.SelectedPatient {
		log.Printf("[Feed] Dropping stale prediction for session %s", s.SessionID)
		return pred, nil
	}
	fd.target.SetPrediction(pred)
	return pred, nil
}

func (fd *Feed) tick() {
	if _, err := fd.Once(fd.ctx); err != nil {
		log.Printf("[Feed] Prediction failed for session %s: %v", fd.target.State().SessionID, err)
	}
}
