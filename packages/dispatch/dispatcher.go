package dispatch

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/tk0221/envdiff/packages/http"
)

// RequestIDHeader carries the id generated for each dispatched request.
const RequestIDHeader = "X-Request-Id"

// Dispatcher fans resolved requests out to their targets.
type Dispatcher struct {
	client      *http.Client
	concurrency int
	limiter     *rate.Limiter
	timeout     time.Duration
	logger      *slog.Logger
	onResult    func(*http.Envelope)
	requestIDs  bool
}

type Option func(*Dispatcher)

// New returns a dispatcher sending through client. A nil client gets the
// default http.Client configuration.
func New(client *http.Client, opts ...Option) *Dispatcher {
	if client == nil {
		client = http.NewClient()
	}
	d := &Dispatcher{
		client:     client,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		requestIDs: true,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// WithConcurrency caps the number of in-flight requests. Zero or less means
// no cap.
func WithConcurrency(n int) Option {
	return func(d *Dispatcher) {
		d.concurrency = n
	}
}

// WithRateLimit limits how many requests are issued per second. Zero or less
// disables the limit.
func WithRateLimit(perSecond float64) Option {
	return func(d *Dispatcher) {
		if perSecond > 0 {
			d.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		} else {
			d.limiter = nil
		}
	}
}

// WithTimeout bounds each target individually.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		d.timeout = timeout
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithOnResult registers fn to observe each envelope as soon as it arrives.
// fn may be called from several goroutines at once.
func WithOnResult(fn func(*http.Envelope)) Option {
	return func(d *Dispatcher) {
		d.onResult = fn
	}
}

// WithRequestIDs controls whether an X-Request-Id header is added to
// requests that do not already carry one.
func WithRequestIDs(enabled bool) Option {
	return func(d *Dispatcher) {
		d.requestIDs = enabled
	}
}

// Dispatch sends every request and returns the envelopes keyed by
// environment id. It never fails as a whole: an unreachable target, a
// timeout or an unreadable body produces a failure envelope for that
// environment only. Cancelling ctx turns the outstanding targets into
// failures.
func (d *Dispatcher) Dispatch(ctx context.Context, reqs []*http.ResolvedRequest) map[string]*http.Envelope {
	results := make(map[string]*http.Envelope, len(reqs))
	var mu sync.Mutex

	var g errgroup.Group
	if d.concurrency > 0 {
		g.SetLimit(d.concurrency)
	}

	for _, req := range reqs {
		req := req
		g.Go(func() error {
			env := d.send(ctx, req)

			mu.Lock()
			results[req.EnvironmentID] = env
			mu.Unlock()

			if d.onResult != nil {
				d.onResult(env)
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (d *Dispatcher) send(ctx context.Context, req *http.ResolvedRequest) *http.Envelope {
	log := d.logger.With("environment", req.EnvironmentID, "method", req.Method, "url", req.URL)

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			log.Warn("rate limiter wait failed", "error", err)
			return http.NewFailureEnvelope(req.EnvironmentID, req.URL, err)
		}
	}

	req, requestID := d.withRequestID(req)

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	log.Debug("dispatching request", "request_id", requestID)
	env, err := d.client.Do(ctx, req)
	if err != nil {
		log.Warn("request failed", "request_id", requestID, "error", err)
		env = http.NewFailureEnvelope(req.EnvironmentID, req.URL, err)
	} else {
		log.Info("request completed",
			"request_id", requestID,
			"status", env.Status,
			"duration", env.Time,
			"size", env.Size,
		)
	}
	env.RequestID = requestID
	return env
}

// withRequestID returns a copy of req carrying an X-Request-Id header. The
// caller's request is never mutated.
func (d *Dispatcher) withRequestID(req *http.ResolvedRequest) (*http.ResolvedRequest, string) {
	if existing := req.Header(RequestIDHeader); existing != "" || !d.requestIDs {
		return req, existing
	}
	id := uuid.NewString()
	clone := *req
	clone.Headers = maps.Clone(req.Headers)
	if clone.Headers == nil {
		clone.Headers = make(map[string]string, 1)
	}
	clone.Headers[RequestIDHeader] = id
	return &clone, id
}
