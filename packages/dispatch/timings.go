package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/tk0221/envdiff/packages/http"
)

// Latencies are recorded in microseconds between 1us and 60s.
const (
	minLatencyUs = 1
	maxLatencyUs = 60_000_000
	sigFigs      = 3
)

// Timings aggregates response latencies per environment across rounds.
type Timings struct {
	mu    sync.Mutex
	order []string
	byEnv map[string]*envTimings
}

type envTimings struct {
	histogram *hdrhistogram.Histogram
	samples   int
	failures  int
}

// LatencyStats summarizes the successful samples of one environment.
// Failure envelopes are counted but carry no latency.
type LatencyStats struct {
	EnvironmentID string        `json:"environment"`
	Samples       int           `json:"samples"`
	Failures      int           `json:"failures"`
	Min           time.Duration `json:"min"`
	Max           time.Duration `json:"max"`
	Mean          time.Duration `json:"mean"`
	P50           time.Duration `json:"p50"`
	P95           time.Duration `json:"p95"`
	P99           time.Duration `json:"p99"`
}

func NewTimings() *Timings {
	return &Timings{byEnv: make(map[string]*envTimings)}
}

// Record adds one envelope. Environments are reported in the order they were
// first recorded.
func (t *Timings) Record(env *http.Envelope) {
	t.mu.Lock()
	defer t.mu.Unlock()

	et, ok := t.byEnv[env.EnvironmentID]
	if !ok {
		et = &envTimings{histogram: hdrhistogram.New(minLatencyUs, maxLatencyUs, sigFigs)}
		t.byEnv[env.EnvironmentID] = et
		t.order = append(t.order, env.EnvironmentID)
	}

	if env.IsFailure() {
		et.failures++
		return
	}
	et.samples++

	latencyUs := env.Time.Microseconds()
	if latencyUs < minLatencyUs {
		latencyUs = minLatencyUs
	}
	if latencyUs > maxLatencyUs {
		latencyUs = maxLatencyUs
	}
	_ = et.histogram.RecordValue(latencyUs)
}

// Stats returns the summary for every recorded environment.
func (t *Timings) Stats() []LatencyStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]LatencyStats, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.byEnv[id].stats(id))
	}
	return out
}

// For returns the summary for one environment.
func (t *Timings) For(environmentID string) (LatencyStats, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	et, ok := t.byEnv[environmentID]
	if !ok {
		return LatencyStats{}, false
	}
	return et.stats(environmentID), true
}

func (et *envTimings) stats(id string) LatencyStats {
	s := LatencyStats{EnvironmentID: id, Samples: et.samples, Failures: et.failures}
	if et.samples == 0 {
		return s
	}
	h := et.histogram
	s.Min = us(h.Min())
	s.Max = us(h.Max())
	s.Mean = time.Duration(h.Mean() * float64(time.Microsecond))
	s.P50 = us(h.ValueAtQuantile(50))
	s.P95 = us(h.ValueAtQuantile(95))
	s.P99 = us(h.ValueAtQuantile(99))
	return s
}

func us(v int64) time.Duration {
	return time.Duration(v) * time.Microsecond
}

// Repeat dispatches reqs for the given number of rounds, one round after
// the other, and returns the last round's envelopes with the latency
// summary of all rounds. It stops early when ctx is done.
func (d *Dispatcher) Repeat(ctx context.Context, reqs []*http.ResolvedRequest, rounds int) (map[string]*http.Envelope, *Timings) {
	if rounds < 1 {
		rounds = 1
	}
	timings := NewTimings()

	var last map[string]*http.Envelope
	for round := 1; round <= rounds; round++ {
		if round > 1 && ctx.Err() != nil {
			break
		}
		d.logger.Debug("dispatch round", "round", round, "rounds", rounds)
		last = d.Dispatch(ctx, reqs)
		for _, req := range reqs {
			if env, ok := last[req.EnvironmentID]; ok {
				timings.Record(env)
			}
		}
	}
	return last, timings
}
