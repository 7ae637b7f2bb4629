package probe

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"servd/internal/oai"
)

// Result reports how a probe loop ended.
type Result int

const (
	// ResultTimedOut means the attempt budget was exhausted or the worker
	// died before its API answered.
	ResultTimedOut Result = iota
	// ResultReady means the worker's API answered a model-listing call.
	ResultReady
)

// Prober polls a worker's OpenAI-compatible API until it answers or a
// bounded attempt budget runs out. The loop runs in the caller's goroutine;
// the only cooperation required from the worker is serving HTTP.
type Prober struct {
	Client   *oai.Client
	Attempts int
	Interval time.Duration
	Log      zerolog.Logger

	// Sleep is replaceable in tests to avoid real waiting. Defaults to
	// time.Sleep.
	Sleep func(time.Duration)
}

// New constructs a Prober with the given budget.
func New(client *oai.Client, attempts int, interval time.Duration, log zerolog.Logger) *Prober {
	return &Prober{
		Client:   client,
		Attempts: attempts,
		Interval: interval,
		Log:      log,
		Sleep:    time.Sleep,
	}
}

// Wait polls the model-listing endpoint until it answers, alive reports
// false, or the attempt budget is exhausted. Connection-level failures are
// swallowed and retried after Interval; any other failure propagates
// immediately. The total wall-clock time is bounded by Attempts*Interval
// plus per-request timeouts regardless of worker state.
func (p *Prober) Wait(ctx context.Context, alive func() bool) (Result, error) {
	for attempt := 0; attempt < p.Attempts; attempt++ {
		if !alive() {
			p.Log.Debug().Int("attempt", attempt).Msg("worker died before answering probe")
			return ResultTimedOut, nil
		}
		p.Sleep(p.Interval)
		if err := ctx.Err(); err != nil {
			return ResultTimedOut, err
		}

		probeAttemptsTotal.Inc()
		start := time.Now()
		_, err := p.Client.ListModels(ctx)
		probeDuration.Observe(time.Since(start).Seconds())
		if err == nil {
			p.Log.Debug().Int("attempt", attempt+1).Msg("worker API answered")
			return ResultReady, nil
		}
		if oai.IsConnectionError(err) {
			continue
		}
		return ResultTimedOut, err
	}
	p.Log.Error().Int("attempts", p.Attempts).Msg("failed to reach the API server")
	return ResultTimedOut, nil
}
