package supervisor

import (
	"context"
	"fmt"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"servd/internal/backend"
	"servd/internal/oai"
	"servd/internal/probe"
	"servd/pkg/types"
)

// State is the supervisor lifecycle state.
type State string

const (
	StateCreated   State = "created"
	StateLaunching State = "launching"
	StateReady     State = "ready"
	StateFailed    State = "failed"
	StateShutdown  State = "shutdown"
)

// defaultShutdownGrace bounds how long Shutdown waits for the worker to
// exit after SIGTERM before force-killing it.
const defaultShutdownGrace = 30 * time.Second

// Supervisor owns the lifecycle of a single serving worker: Run launches
// the selected backend and health-checks it, Shutdown terminates and reaps
// it. Backend selection (backend.Determine/Validate) happens before
// construction.
type Supervisor struct {
	mu      sync.Mutex
	cfg     Config
	kind    backend.Kind
	log     zerolog.Logger
	state   State
	handle  *Handle
	lastErr string

	grace time.Duration

	// seams for tests
	launch     func() (*Handle, error)
	budget     func() (int, time.Duration)
	probeSleep func(time.Duration)
}

// New builds a Supervisor for the given backend kind.
func New(cfg Config, kind backend.Kind, log zerolog.Logger) *Supervisor {
	cfg = cfg.withDefaults()
	s := &Supervisor{
		cfg:   cfg,
		kind:  kind,
		log:   log,
		state: StateCreated,
		grace: defaultShutdownGrace,
	}
	switch kind {
	case backend.KindVLLM:
		l := vllmLauncher{cfg: cfg, log: log}
		s.launch, s.budget = l.launch, l.probeBudget
	default:
		l := llamaLauncher{cfg: cfg, log: log}
		s.launch, s.budget = l.launch, l.probeBudget
	}
	return s
}

// Run launches the worker and blocks until its API answers a probe or the
// launch protocol fails. On any failure the worker is already terminated
// (or known dead) before the error is returned. Run is not reentrant: a
// Supervisor serves one launch, then only Shutdown.
func (s *Supervisor) Run(ctx context.Context, tls oai.TLSOptions) error {
	s.mu.Lock()
	if s.state != StateCreated {
		st := s.state
		s.mu.Unlock()
		return fmt.Errorf("supervisor: Run called in state %s", st)
	}
	s.state = StateLaunching
	s.mu.Unlock()

	// Client construction can fail on bad TLS material; do it before any
	// process exists so the failure needs no cleanup.
	client, err := oai.New(s.cfg.APIBase(), tls)
	if err != nil {
		s.fail(err)
		return err
	}

	s.log.Debug().Str("backend", string(s.kind)).Str("api_base", s.cfg.APIBase()).
		Msg("starting worker")
	h, err := s.launch()
	if err != nil {
		// Nothing was spawned; no cleanup required.
		s.fail(err)
		return err
	}
	s.mu.Lock()
	s.handle = h
	s.mu.Unlock()

	attempts, interval := s.budget()
	p := probe.New(client, attempts, interval, s.log)
	if s.probeSleep != nil {
		p.Sleep = s.probeSleep
	}
	res, probeErr := p.Wait(ctx, h.Alive)

	// A startup failure reported by the worker is more specific than any
	// probe outcome and takes precedence.
	if se := h.StartupFailure(); se != nil {
		s.teardown(h)
		startupFailuresTotal.WithLabelValues(string(s.kind)).Inc()
		s.fail(se)
		return se
	}
	if probeErr != nil {
		s.teardown(h)
		s.fail(probeErr)
		return probeErr
	}
	if res != probe.ResultReady {
		s.teardown(h)
		pte := &ProbeTimeoutError{
			Kind:     s.kind,
			APIBase:  s.cfg.APIBase(),
			Attempts: attempts,
			Interval: interval,
		}
		s.fail(pte)
		return pte
	}

	h.markReady()
	s.mu.Lock()
	if s.state == StateShutdown {
		// Shutdown raced with the launch and won. It may have run before the
		// handle was stored and torn down nothing, so the worker must be
		// terminated here before reporting; teardown is a no-op if Shutdown
		// already reaped it.
		s.mu.Unlock()
		s.teardown(h)
		return fmt.Errorf("supervisor: shut down while launching")
	}
	s.state = StateReady
	s.mu.Unlock()
	workerUp.Set(1)
	s.log.Info().Str("backend", string(s.kind)).Str("model", s.cfg.ModelPath).
		Str("api_base", s.cfg.APIBase()).Msg("worker ready")
	return nil
}

// Shutdown terminates the worker and reaps it. It is idempotent and safe
// to call from any state, including when no worker was ever launched, and
// never fails for a worker that is already dead.
func (s *Supervisor) Shutdown() {
	s.mu.Lock()
	if s.state == StateShutdown {
		s.mu.Unlock()
		return
	}
	s.state = StateShutdown
	h := s.handle
	s.mu.Unlock()

	s.teardown(h)
	workerUp.Set(0)
	s.log.Debug().Msg("supervisor shut down")
}

// teardown terminates the worker gracefully, waiting up to the grace
// period before force-killing. Reaping is complete when it returns.
func (s *Supervisor) teardown(h *Handle) {
	if h == nil || !h.Alive() {
		return
	}
	s.log.Debug().Int("pid", h.PID).Msg("terminating worker")
	_ = h.cmd.Process.Signal(syscall.SIGTERM)
	if !h.waitDone(s.grace) {
		s.log.Warn().Int("pid", h.PID).Dur("grace", s.grace).
			Msg("worker did not exit in time, killing")
		_ = h.cmd.Process.Kill()
		<-h.done
	}
}

func (s *Supervisor) fail(err error) {
	s.mu.Lock()
	if s.state != StateShutdown {
		s.state = StateFailed
	}
	s.lastErr = err.Error()
	s.mu.Unlock()
	workerUp.Set(0)
}

// Ready reports whether the worker has demonstrably answered a probe and
// is still alive.
func (s *Supervisor) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateReady && s.handle != nil && s.handle.Alive()
}

// Snapshot returns a read-only projection of the supervisor state.
func (s *Supervisor) Snapshot() types.StatusResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := types.StatusResponse{
		State:     string(s.state),
		Backend:   string(s.kind),
		ModelPath: s.cfg.ModelPath,
		APIBase:   s.cfg.APIBase(),
		Err:       s.lastErr,
	}
	if s.handle != nil {
		st.PID = s.handle.PID
		st.RunID = s.handle.ID
	}
	return st
}
