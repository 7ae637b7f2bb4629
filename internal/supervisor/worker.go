package supervisor

import (
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"servd/internal/backend"
)

// stderrTailCap bounds how much trailing worker stderr is kept for
// diagnostics.
const stderrTailCap = 4096

// Handle represents a running worker. It is owned exclusively by the
// Supervisor; nothing else may signal the process or read the startup
// channel.
type Handle struct {
	ID   string
	Kind backend.Kind
	PID  int

	cmd   *exec.Cmd
	ready atomic.Bool

	// startupCh is the single-shot error channel: the monitor goroutine
	// sends at most one StartupError, then closes it.
	startupCh chan *StartupError
	// done is closed once the worker has been reaped.
	done chan struct{}
}

// Alive reports whether the worker process has not yet been reaped.
func (h *Handle) Alive() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// markReady records that the worker's API answered a probe. Exits after
// this point are operational failures, not startup failures, and are not
// enqueued on the startup channel.
func (h *Handle) markReady() { h.ready.Store(true) }

// StartupFailure drains the startup channel without blocking. It returns
// nil when the worker has not reported a failure (yet, or ever).
func (h *Handle) StartupFailure() *StartupError {
	select {
	case se := <-h.startupCh:
		return se // nil if the channel was closed without a send
	default:
		return nil
	}
}

// waitDone waits up to d for the worker to be reaped.
func (h *Handle) waitDone(d time.Duration) bool {
	select {
	case <-h.done:
		return true
	case <-time.After(d):
		return false
	}
}

// monitor reaps the worker and reports a startup failure if it exited
// before readiness. Runs in its own goroutine per worker.
func (h *Handle) monitor(tail *tailBuffer, log zerolog.Logger) {
	err := h.cmd.Wait()
	if !h.ready.Load() {
		h.startupCh <- &StartupError{
			Kind:     h.Kind,
			ExitCode: exitCode(err),
			Stderr:   tail.String(),
			Err:      err,
		}
	}
	close(h.startupCh)
	close(h.done)
	ev := log.Debug()
	if err != nil {
		ev = log.Warn().Err(err)
	}
	ev.Str("run_id", h.ID).Str("backend", string(h.Kind)).Int("pid", h.PID).Msg("worker exited")
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if ee, ok := err.(*exec.ExitError); ok {
		return ee.ExitCode()
	}
	return -1
}

// spawn starts a worker process for the given backend. It returns as soon
// as the process has been created; readiness is the prober's concern.
func spawn(kind backend.Kind, bin string, args []string, cfg Config, log zerolog.Logger) (*Handle, error) {
	cmd := exec.Command(bin, args...)
	tail := newTailBuffer(stderrTailCap)
	if cfg.Quiet {
		cmd.Stdout = io.Discard
		cmd.Stderr = tail
	} else {
		out := cfg.LogWriter
		if out == nil {
			out = os.Stderr
		}
		cmd.Stdout = out
		cmd.Stderr = io.MultiWriter(out, tail)
	}
	// Own process group: terminal SIGINT is delivered to the supervisor,
	// which owns worker teardown.
	setProcAttr(cmd)
	// Bound pipe draining after exit so an orphaned grandchild holding the
	// stderr pipe cannot stall reaping.
	cmd.WaitDelay = 5 * time.Second
	if err := cmd.Start(); err != nil {
		return nil, &LaunchError{Kind: kind, Err: err}
	}
	h := &Handle{
		ID:        uuid.NewString(),
		Kind:      kind,
		PID:       cmd.Process.Pid,
		cmd:       cmd,
		startupCh: make(chan *StartupError, 1),
		done:      make(chan struct{}),
	}
	launchesTotal.WithLabelValues(string(kind)).Inc()
	log.Info().Str("run_id", h.ID).Str("backend", string(kind)).Int("pid", h.PID).
		Strs("args", args).Msg("worker started")
	go h.monitor(tail, log)
	return h, nil
}

// tailBuffer keeps the trailing max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func newTailBuffer(max int) *tailBuffer { return &tailBuffer{max: max} }

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if len(t.buf) > t.max {
		t.buf = t.buf[len(t.buf)-t.max:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
