package supervisor

import (
	"errors"
	"fmt"
	"time"

	"servd/internal/backend"
)

// LaunchError signals that the worker process could not be spawned at all.
// No worker exists after a LaunchError, so there is nothing to clean up.
type LaunchError struct {
	Kind backend.Kind
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to start %s worker: %v", e.Kind, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// IsLaunchError reports whether err is a LaunchError.
func IsLaunchError(err error) bool {
	var le *LaunchError
	return errors.As(err, &le)
}

// StartupError reports a worker that spawned but failed its own
// initialization before its API became reachable. It carries the exit
// status and a stderr tail so the failure is reconstructable after the
// worker process is gone.
type StartupError struct {
	Kind     backend.Kind
	ExitCode int
	Stderr   string
	Err      error
}

func (e *StartupError) Error() string {
	msg := fmt.Sprintf("%s worker exited before becoming ready (exit code %d)", e.Kind, e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *StartupError) Unwrap() error { return e.Err }

// IsStartupError reports whether err is a StartupError.
func IsStartupError(err error) bool {
	var se *StartupError
	return errors.As(err, &se)
}

// ProbeTimeoutError signals that the worker neither answered a readiness
// probe nor reported a startup failure within the attempt budget.
type ProbeTimeoutError struct {
	Kind     backend.Kind
	APIBase  string
	Attempts int
	Interval time.Duration
}

func (e *ProbeTimeoutError) Error() string {
	return fmt.Sprintf("%s worker at %s did not become ready within %d attempts (%s)",
		e.Kind, e.APIBase, e.Attempts, time.Duration(e.Attempts)*e.Interval)
}

// IsProbeTimeout reports whether err is a ProbeTimeoutError.
func IsProbeTimeout(err error) bool {
	var pe *ProbeTimeoutError
	return errors.As(err, &pe)
}
