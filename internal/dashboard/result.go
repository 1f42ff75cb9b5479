package dashboard

import (
	"fmt"
	"time"
)

// Reason classifies how an invocation ended.
type Reason string

const (
	ReasonNone         Reason = "none"
	ReasonPrecondition Reason = "precondition"
	ReasonLaunch       Reason = "launch"
	ReasonExit         Reason = "exit"
	ReasonTimeout      Reason = "timeout"
	ReasonCanceled     Reason = "canceled"
)

// Result is the outcome of one invocation. Callers check OK before moving on.
type Result struct {
	Invocation Invocation
	ExitCode   int
	Duration   time.Duration
	Reason     Reason
	Err        error
}

// OK reports whether the tool ran and exited cleanly.
func (r Result) OK() bool {
	return r.Reason == ReasonNone && r.Err == nil
}

// AsError converts a failed result into an *InvocationError, or nil on success.
func (r Result) AsError() error {
	if r.OK() {
		return nil
	}
	reason := r.Reason
	if reason == ReasonNone {
		reason = ReasonExit
	}
	return &InvocationError{
		Module:   r.Invocation.Module,
		Reason:   reason,
		ExitCode: r.ExitCode,
		Err:      r.Err,
	}
}

// InvocationError describes why a dashboard run for a module failed.
type InvocationError struct {
	Module   string
	Reason   Reason
	ExitCode int
	Err      error
}

func (e *InvocationError) Error() string {
	switch e.Reason {
	case ReasonExit:
		return fmt.Sprintf("soyc dashboard for module %s exited with code %d: %v", e.Module, e.ExitCode, e.Err)
	case ReasonLaunch:
		return fmt.Sprintf("soyc dashboard for module %s could not be started: %v", e.Module, e.Err)
	default:
		return fmt.Sprintf("soyc dashboard for module %s failed (%s): %v", e.Module, e.Reason, e.Err)
	}
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}
