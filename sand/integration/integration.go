// Package integration notifies a host environment that a SANd connection is
// active. Integration is best-effort: a failure here never affects channel
// state or security.
package integration

import (
	"context"
	"errors"
	"fmt"
)

// Integrator is the external hook a connection may trigger.
type Integrator interface {
	Integrate(ctx context.Context) error
}

// IntegratorFunc adapts a function to Integrator.
type IntegratorFunc func(ctx context.Context) error

func (f IntegratorFunc) Integrate(ctx context.Context) error { return f(ctx) }

// Noop is a placeholder integrator that always succeeds.
var Noop Integrator = IntegratorFunc(func(context.Context) error { return nil })

// ErrIntegration is matched by every *IntegrationError via errors.Is.
var ErrIntegration = errors.New("integration: failed")

// IntegrationError reports an external command that did not exit cleanly.
// ExitCode is -1 when the command could not be started or was killed.
type IntegrationError struct {
	Command  string
	ExitCode int
	Err      error
}

func (e *IntegrationError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("integration: %q exited with status %d", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("integration: %q failed: %v", e.Command, e.Err)
}

func (e *IntegrationError) Unwrap() error { return e.Err }

func (e *IntegrationError) Is(target error) bool { return target == ErrIntegration }
