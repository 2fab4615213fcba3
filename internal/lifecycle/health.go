package lifecycle

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/smartbudget/smartbudget-server/internal/health"
)

// HealthChecker exposes liveness and readiness probes.
type HealthChecker interface {
	Liveness(ctx context.Context) error
	Readiness(ctx context.Context) error
}

// Probes implements HealthChecker over the aggregated component checker.
type Probes struct {
	checker *health.Checker
	log     *slog.Logger
}

// NewProbes creates a new Probes instance. A nil checker makes readiness
// unconditionally healthy.
func NewProbes(checker *health.Checker, log *slog.Logger) *Probes {
	if log == nil {
		log = slog.Default()
	}
	return &Probes{checker: checker, log: log}
}

// Liveness reports success as long as the process is responsive.
func (p *Probes) Liveness(ctx context.Context) error {
	p.log.Debug("liveness probe called")
	return nil
}

// Readiness fails when any registered component check fails.
func (p *Probes) Readiness(ctx context.Context) error {
	if p.checker == nil {
		return nil
	}

	for name, status := range p.checker.Check(ctx) {
		if status != "OK" {
			return fmt.Errorf("component %s unhealthy: %s", name, status)
		}
	}

	return nil
}
