package lifecycle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartbudget/smartbudget-server/internal/health"
)

type fakeComponent struct {
	err error
}

func (f fakeComponent) HealthCheck(context.Context) error { return f.err }

func probeLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLivenessAlwaysPasses(t *testing.T) {
	probes := NewProbes(nil, probeLogger())

	assert.NoError(t, probes.Liveness(context.Background()))
}

func TestReadinessWithNilCheckerPasses(t *testing.T) {
	probes := NewProbes(nil, probeLogger())

	assert.NoError(t, probes.Readiness(context.Background()))
}

func TestReadinessReportsUnhealthyComponent(t *testing.T) {
	log := probeLogger()
	checker := health.NewChecker(log)
	checker.AddCheck("database", fakeComponent{})
	checker.AddCheck("redis", fakeComponent{err: errors.New("connection refused")})

	probes := NewProbes(checker, log)

	err := probes.Readiness(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestReadinessPassesWhenAllHealthy(t *testing.T) {
	log := probeLogger()
	checker := health.NewChecker(log)
	checker.AddCheck("database", fakeComponent{})

	probes := NewProbes(checker, log)

	assert.NoError(t, probes.Readiness(context.Background()))
}
