package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	name  string
	err   error
	delay time.Duration
	panic bool
}

func (s *stubChecker) Name() string { return s.name }

func (s *stubChecker) Check(ctx context.Context) error {
	if s.panic {
		panic("checker exploded")
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.err
}

func TestReportStatusFolding(t *testing.T) {
	probeErr := errors.New("connection refused")

	tests := []struct {
		name     string
		checkers []Checker
		want     Status
	}{
		{
			name: "all probes pass",
			checkers: []Checker{
				&stubChecker{name: "external_api"},
				&stubChecker{name: "cache"},
				&stubChecker{name: "database"},
			},
			want: StatusOK,
		},
		{
			name: "one probe fails",
			checkers: []Checker{
				&stubChecker{name: "external_api"},
				&stubChecker{name: "cache", err: probeErr},
				&stubChecker{name: "database"},
			},
			want: StatusDegraded,
		},
		{
			name: "two probes fail",
			checkers: []Checker{
				&stubChecker{name: "external_api", err: probeErr},
				&stubChecker{name: "cache", err: probeErr},
				&stubChecker{name: "database"},
			},
			want: StatusDegraded,
		},
		{
			name: "all probes fail",
			checkers: []Checker{
				&stubChecker{name: "external_api", err: probeErr},
				&stubChecker{name: "cache", err: probeErr},
				&stubChecker{name: "database", err: probeErr},
			},
			want: StatusCritical,
		},
		{
			name:     "no probes registered",
			checkers: nil,
			want:     StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAggregator()
			for _, c := range tt.checkers {
				a.Register(c)
			}

			report := a.Report(context.Background())
			assert.Equal(t, tt.want, report.Status)
			assert.Len(t, report.Checks, len(tt.checkers))
		})
	}
}

func TestReportProbeResults(t *testing.T) {
	a := NewAggregator()
	a.Register(&stubChecker{name: "cache"})
	a.Register(&stubChecker{name: "database", err: errors.New("dial tcp: refused")})

	report := a.Report(context.Background())

	require.Contains(t, report.Checks, "cache")
	require.Contains(t, report.Checks, "database")

	assert.Equal(t, ProbeOK, report.Checks["cache"].Status)
	assert.Empty(t, report.Checks["cache"].Error)

	assert.Equal(t, ProbeFail, report.Checks["database"].Status)
	assert.Contains(t, report.Checks["database"].Error, "refused")
}

func TestReportPanickingProbe(t *testing.T) {
	a := NewAggregator()
	a.Register(&stubChecker{name: "cache", panic: true})
	a.Register(&stubChecker{name: "database"})

	report := a.Report(context.Background())

	assert.Equal(t, StatusDegraded, report.Status)
	assert.Equal(t, ProbeFail, report.Checks["cache"].Status)
	assert.Contains(t, report.Checks["cache"].Error, "probe panicked")
	assert.Equal(t, ProbeOK, report.Checks["database"].Status)
}

func TestReportProbesRunConcurrently(t *testing.T) {
	a := NewAggregator()
	a.Register(&stubChecker{name: "a", delay: 100 * time.Millisecond})
	a.Register(&stubChecker{name: "b", delay: 100 * time.Millisecond})
	a.Register(&stubChecker{name: "c", delay: 100 * time.Millisecond})

	start := time.Now()
	report := a.Report(context.Background())
	elapsed := time.Since(start)

	assert.Equal(t, StatusOK, report.Status)
	assert.Less(t, elapsed, 250*time.Millisecond, "probes should not run sequentially")
	assert.GreaterOrEqual(t, report.Checks["a"].LatencyMs, int64(100))
}

func TestReportWorkerSnapshot(t *testing.T) {
	a := NewAggregator()
	a.WithWorker(func() WorkerReport {
		return WorkerReport{Running: true, Metrics: map[string]int64{"processed": 7}}
	})

	report := a.Report(context.Background())
	assert.True(t, report.Worker.Running)
	assert.Equal(t, map[string]int64{"processed": 7}, report.Worker.Metrics)
}

func TestExternalAPIChecker(t *testing.T) {
	t.Run("healthy endpoint", func(t *testing.T) {
		var gotAuth string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		c := NewExternalAPIChecker("external_api", server.URL, "secret-key", time.Second)
		assert.NoError(t, c.Check(context.Background()))
		assert.Equal(t, "Bearer secret-key", gotAuth)
	})

	t.Run("non-2xx preserves status code", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		c := NewExternalAPIChecker("external_api", server.URL, "", time.Second)
		err := c.Check(context.Background())
		require.Error(t, err)

		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
	})

	t.Run("status code surfaces in probe result", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		a := NewAggregator()
		a.Register(NewExternalAPIChecker("external_api", server.URL, "", time.Second))

		report := a.Report(context.Background())
		assert.Equal(t, StatusCritical, report.Status)
		assert.Equal(t, http.StatusBadGateway, report.Checks["external_api"].StatusCode)
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		c := NewExternalAPIChecker("external_api", url, "", time.Second)
		assert.Error(t, c.Check(context.Background()))
	})
}
