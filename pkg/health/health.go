package health

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"easymo/internal/constants"
	"easymo/pkg/metrics"
)

type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusCritical Status = "critical"
)

type ProbeStatus string

const (
	ProbeOK   ProbeStatus = "ok"
	ProbeFail ProbeStatus = "fail"
)

// Checker proves liveness of one dependency with the cheapest call that
// round-trips it. Implementations bound their own call with a timeout and
// must not leak transient connections on any exit path.
type Checker interface {
	Check(ctx context.Context) error
	Name() string
}

// StatusError carries a downstream HTTP status alongside the failure so the
// probe result can preserve it.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("unexpected status %d", e.Code)
}

type ProbeResult struct {
	Status     ProbeStatus `json:"status"`
	LatencyMs  int64       `json:"latency_ms"`
	Error      string      `json:"error,omitempty"`
	StatusCode int         `json:"status_code,omitempty"`
}

type WorkerReport struct {
	Running bool        `json:"running"`
	Metrics interface{} `json:"metrics"`
}

type Report struct {
	Status        Status                 `json:"status"`
	Timestamp     time.Time              `json:"timestamp"`
	UptimeSeconds int64                  `json:"uptime_seconds"`
	Checks        map[string]ProbeResult `json:"checks"`
	Worker        WorkerReport           `json:"worker"`
}

// Aggregator fans all registered checkers out concurrently and folds their
// results into one report. Report never fails outward: a panicking checker
// is downgraded to a failed probe.
type Aggregator struct {
	checkers  []Checker
	workerFn  func() WorkerReport
	startedAt time.Time
}

func NewAggregator() *Aggregator {
	return &Aggregator{startedAt: time.Now()}
}

func (a *Aggregator) Register(checker Checker) {
	a.checkers = append(a.checkers, checker)
}

// WithWorker wires the worker runtime's liveness and metrics snapshot into
// every report.
func (a *Aggregator) WithWorker(fn func() WorkerReport) {
	a.workerFn = fn
}

func (a *Aggregator) Report(ctx context.Context) Report {
	results := make([]ProbeResult, len(a.checkers))

	// One goroutine per probe; aggregate latency is bounded by the slowest
	// single probe, not their sum. A failing probe never cancels siblings.
	var g errgroup.Group
	for i, checker := range a.checkers {
		g.Go(func() error {
			results[i] = a.runProbe(ctx, checker)
			return nil
		})
	}
	_ = g.Wait()

	checks := make(map[string]ProbeResult, len(a.checkers))
	failed := 0
	for i, checker := range a.checkers {
		checks[checker.Name()] = results[i]
		if results[i].Status == ProbeFail {
			failed++
		}
	}

	status := StatusOK
	switch {
	case len(a.checkers) > 0 && failed == len(a.checkers):
		status = StatusCritical
	case failed > 0:
		status = StatusDegraded
	}

	report := Report{
		Status:        status,
		Timestamp:     time.Now(),
		UptimeSeconds: int64(time.Since(a.startedAt).Seconds()),
		Checks:        checks,
	}
	if a.workerFn != nil {
		report.Worker = a.workerFn()
	}
	return report
}

func (a *Aggregator) runProbe(ctx context.Context, checker Checker) ProbeResult {
	start := time.Now()
	err := safeCheck(ctx, checker)
	latency := time.Since(start)

	result := ProbeResult{
		Status:    ProbeOK,
		LatencyMs: latency.Milliseconds(),
	}
	if err != nil {
		result.Status = ProbeFail
		result.Error = err.Error()
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			result.StatusCode = statusErr.Code
		}
	}

	metrics.ProbeDuration.WithLabelValues(checker.Name(), string(result.Status)).
		Observe(float64(latency.Milliseconds()))
	return result
}

func safeCheck(ctx context.Context, checker Checker) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("probe panicked: %v", r)
		}
	}()
	return checker.Check(ctx)
}

// ExternalAPIChecker round-trips the external API's cheapest endpoint.
type ExternalAPIChecker struct {
	name    string
	url     string
	apiKey  string
	client  *http.Client
	timeout time.Duration
}

func NewExternalAPIChecker(name, url, apiKey string, timeout time.Duration) *ExternalAPIChecker {
	if timeout <= 0 {
		timeout = constants.DefaultProbeTimeout
	}
	return &ExternalAPIChecker{
		name:    name,
		url:     url,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

func (c *ExternalAPIChecker) Name() string {
	return c.name
}

func (c *ExternalAPIChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return fmt.Errorf("%s probe request failed: %w", c.name, err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s probe failed: %w", c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < constants.HTTPStatusOKMin || resp.StatusCode >= constants.HTTPStatusOKMax {
		return &StatusError{
			Code:    resp.StatusCode,
			Message: fmt.Sprintf("%s probe returned status %d", c.name, resp.StatusCode),
		}
	}
	return nil
}

type RedisChecker struct {
	client  *redis.Client
	timeout time.Duration
}

func NewRedisChecker(client *redis.Client, timeout time.Duration) *RedisChecker {
	if timeout <= 0 {
		timeout = constants.DefaultProbeTimeout
	}
	return &RedisChecker{client: client, timeout: timeout}
}

func (c *RedisChecker) Name() string {
	return "cache"
}

func (c *RedisChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

type PostgresChecker struct {
	db      *sql.DB
	timeout time.Duration
}

func NewPostgresChecker(db *sql.DB, timeout time.Duration) *PostgresChecker {
	if timeout <= 0 {
		timeout = constants.DefaultProbeTimeout
	}
	return &PostgresChecker{db: db, timeout: timeout}
}

func (c *PostgresChecker) Name() string {
	return "database"
}

func (c *PostgresChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var one int
	if err := c.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("postgres existence check failed: %w", err)
	}
	return nil
}
