package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"easymo/internal/constants"
	apperrors "easymo/pkg/errors"
	"easymo/pkg/metrics"
	"easymo/pkg/models"
)

// Forwarder performs a single HTTP delivery of a normalized message to a
// resolved destination. It never retries: delivery retry belongs to a
// surrounding queue, not here.
type Forwarder struct {
	client *http.Client
}

func NewForwarder(timeout time.Duration) *Forwarder {
	if timeout <= 0 {
		timeout = constants.DefaultForwardTimeout
	}
	return &Forwarder{
		client: &http.Client{Timeout: timeout},
	}
}

// Forward posts the normalized message (not the raw provider payload) to
// the decision's URL. Non-2xx and timeouts come back as a FORWARDING error
// with the downstream status preserved when one exists; the webhook
// response to the provider is unaffected either way.
func (f *Forwarder) Forward(ctx context.Context, msg models.NormalizedMessage, decision RouteDecision) error {
	start := time.Now()
	err := f.deliver(ctx, msg, decision)
	elapsed := time.Since(start)

	status := "success"
	if err != nil {
		status = "failure"
	}
	metrics.ForwardAttemptsTotal.WithLabelValues(decision.DestinationKey, status).Inc()
	metrics.ForwardDuration.WithLabelValues(decision.DestinationKey).
		Observe(float64(elapsed.Milliseconds()))

	return err
}

func (f *Forwarder) deliver(ctx context.Context, msg models.NormalizedMessage, decision RouteDecision) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return apperrors.Wrap(fmt.Errorf("failed to marshal message: %w", err), apperrors.ErrForwarding)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, decision.DestinationURL, bytes.NewReader(body))
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrForwarding)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		// Timeout expiry is treated identically to a connection failure.
		return apperrors.Wrap(err, apperrors.ErrForwarding)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < constants.HTTPStatusOKMin || resp.StatusCode >= constants.HTTPStatusOKMax {
		return apperrors.ErrForwarding.
			WithDetail("status_code", resp.StatusCode).
			WithDetail("destination", decision.DestinationKey)
	}

	return nil
}
