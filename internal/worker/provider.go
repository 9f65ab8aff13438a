package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"easymo/internal/config"
	"easymo/internal/constants"
	"easymo/pkg/circuitbreaker"
	"easymo/pkg/models"
)

const defaultAPIBaseURL = "https://graph.facebook.com/v19.0"

// Sender delivers one queued notification to the messaging provider.
type Sender interface {
	Send(ctx context.Context, n models.Notification) error
}

type sendRequest struct {
	MessagingProduct string      `json:"messaging_product"`
	RecipientType    string      `json:"recipient_type"`
	To               string      `json:"to"`
	Type             string      `json:"type"`
	Text             textContent `json:"text"`
}

type textContent struct {
	Body string `json:"body"`
}

// ProviderClient sends outbound messages through the WhatsApp Cloud API.
// Sends are paced with a token bucket and guarded by a circuit breaker so
// a failing provider trips fast instead of burning the send budget.
type ProviderClient struct {
	baseURL       string
	phoneNumberID string
	accessToken   string
	client        *http.Client
	limiter       *rate.Limiter
	breaker       *circuitbreaker.Wrapper
}

func NewProviderClient(cfg config.WorkerConfig, cbCfg config.CircuitBreakerConfig) *ProviderClient {
	baseURL := strings.TrimRight(cfg.APIBaseURL, "/")
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}

	sendRPS := cfg.SendRPS
	if sendRPS <= 0 {
		sendRPS = 10.0
	}
	sendBurst := cfg.SendBurst
	if sendBurst <= 0 {
		sendBurst = 20
	}

	var breaker *circuitbreaker.Wrapper
	if cbCfg.Enabled {
		breakerCfg := circuitbreaker.DefaultConfig("provider-send")
		if cbCfg.MaxRequests > 0 {
			breakerCfg.MaxRequests = cbCfg.MaxRequests
		}
		if cbCfg.Interval > 0 {
			breakerCfg.Interval = cbCfg.Interval
		}
		if cbCfg.Timeout > 0 {
			breakerCfg.Timeout = cbCfg.Timeout
		}
		breaker = circuitbreaker.NewWrapper(breakerCfg)
	}

	return &ProviderClient{
		baseURL:       baseURL,
		phoneNumberID: cfg.PhoneNumberID,
		accessToken:   cfg.AccessToken,
		client:        &http.Client{Timeout: constants.DefaultHTTPTimeout},
		limiter:       rate.NewLimiter(rate.Limit(sendRPS), sendBurst),
		breaker:       breaker,
	}
}

func (c *ProviderClient) Send(ctx context.Context, n models.Notification) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("send pacing interrupted: %w", err)
	}

	if c.breaker == nil {
		return c.doSend(ctx, n)
	}

	_, err := c.breaker.ExecuteWithContext(ctx, func() (interface{}, error) {
		return nil, c.doSend(ctx, n)
	})
	c.breaker.RecordRequest(err == nil)
	return err
}

func (c *ProviderClient) doSend(ctx context.Context, n models.Notification) error {
	payload := sendRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               n.To,
		Type:             "text",
		Text:             textContent{Body: n.Text},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal send request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("provider send failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < constants.HTTPStatusOKMin || resp.StatusCode >= constants.HTTPStatusOKMax {
		return fmt.Errorf("provider returned status %d", resp.StatusCode)
	}
	return nil
}
