package webhook

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"easymo/internal/constants"
	"easymo/internal/logger"
	"easymo/internal/routing"
	apperrors "easymo/pkg/errors"
	"easymo/pkg/logging"
	"easymo/pkg/metrics"
	"easymo/pkg/models"
	"easymo/pkg/ratelimit"
)

type Handler struct {
	verifyToken string
	verifier    *Verifier
	normalizer  *Normalizer
	router      *routing.Router
	forwarder   *routing.Forwarder
	limiter     *ratelimit.Store
	limitCfg    ratelimit.Config
	logger      logger.Logger
}

func NewHandler(
	verifyToken string,
	verifier *Verifier,
	normalizer *Normalizer,
	router *routing.Router,
	forwarder *routing.Forwarder,
	limiter *ratelimit.Store,
	limitCfg ratelimit.Config,
	log logger.Logger,
) *Handler {
	return &Handler{
		verifyToken: verifyToken,
		verifier:    verifier,
		normalizer:  normalizer,
		router:      router,
		forwarder:   forwarder,
		limiter:     limiter,
		limitCfg:    limitCfg,
		logger:      log,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine, limitMiddleware gin.HandlerFunc) {
	router.GET("/webhook", h.HandleVerification)
	if limitMiddleware != nil {
		router.POST("/webhook", limitMiddleware, h.HandleDelivery)
	} else {
		router.POST("/webhook", h.HandleDelivery)
	}
}

// HandleVerification answers the provider's one-time subscription
// handshake: echo the challenge verbatim when the verify token matches,
// 403 otherwise.
func (h *Handler) HandleVerification(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == constants.HubModeSubscribe && token == h.verifyToken {
		c.String(http.StatusOK, "%s", challenge)
		return
	}

	h.logger.WarnwCtx(c.Request.Context(), "Webhook verification rejected",
		"mode", mode,
	)
	c.JSON(http.StatusForbidden, apperrors.ToErrorResponse(apperrors.ErrVerifyTokenMismatch))
}

// HandleDelivery processes one signed webhook delivery. After the
// signature checks out, the provider always gets a 200: normalization
// skips, routing misses, and forwarding failures are logged and counted,
// never propagated into the response code.
func (h *Handler) HandleDelivery(c *gin.Context) {
	start := time.Now()
	ctx := c.Request.Context()
	if requestID, ok := c.Get("request_id"); ok {
		if id, isString := requestID.(string); isString {
			ctx = logging.WithRequestID(ctx, id)
		}
	}

	body, err := c.GetRawData()
	if err != nil {
		metrics.WebhookDeliveriesTotal.WithLabelValues("read_error").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	// Verification runs over the exact raw bytes, before any parsing.
	if err := h.verifier.Verify(c.GetHeader(constants.SignatureHeader), body); err != nil {
		status := apperrors.ToHTTPStatus(err)
		if status >= http.StatusInternalServerError {
			h.logger.ErrorwCtx(ctx, "Webhook signature check misconfigured", "error", err)
		} else {
			h.logger.WarnwCtx(ctx, "Webhook signature rejected", "error", err)
		}
		metrics.WebhookDeliveriesTotal.WithLabelValues("rejected").Inc()
		c.JSON(status, apperrors.ToErrorResponse(err))
		return
	}

	messages, err := h.normalizer.NormalizeRaw(ctx, body)
	if err != nil {
		// A body that signed correctly but does not parse is still acked;
		// the provider retries deliveries that are not 200-acknowledged.
		h.logger.WarnwCtx(ctx, "Webhook payload did not parse", "error", err)
		metrics.WebhookDeliveriesTotal.WithLabelValues("unparseable").Inc()
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	for _, msg := range messages {
		h.processMessage(ctx, msg)
	}

	metrics.WebhookDeliveriesTotal.WithLabelValues("accepted").Inc()
	metrics.WebhookProcessingDuration.WithLabelValues("accepted").
		Observe(float64(time.Since(start).Milliseconds()))
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) processMessage(ctx context.Context, msg models.NormalizedMessage) {
	ctx = logging.WithMessageID(ctx, msg.MessageID)

	if h.limiter != nil {
		if h.limiter.Check("sender:"+msg.From, h.limitCfg.MaxRequests, h.limitCfg.Window) {
			metrics.RateLimitRequestsTotal.WithLabelValues("limited").Inc()
			h.logger.WarnwCtx(ctx, "Sender rate limit exceeded, dropping message",
				"from", msg.From,
			)
			return
		}
	}

	decision, ok := h.router.Classify(msg)
	if !ok {
		metrics.MessagesRoutedTotal.WithLabelValues("none").Inc()
		h.logger.InfowCtx(ctx, "No destination matched, dropping message",
			"from", msg.From,
			"type", msg.Type,
			"keywords", h.router.Keywords(),
		)
		return
	}

	metrics.MessagesRoutedTotal.WithLabelValues(decision.DestinationKey).Inc()

	if err := h.forwarder.Forward(ctx, msg, decision); err != nil {
		h.logger.ErrorwCtx(ctx, "Downstream forwarding failed",
			"destination", decision.DestinationKey,
			"matched_keyword", decision.MatchedKeyword,
			"error", err,
		)
		return
	}

	h.logger.InfowCtx(ctx, "Message forwarded",
		"destination", decision.DestinationKey,
		"matched_keyword", decision.MatchedKeyword,
	)
}
