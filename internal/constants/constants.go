package constants

import "time"

const (
	DefaultHTTPTimeout    = 10 * time.Second
	DefaultForwardTimeout = 8 * time.Second
	DefaultProbeTimeout   = 5 * time.Second
)

const (
	ShutdownTimeout  = 5 * time.Second
	WorkerDrainGrace = 10 * time.Second
)

const (
	SignatureHeader = "X-Hub-Signature-256"
	SignaturePrefix = "sha256="
)

const (
	HubModeSubscribe = "subscribe"
)

const (
	DefaultRateLimitMax    = 30
	DefaultRateLimitWindow = time.Minute
	RateLimitSweepInterval = 5 * time.Minute
)

const (
	DefaultOutboundQueue = "outbound_notifications"
)

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaWriteTimeout = 10 * time.Second
)

const (
	HTTPStatusOKMin = 200
	HTTPStatusOKMax = 300
)
