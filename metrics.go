package goAuthClient

import (
	"time"

	internalmetrics "github.com/MrEthical07/goAuthClient/internal/metrics"
)

// MetricID identifies a specific counter or histogram in the in-process
// metrics system.
type MetricID = internalmetrics.MetricID

const (
	// MetricOTPRequested counts OTP requests accepted by the server.
	MetricOTPRequested = internalmetrics.MetricOTPRequested
	// MetricOTPRateLimited counts OTP requests refused by the local throttle.
	MetricOTPRateLimited = internalmetrics.MetricOTPRateLimited
	// MetricLoginAccepted counts password logins accepted by the server.
	MetricLoginAccepted = internalmetrics.MetricLoginAccepted
	// MetricSignupSuccess counts completed signups of either account type.
	MetricSignupSuccess = internalmetrics.MetricSignupSuccess
	// MetricMFASuccess counts verified login OTPs.
	MetricMFASuccess = internalmetrics.MetricMFASuccess
	// MetricMFAAttemptsExceeded counts pending challenges dropped after too
	// many rejected codes.
	MetricMFAAttemptsExceeded = internalmetrics.MetricMFAAttemptsExceeded
	// MetricTransportFailure counts network and decode failures.
	MetricTransportFailure = internalmetrics.MetricTransportFailure
	// MetricServerRejected counts envelopes with success=false.
	MetricServerRejected = internalmetrics.MetricServerRejected
	// MetricMappingFailure counts payloads that could not be mapped.
	MetricMappingFailure = internalmetrics.MetricMappingFailure
	// MetricPersistFailure counts local store failures after a successful call.
	MetricPersistFailure = internalmetrics.MetricPersistFailure
	// MetricUserSaved counts direct SaveAuthenticatedUser calls.
	MetricUserSaved = internalmetrics.MetricUserSaved
	// MetricLogout counts logouts.
	MetricLogout = internalmetrics.MetricLogout
	// MetricClearAll counts full local resets.
	MetricClearAll = internalmetrics.MetricClearAll
	// MetricOnboardingCompleted counts explicit onboarding completions.
	MetricOnboardingCompleted = internalmetrics.MetricOnboardingCompleted
	// MetricExchangeLatency is the auth exchange latency histogram.
	MetricExchangeLatency = internalmetrics.MetricExchangeLatency

	metricIDCount = internalmetrics.MetricIDCount
)

// Metrics holds atomic counters and the optional latency histogram.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a Metrics instance. When cfg.Enabled is false all
// operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:       cfg.Enabled,
		EnableLatency: cfg.EnableLatencyHistograms,
	})
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricObserve(id MetricID, d time.Duration) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Observe(id, d)
}
