package internaldefs

import (
	goAuthClient "github.com/MrEthical07/goAuthClient"
)

// CounterDef names one engine counter for export.
type CounterDef struct {
	ID   goAuthClient.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for export.
type HistogramDef struct {
	ID   goAuthClient.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in render order.
var CounterDefs = []CounterDef{
	{ID: goAuthClient.MetricOTPRequested, Name: "goauthclient_otp_requested_total", Help: "OTP requests accepted by the server."},
	{ID: goAuthClient.MetricOTPRateLimited, Name: "goauthclient_otp_rate_limited_total", Help: "OTP requests refused by the local throttle."},
	{ID: goAuthClient.MetricLoginAccepted, Name: "goauthclient_login_accepted_total", Help: "Password steps accepted by the server."},
	{ID: goAuthClient.MetricSignupSuccess, Name: "goauthclient_signup_success_total", Help: "Completed signups."},
	{ID: goAuthClient.MetricMFASuccess, Name: "goauthclient_mfa_success_total", Help: "Completed OTP logins."},
	{ID: goAuthClient.MetricMFAAttemptsExceeded, Name: "goauthclient_mfa_attempts_exceeded_total", Help: "Pending challenges dropped after too many rejected codes."},
	{ID: goAuthClient.MetricTransportFailure, Name: "goauthclient_transport_failure_total", Help: "Calls that failed before a valid envelope arrived."},
	{ID: goAuthClient.MetricServerRejected, Name: "goauthclient_server_rejected_total", Help: "Envelopes reporting success=false."},
	{ID: goAuthClient.MetricMappingFailure, Name: "goauthclient_mapping_failure_total", Help: "User payloads that could not be mapped."},
	{ID: goAuthClient.MetricPersistFailure, Name: "goauthclient_persist_failure_total", Help: "Local writes that failed after a successful exchange."},
	{ID: goAuthClient.MetricUserSaved, Name: "goauthclient_user_saved_total", Help: "Users saved outside an exchange."},
	{ID: goAuthClient.MetricLogout, Name: "goauthclient_logout_total", Help: "Logout operations."},
	{ID: goAuthClient.MetricClearAll, Name: "goauthclient_clear_all_total", Help: "Full local resets."},
	{ID: goAuthClient.MetricOnboardingCompleted, Name: "goauthclient_onboarding_completed_total", Help: "Explicit onboarding completions."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goAuthClient.MetricExchangeLatency, Name: "goauthclient_exchange_latency_seconds", Help: "Auth exchange latency from request to last local write."},
}

// HistogramBounds are the upper bounds, in seconds, of the 8 engine buckets.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// NormalizeBuckets copies raw into a fixed 8-bucket array, padding with zeros.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
