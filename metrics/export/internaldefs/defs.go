package internaldefs

import (
	goSeal "github.com/MrEthical07/goSeal"
)

// BucketCount is the number of latency buckets, including +Inf.
const BucketCount = 8

// AuditDroppedName is the counter for audit events lost to backpressure.
const (
	AuditDroppedName = "goseal_audit_dropped_total"
	AuditDroppedHelp = "Audit events dropped because the dispatcher buffer was full."
)

// Def names one exported series.
type Def struct {
	ID   goSeal.MetricID
	Name string
	Help string
}

// Counters lists every exported counter in exposition order.
var Counters = []Def{
	{goSeal.MetricRegisterSuccess, "goseal_register_success_total", "Principals registered."},
	{goSeal.MetricRegisterDuplicate, "goseal_register_duplicate_total", "Registrations rejected for a taken username."},
	{goSeal.MetricLoginSuccess, "goseal_login_success_total", "Successful logins."},
	{goSeal.MetricLoginFailure, "goseal_login_failure_total", "Logins rejected for bad credentials."},
	{goSeal.MetricLoginRateLimited, "goseal_login_rate_limited_total", "Logins refused by the failed-login throttle."},
	{goSeal.MetricPasswordUpgraded, "goseal_password_upgraded_total", "Password hashes re-derived with current parameters."},
	{goSeal.MetricTokenIssued, "goseal_token_issued_total", "Plain tokens issued."},
	{goSeal.MetricBoundTokenIssued, "goseal_bound_token_issued_total", "Content-bound tokens issued."},
	{goSeal.MetricBearerAccepted, "goseal_bearer_accepted_total", "Outer tokens that verified."},
	{goSeal.MetricBearerRejected, "goseal_bearer_rejected_total", "Outer tokens rejected."},
	{goSeal.MetricContentAccepted, "goseal_content_accepted_total", "Request payloads matching their signed content."},
	{goSeal.MetricContentMissingSignature, "goseal_content_missing_signature_total", "Mutations presented without a content envelope."},
	{goSeal.MetricContentInvalidSignature, "goseal_content_invalid_signature_total", "Content envelopes failing verification."},
	{goSeal.MetricContentMismatch, "goseal_content_mismatch_total", "Request payloads differing from the signed content."},
	{goSeal.MetricRateLimitHit, "goseal_rate_limit_hit_total", "Requests refused by the request throttle."},
}

// Histograms lists every exported histogram.
var Histograms = []Def{
	{goSeal.MetricVerifyLatency, "goseal_verify_latency_seconds", "Outer token verification latency."},
}

// Bounds are the upper bucket bounds in seconds, matching the Engine buckets.
var Bounds = [BucketCount]string{
	"0.00005",
	"0.0001",
	"0.00025",
	"0.0005",
	"0.001",
	"0.005",
	"0.025",
	"+Inf",
}

// Cumulative converts raw per-bucket counts into cumulative counts. Short or
// missing input is zero-filled.
func Cumulative(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i := range out {
		if i < len(raw) {
			running += raw[i]
		}
		out[i] = running
	}
	return out
}
