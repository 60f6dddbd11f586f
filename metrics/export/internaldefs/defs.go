package internaldefs

import (
	accountlink "github.com/nittanyapp/accountlink"
)

// CounterDef defines a public type used by accountlink APIs.
type CounterDef struct {
	ID   accountlink.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by accountlink APIs.
type HistogramDef struct {
	ID   accountlink.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the linking engine.
var CounterDefs = []CounterDef{
	{ID: accountlink.MetricLinkInitiated, Name: "accountlink_link_initiated_total", Help: "Started linking attempts."},
	{ID: accountlink.MetricLinkedDirect, Name: "accountlink_linked_direct_total", Help: "Links completed without an MFA challenge."},
	{ID: accountlink.MetricChallengeIssued, Name: "accountlink_challenge_issued_total", Help: "Number-matching challenges issued."},
	{ID: accountlink.MetricLinkFailure, Name: "accountlink_link_failure_total", Help: "Linking attempts rejected by the institution."},
	{ID: accountlink.MetricLinkError, Name: "accountlink_link_error_total", Help: "Linking attempts aborted by automation or backend errors."},
	{ID: accountlink.MetricApprovalLinked, Name: "accountlink_approval_linked_total", Help: "Challenges approved and finalized."},
	{ID: accountlink.MetricApprovalWaiting, Name: "accountlink_approval_waiting_total", Help: "Approval polls answered with waiting."},
	{ID: accountlink.MetricApprovalDenied, Name: "accountlink_approval_denied_total", Help: "Challenges denied or timed out."},
	{ID: accountlink.MetricRestartRequired, Name: "accountlink_restart_required_total", Help: "Approval polls against missing or expired sessions."},
	{ID: accountlink.MetricOwnershipViolation, Name: "accountlink_ownership_violation_total", Help: "Approval polls rejected for session ownership mismatch."},
	{ID: accountlink.MetricSessionExpired, Name: "accountlink_session_expired_total", Help: "Pending sessions evicted at TTL."},
	{ID: accountlink.MetricUnlink, Name: "accountlink_unlink_total", Help: "Unlink operations."},
	{ID: accountlink.MetricVaultError, Name: "accountlink_vault_error_total", Help: "Credential vault failures."},
}

// HistogramDefs is an exported constant or variable used by the linking engine.
var HistogramDefs = []HistogramDef{
	{ID: accountlink.MetricInitiateLatency, Name: "accountlink_initiate_latency_seconds", Help: "Initiate latency histogram."},
	{ID: accountlink.MetricApprovalLatency, Name: "accountlink_approval_latency_seconds", Help: "Approval poll latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the linking engine.
var HistogramBounds = []string{
	"0.25",
	"0.5",
	"1",
	"2.5",
	"5",
	"10",
	"30",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the linking engine.
var HistogramBoundSuffix = []string{
	"0_25",
	"0_5",
	"1",
	"2_5",
	"5",
	"10",
	"30",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
