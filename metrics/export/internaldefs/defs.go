package internaldefs

import goSession "github.com/MrEthical07/goSession"

// CounterDef maps one MetricID to its exported name and help text. Both the
// Prometheus and OTel exporters render from this single table so the two
// surfaces never drift.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{goSession.MetricTokenStored, "gosession_token_stored_total", "Session records installed after login."},
	{goSession.MetricTokenServed, "gosession_token_served_total", "Access tokens served from the validity window."},
	{goSession.MetricTokensCleared, "gosession_tokens_cleared_total", "Session store wipes."},
	{goSession.MetricRefreshSuccess, "gosession_refresh_success_total", "Successful refresh cycles."},
	{goSession.MetricRefreshFailure, "gosession_refresh_failure_total", "Fatal refresh cycles."},
	{goSession.MetricRefreshRetry, "gosession_refresh_retry_total", "Retried refresh network attempts."},
	{goSession.MetricRefreshRateLimited, "gosession_refresh_rate_limited_total", "Refreshes rejected inside the minimum interval."},
	{goSession.MetricRefreshJoined, "gosession_refresh_joined_total", "Callers joined to an in-flight refresh cycle."},
	{goSession.MetricQueueTimeout, "gosession_refresh_queue_timeout_total", "Queued callers released by their own timeout."},
	{goSession.MetricFingerprintMismatch, "gosession_fingerprint_mismatch_total", "Fingerprint mismatches observed."},
	{goSession.MetricBreachDeclared, "gosession_breach_declared_total", "Security breach declarations."},
	{goSession.MetricLoginFailure, "gosession_login_failure_total", "Recorded login failures."},
	{goSession.MetricLoginSuccess, "gosession_login_success_total", "Recorded login successes."},
	{goSession.MetricLoginLockout, "gosession_login_lockout_total", "Identifiers entering the locked state."},
	{goSession.MetricStorageError, "gosession_storage_error_total", "Downgraded persistent store faults."},
	{goSession.MetricValidateSweep, "gosession_validate_sweep_total", "Periodic validation runs."},
}
