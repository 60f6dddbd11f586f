// Package accountlink links host-application user accounts to a third-party
// institutional account that is only reachable through an interactive,
// browser-rendered login flow with push-notification MFA.
//
// The package drives a real headless-browser session against the institutional
// sign-in page, classifies the outcome (immediate success, MFA challenge,
// rejection), and lets the MFA approval complete asynchronously while the
// client polls a stable session handle. Approved credentials are sealed into a
// Redis-backed vault; the in-flight plaintext lives only in a volatile session
// registry with a hard time-to-live.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// accountlink is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (InitiateResult, ApprovalStatus, MetricsSnapshot, etc.).
// Self-contained concerns live in subpackages: credential sealing in vault,
// browser automation in browser, poll-ticket signing in ticket. Session-id
// generation lives under internal/ and is never exported. Metrics and audit
// dispatch live in the root package next to the Engine that feeds them.
//
// # What this package must NOT do
//
//   - Persist plaintext credentials anywhere; plaintext exists only inside a
//     pending session until it is sealed or evicted.
//   - Surface raw third-party page text or browser errors to callers; those
//     are translated into the package error taxonomy and logged internally.
//   - Mutate a user's link status outside of Engine methods.
package accountlink
