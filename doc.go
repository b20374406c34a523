// Package goAuthClient is the client-side authentication core of the
// marketplace app. It drives the OTP-gated signup and login protocol of the
// auth module, maps server payloads onto one domain User, and keeps a local
// user cache and session store in step with the result.
//
// The package is designed for concurrent use: Engine methods are safe to
// call from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goAuthClient is the public surface. It exposes [Engine], [Builder],
// [Config], the error taxonomy, and value types. The shared exchange
// orchestration, the OTP throttle, the pending challenge record, and audit
// dispatch live under internal/.
//
// Every authenticated exchange runs the same steps: one network call,
// envelope check, mapping, then local writes (user row, onboarding flag,
// tokens, email). A failure at any step aborts the rest and is reported as
// an [*Error] whose Kind is one of the sentinel errors.
//
// # What this package must NOT do
//
//   - Retry network calls.
//   - Expose Redis clients or record encodings in its public API.
//   - Import any sub-package that re-imports goAuthClient (no import cycles).
package goAuthClient
