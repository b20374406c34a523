// Package session provides the Redis-backed key-value session state of the
// client: access and refresh tokens, the onboarding flag, the selected
// language and the last authenticated email.
//
// # Layout
//
// All keys live in a single Redis hash so a full reset is one DEL. The
// onboarding flag is sticky: [Store.ClearSession] keeps it and only
// [Store.ClearAll] removes it.
//
// # What this package must NOT do
//
//   - Import goAuthClient, cache or api (no upward imports).
//   - Interpret token contents.
package session
