// Package internal holds the private building blocks of goAuthClient.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher and Sink implementations)
//   - flows: the authenticated-exchange orchestration shared by signup and login
//   - logging: zap logger construction and request-scoped fields
//   - metrics: lock-free counters and latency histograms
//   - rate: Redis-backed OTP request throttle
//   - stores: short-lived Redis records such as the pending OTP challenge
//   - watch: broadcast of the latest value to observers
//
// Nothing here is part of the public API.
package internal
