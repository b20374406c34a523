// Package stores provides Redis-backed, short-lived record stores for the
// OTP-gated auth flows.
//
// # Design
//
// Each store persists a versioned, binary-encoded record in Redis with a TTL.
// Mutation operations (RecordFailure) use WATCH/MULTI optimistic
// transactions with automatic retry on contention.
//
// # Architecture boundaries
//
// This package owns persistence and concurrency control for transient
// challenge records. It does NOT request OTPs, enforce rate limits, or
// make authentication decisions. Those belong to the Engine.
//
// # What this package must NOT do
//
//   - Import goAuthClient or any sibling internal package.
//   - Store OTP codes or passwords.
package stores
