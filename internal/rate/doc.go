// Package rate provides the Redis-backed OTP request throttle.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. One counter
// per normalized email under the configured prefix (default "gac:otp").
//
// # What this package must NOT do
//
//   - Decide what happens after a rejection (the Engine maps it to an error kind).
//   - Be imported outside the goAuthClient module.
package rate
