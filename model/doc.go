// Package model defines the canonical in-memory representation of an
// authenticated principal.
//
// # Account types
//
// A [User] carries exactly one [AccountType]: either an individual account or
// an organization account with a fully populated [Organization]. The
// invariant is enforced by [AccountType.Validate] and every constructor in
// this package produces valid values.
//
// # What this package must NOT do
//
//   - Know about wire DTOs, persisted rows, or storage (see mapper, cache).
//   - Perform I/O.
package model
