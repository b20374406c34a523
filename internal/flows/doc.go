// Package flows contains pure-function orchestrators for the Engine's
// network-backed operations.
//
// Each flow function (RunAuthExchange, RunEnvelopeCall) accepts a typed
// dependency struct and returns results without side-effects beyond those
// dependencies. This keeps the Engine type thin and lets every step be
// tested with fake collaborators.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the API client, user cache, session
// store, audit dispatcher, and metrics. They do NOT own any of these
// resources. Ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goAuthClient (to avoid import cycles).
//   - Perform I/O directly. All I/O is mediated through dependency closures.
package flows
