// Package middleware adapts a goAuthClient.Engine to net/http handlers for
// apps that serve a local UI or backend-for-frontend on top of the engine.
//
// # Handlers
//
//   - [RequestID] tags each request context with an X-Request-ID so gateway
//     calls and audit events can be correlated.
//   - [RequireSession] rejects requests while no unexpired access token is
//     stored and injects the logged-in user into the request context.
//   - [RequireOnboarding] additionally rejects users who have not finished
//     onboarding.
//
// This package translates HTTP semantics into Engine calls. It does not read
// Redis or parse tokens itself.
package middleware
