// Package cache persists the authenticated user and organization
// memberships in Redis and streams logged-in user changes to observers.
package cache
