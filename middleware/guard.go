package middleware

import (
	"context"
	"errors"
	"net/http"

	goAuthClient "github.com/MrEthical07/goAuthClient"
	"github.com/MrEthical07/goAuthClient/model"
)

type userContextKey struct{}

// UserFromContext returns the user injected by RequireSession.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userContextKey{}).(*model.User)
	return u, ok
}

// RequireSession passes the request on only while the engine holds a
// readable, unexpired access token and a cached logged-in user.
func RequireSession(engine *goAuthClient.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			status, err := engine.SessionStatus(r.Context())
			if err != nil {
				http.Error(w, "session unavailable", http.StatusServiceUnavailable)
				return
			}
			if !status.HasToken || status.Expired {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			user, err := engine.LoggedInUser(r.Context())
			if errors.Is(err, goAuthClient.ErrNotLoggedIn) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if err != nil {
				http.Error(w, "session unavailable", http.StatusServiceUnavailable)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireOnboarding wraps RequireSession and answers 403 until the user has
// completed onboarding.
func RequireOnboarding(engine *goAuthClient.Engine) func(http.Handler) http.Handler {
	session := RequireSession(engine)
	return func(next http.Handler) http.Handler {
		return session(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			done, err := engine.IsOnboardingComplete(r.Context())
			if err != nil {
				http.Error(w, "session unavailable", http.StatusServiceUnavailable)
				return
			}
			if !done {
				http.Error(w, "onboarding required", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}
