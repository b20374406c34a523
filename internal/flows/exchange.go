package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/goAuthClient/api"
	"github.com/MrEthical07/goAuthClient/model"
)

// ExchangeCall performs the network half of an auth exchange.
type ExchangeCall func(context.Context) (*api.Envelope[api.UserResponseDTO], error)

// EnvelopeCall performs an envelope-only network call.
type EnvelopeCall func(context.Context) (*api.Envelope[api.Empty], error)

// ExchangeMetrics carries metric IDs used by the auth flows.
type ExchangeMetrics struct {
	Success          int
	TransportFailure int
	Rejected         int
	MappingFailure   int
	PersistFailure   int
	Latency          int
}

// ExchangeEvents carries audit event names used by the auth flows.
type ExchangeEvents struct {
	Success     string
	Failure     string
	Rejected    string
	RateLimited string
}

// ExchangeErrors carries host-level sentinel errors and the constructor
// that attaches a human-readable message to them.
type ExchangeErrors struct {
	EngineNotReady error
	Transport      error
	ServerRejected error
	Mapping        error
	Persistence    error
	RateLimited    error

	// New builds the error returned to callers.
	New func(kind error, message, code string, cause error) error
}

// ExchangeDeps captures the collaborators of RunAuthExchange.
type ExchangeDeps struct {
	Now func() time.Time

	MapUser                func(*api.UserResponseDTO) (*model.User, error)
	PersistUser            func(context.Context, *model.User) error
	MarkOnboardingComplete func(context.Context) error
	SaveTokens             func(context.Context, string, string) error
	RecordEmail            func(context.Context, string) error
	ClearChallenge         func(context.Context) error
	OnRejected             func(context.Context) error

	MetricInc      func(int)
	ObserveLatency func(int, time.Duration)
	EmitAudit      func(ctx context.Context, event string, success bool, userID string, err error, metadata func() map[string]string)
	Warn           func(string, ...any)

	Metrics ExchangeMetrics
	Events  ExchangeEvents
	Errors  ExchangeErrors
}

func (deps *ExchangeDeps) defaults() {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.ObserveLatency == nil {
		deps.ObserveLatency = func(int, time.Duration) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, error, func() map[string]string) {}
	}
	if deps.Warn == nil {
		deps.Warn = func(string, ...any) {}
	}
	if deps.Errors.New == nil {
		deps.Errors.New = func(kind error, _, _ string, _ error) error { return kind }
	}
}

// RunAuthExchange runs one network call that yields an authenticated user,
// maps the payload, and persists the result. Any failure aborts the
// remaining steps; writes already made by earlier successful exchanges are
// left untouched.
func RunAuthExchange(ctx context.Context, operation string, call ExchangeCall, deps ExchangeDeps) (*model.User, error) {
	deps.defaults()
	if call == nil ||
		deps.MapUser == nil ||
		deps.PersistUser == nil ||
		deps.SaveTokens == nil ||
		deps.RecordEmail == nil {
		return nil, deps.Errors.EngineNotReady
	}

	start := deps.Now()
	defer func() {
		deps.ObserveLatency(deps.Metrics.Latency, deps.Now().Sub(start))
	}()

	fail := func(metric int, kind error, message, code string, cause error) (*model.User, error) {
		err := deps.Errors.New(kind, message, code, cause)
		deps.MetricInc(metric)
		deps.EmitAudit(ctx, deps.Events.Failure, false, "", err, func() map[string]string {
			return map[string]string{"operation": operation}
		})
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return fail(deps.Metrics.TransportFailure, deps.Errors.Transport, "request canceled", "", err)
	}

	env, err := call(ctx)
	if err != nil {
		return fail(deps.Metrics.TransportFailure, deps.Errors.Transport, err.Error(), "", err)
	}
	if env == nil || !env.Success || env.Data == nil {
		msg := env.FailureMessage()
		if msg == "" {
			msg = "authentication rejected by server"
		}
		if deps.OnRejected != nil {
			if hookErr := deps.OnRejected(ctx); hookErr != nil {
				deps.Warn("goAuthClient: rejection bookkeeping failed", "operation", operation, "error", hookErr)
			}
		}
		deps.MetricInc(deps.Metrics.Rejected)
		rejected := deps.Errors.New(deps.Errors.ServerRejected, msg, env.FailureCode(), nil)
		deps.EmitAudit(ctx, deps.Events.Rejected, false, "", rejected, func() map[string]string {
			return map[string]string{"operation": operation, "code": env.FailureCode()}
		})
		return nil, rejected
	}

	user, err := deps.MapUser(env.Data)
	if err != nil {
		return fail(deps.Metrics.MappingFailure, deps.Errors.Mapping, err.Error(), "", err)
	}

	persistErr := func(err error) (*model.User, error) {
		return fail(deps.Metrics.PersistFailure, deps.Errors.Persistence, err.Error(), "", err)
	}

	if err := ctx.Err(); err != nil {
		return persistErr(err)
	}
	if err := deps.PersistUser(ctx, user); err != nil {
		return persistErr(err)
	}
	if deps.MarkOnboardingComplete != nil {
		if err := deps.MarkOnboardingComplete(ctx); err != nil {
			return persistErr(err)
		}
	}

	var access, refresh string
	if env.Data.AccessToken != nil {
		access = *env.Data.AccessToken
	}
	if env.Data.RefreshToken != nil {
		refresh = *env.Data.RefreshToken
	}
	if err := deps.SaveTokens(ctx, access, refresh); err != nil {
		return persistErr(err)
	}

	if err := ctx.Err(); err != nil {
		return persistErr(err)
	}
	if err := deps.RecordEmail(ctx, user.Email); err != nil {
		return persistErr(err)
	}

	if deps.ClearChallenge != nil {
		if err := deps.ClearChallenge(ctx); err != nil {
			deps.Warn("goAuthClient: clear pending challenge failed", "operation", operation, "error", err)
		}
	}

	deps.MetricInc(deps.Metrics.Success)
	deps.EmitAudit(ctx, deps.Events.Success, true, user.ID, nil, func() map[string]string {
		return map[string]string{
			"operation":    operation,
			"account_type": string(user.AccountType.Kind),
		}
	})
	return user, nil
}

// EnvelopeDeps captures the collaborators of RunEnvelopeCall.
type EnvelopeDeps struct {
	// Throttle runs before the network call; a non-nil error aborts it
	// with Errors.RateLimited.
	Throttle func(context.Context) error
	// OnSuccess runs after an accepted envelope. Its failure is logged only.
	OnSuccess func(context.Context) error

	MetricInc func(int)
	EmitAudit func(ctx context.Context, event string, success bool, userID string, err error, metadata func() map[string]string)
	Warn      func(string, ...any)

	Metrics EnvelopeMetrics
	Events  ExchangeEvents
	Errors  ExchangeErrors
}

// EnvelopeMetrics carries metric IDs used by envelope-only calls.
type EnvelopeMetrics struct {
	Success          int
	TransportFailure int
	Rejected         int
	RateLimited      int
}

// RunEnvelopeCall runs one network call whose envelope carries no payload
// of interest. Success iff the envelope reports success.
func RunEnvelopeCall(ctx context.Context, operation string, call EnvelopeCall, deps EnvelopeDeps) error {
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, error, func() map[string]string) {}
	}
	if deps.Warn == nil {
		deps.Warn = func(string, ...any) {}
	}
	if deps.Errors.New == nil {
		deps.Errors.New = func(kind error, _, _ string, _ error) error { return kind }
	}
	if call == nil {
		return deps.Errors.EngineNotReady
	}

	meta := func() map[string]string {
		return map[string]string{"operation": operation}
	}

	if deps.Throttle != nil {
		if err := deps.Throttle(ctx); err != nil {
			limited := deps.Errors.New(deps.Errors.RateLimited, "too many code requests, try again later", "", err)
			event := deps.Events.RateLimited
			if event == "" {
				event = deps.Events.Failure
			}
			deps.MetricInc(deps.Metrics.RateLimited)
			deps.EmitAudit(ctx, event, false, "", limited, meta)
			return limited
		}
	}

	env, err := call(ctx)
	if err != nil {
		transport := deps.Errors.New(deps.Errors.Transport, err.Error(), "", err)
		deps.MetricInc(deps.Metrics.TransportFailure)
		deps.EmitAudit(ctx, deps.Events.Failure, false, "", transport, meta)
		return transport
	}
	if env == nil || !env.Success {
		msg := env.FailureMessage()
		if msg == "" {
			msg = "request rejected by server"
		}
		rejected := deps.Errors.New(deps.Errors.ServerRejected, msg, env.FailureCode(), nil)
		deps.MetricInc(deps.Metrics.Rejected)
		deps.EmitAudit(ctx, deps.Events.Rejected, false, "", rejected, meta)
		return rejected
	}

	if deps.OnSuccess != nil {
		if err := deps.OnSuccess(ctx); err != nil {
			deps.Warn("goAuthClient: post-success bookkeeping failed", "operation", operation, "error", err)
		}
	}

	deps.MetricInc(deps.Metrics.Success)
	deps.EmitAudit(ctx, deps.Events.Success, true, "", nil, meta)
	return nil
}
