package goAuthClient

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goAuthClient/api"
	internalaudit "github.com/MrEthical07/goAuthClient/internal/audit"
	"github.com/MrEthical07/goAuthClient/internal/flows"
	"github.com/MrEthical07/goAuthClient/internal/rate"
	"github.com/MrEthical07/goAuthClient/internal/stores"
	"github.com/MrEthical07/goAuthClient/jwt"
	"github.com/MrEthical07/goAuthClient/mapper"
	"github.com/MrEthical07/goAuthClient/model"
	"go.uber.org/zap"
)

// Engine orchestrates the OTP-gated signup and login protocol and keeps
// the local user cache and session store in step with it.
//
// Engine methods are safe for concurrent use. Concurrent authentications
// resolve last-writer-wins.
type Engine struct {
	config     Config
	gateway    Gateway
	users      UserCache
	session    SessionStore
	challenges *stores.OTPChallengeStore
	throttle   *rate.Limiter
	inspector  *jwt.Inspector
	audit      *internalaudit.Dispatcher
	metrics    *Metrics
	logger     *zap.Logger
	clock      func() time.Time
}

// Close flushes and stops the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns the number of audit events dropped because the
// buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of the in-process metrics.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) ready() bool {
	return e != nil && e.gateway != nil && e.users != nil && e.session != nil
}

func (e *Engine) flowErrors() flows.ExchangeErrors {
	return flows.ExchangeErrors{
		EngineNotReady: ErrEngineNotReady,
		Transport:      ErrTransport,
		ServerRejected: ErrServerRejected,
		Mapping:        ErrMapping,
		Persistence:    ErrPersistence,
		RateLimited:    ErrOTPRateLimited,
		New:            newError,
	}
}

func (e *Engine) warn(msg string, keysAndValues ...any) {
	e.logger.Sugar().Warnw(msg, keysAndValues...)
}

// exchangeDeps wires RunAuthExchange to the engine's stores.
func (e *Engine) exchangeDeps(ctx context.Context, events flows.ExchangeEvents, success MetricID) flows.ExchangeDeps {
	deps := flows.ExchangeDeps{
		Now: e.now,
		MapUser: func(dto *api.UserResponseDTO) (*model.User, error) {
			return mapper.ToDomain(dto, mapper.Options{
				Now:                e.now,
				OnboardingComplete: e.onboardingForAuth(ctx),
			})
		},
		PersistUser: e.persistUser,
		SaveTokens:  e.session.SaveTokens,
		RecordEmail: e.session.SetUserEmail,
		MetricInc: func(id int) {
			e.metricInc(MetricID(id))
		},
		ObserveLatency: func(id int, d time.Duration) {
			e.metricObserve(MetricID(id), d)
		},
		EmitAudit: e.emitAudit,
		Warn:      e.warn,
		Metrics: flows.ExchangeMetrics{
			Success:          int(success),
			TransportFailure: int(MetricTransportFailure),
			Rejected:         int(MetricServerRejected),
			MappingFailure:   int(MetricMappingFailure),
			PersistFailure:   int(MetricPersistFailure),
			Latency:          int(MetricExchangeLatency),
		},
		Events: events,
		Errors: e.flowErrors(),
	}
	if e.config.Onboarding.CompleteOnAuthentication {
		deps.MarkOnboardingComplete = e.session.MarkOnboardingComplete
	}
	if e.challenges != nil {
		deps.ClearChallenge = func(ctx context.Context) error {
			_, err := e.challenges.Delete(ctx)
			return err
		}
	}
	return deps
}

// envelopeDeps wires RunEnvelopeCall to the engine's instrumentation.
func (e *Engine) envelopeDeps(events flows.ExchangeEvents, success MetricID) flows.EnvelopeDeps {
	return flows.EnvelopeDeps{
		MetricInc: func(id int) {
			e.metricInc(MetricID(id))
		},
		EmitAudit: e.emitAudit,
		Warn:      e.warn,
		Metrics: flows.EnvelopeMetrics{
			Success:          int(success),
			TransportFailure: int(MetricTransportFailure),
			Rejected:         int(MetricServerRejected),
			RateLimited:      int(MetricOTPRateLimited),
		},
		Events: events,
		Errors: e.flowErrors(),
	}
}

// onboardingForAuth is the onboarding value a freshly authenticated user
// is mapped with.
func (e *Engine) onboardingForAuth(ctx context.Context) bool {
	if e.config.Onboarding.CompleteOnAuthentication {
		return true
	}
	done, err := e.session.OnboardingComplete(ctx)
	if err != nil {
		e.warn("goAuthClient: read onboarding flag failed", "error", err)
		return false
	}
	return done
}

// persistUser replaces the cached row for u and its membership rows.
func (e *Engine) persistUser(ctx context.Context, u *model.User) error {
	if err := e.users.Upsert(ctx, mapper.ToRecord(u)); err != nil {
		return err
	}
	return e.users.ReplaceMemberships(ctx, u.ID, mapper.ToMemberships(u))
}

func (e *Engine) logOutcome(operation string, user *model.User, err error) {
	if err == nil {
		fields := []zap.Field{zap.String("operation", operation)}
		if user != nil {
			fields = append(fields,
				zap.String("user_id", user.ID),
				zap.String("account_type", string(user.AccountType.Kind)),
			)
		}
		e.logger.Info("auth operation succeeded", fields...)
		return
	}
	e.logger.Warn("auth operation failed",
		zap.String("operation", operation),
		zap.String("kind", string(auditErrorCode(err))),
		zap.Error(err),
	)
}

// storeError wraps a local store failure as ErrPersistence.
func storeError(err error) error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return err
	}
	return newError(ErrPersistence, err.Error(), "", err)
}
