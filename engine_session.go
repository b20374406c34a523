package goAuthClient

import (
	"context"
	"errors"
	"strings"

	"github.com/MrEthical07/goAuthClient/cache"
	"github.com/MrEthical07/goAuthClient/mapper"
	"github.com/MrEthical07/goAuthClient/model"
)

// SaveAuthenticatedUser persists user the same way a successful exchange
// does: the cached row and memberships are replaced, onboarding is marked
// complete per configuration, and the email is recorded. Tokens are left
// untouched.
func (e *Engine) SaveAuthenticatedUser(ctx context.Context, user *model.User) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if user == nil || strings.TrimSpace(user.ID) == "" {
		return newError(ErrInvalidInput, "user id is required", "", nil)
	}
	if err := user.AccountType.Validate(); err != nil {
		return newError(ErrInvalidInput, err.Error(), "", err)
	}

	if err := e.saveUser(ctx, user); err != nil {
		e.metricInc(MetricPersistFailure)
		err = storeError(err)
		e.emitAudit(ctx, auditEventUserSaved, false, user.ID, err, nil)
		e.logOutcome("save_user", user, err)
		return err
	}

	e.metricInc(MetricUserSaved)
	e.emitAudit(ctx, auditEventUserSaved, true, user.ID, nil, nil)
	return nil
}

func (e *Engine) saveUser(ctx context.Context, user *model.User) error {
	stored := *user
	if e.config.Onboarding.CompleteOnAuthentication {
		stored.IsOnboardingComplete = true
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.persistUser(ctx, &stored); err != nil {
		return err
	}
	if e.config.Onboarding.CompleteOnAuthentication {
		if err := e.session.MarkOnboardingComplete(ctx); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.session.SetUserEmail(ctx, user.Email)
}

// HasSeenWelcomeScreen reports whether the welcome screen was dismissed.
// It shares the onboarding_complete flag.
func (e *Engine) HasSeenWelcomeScreen(ctx context.Context) (bool, error) {
	return e.IsOnboardingComplete(ctx)
}

// SetWelcomeScreenSeen records the welcome screen as dismissed.
func (e *Engine) SetWelcomeScreenSeen(ctx context.Context) error {
	return e.CompleteOnboarding(ctx)
}

// IsOnboardingComplete reports the sticky onboarding flag.
func (e *Engine) IsOnboardingComplete(ctx context.Context) (bool, error) {
	if !e.ready() {
		return false, ErrEngineNotReady
	}
	done, err := e.session.OnboardingComplete(ctx)
	if err != nil {
		return false, storeError(err)
	}
	return done, nil
}

// CompleteOnboarding sets the onboarding flag. It stays set until ClearAll.
func (e *Engine) CompleteOnboarding(ctx context.Context) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if err := e.session.MarkOnboardingComplete(ctx); err != nil {
		return storeError(err)
	}
	e.metricInc(MetricOnboardingCompleted)
	e.emitAudit(ctx, auditEventOnboardingDone, true, "", nil, nil)
	return nil
}

// ObserveOnboarding streams the onboarding flag, starting with its current
// value. The channel closes when ctx is done.
func (e *Engine) ObserveOnboarding(ctx context.Context) (<-chan bool, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	ch, err := e.session.WatchOnboarding(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	return ch, nil
}

// LoggedInUser returns the most recently authenticated user, or
// ErrNotLoggedIn.
func (e *Engine) LoggedInUser(ctx context.Context) (*model.User, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	rec, err := e.users.LoggedIn(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	if rec == nil {
		return nil, ErrNotLoggedIn
	}
	return mapper.FromRecord(rec), nil
}

// ObserveLoggedInUser streams the logged-in user, starting with the current
// one. A nil value means nobody is logged in. The channel closes when ctx is
// done.
func (e *Engine) ObserveLoggedInUser(ctx context.Context) (<-chan *model.User, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	records, err := e.users.Observe(ctx)
	if err != nil {
		return nil, storeError(err)
	}

	out := make(chan *model.User, 1)
	go func() {
		defer close(out)
		for rec := range records {
			var user *model.User
			if rec != nil {
				user = mapper.FromRecord(rec)
			}
			select {
			case out <- user:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// GetUserByID returns the cached user with id, or ErrNotLoggedIn when the
// cache holds no such row.
func (e *Engine) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if strings.TrimSpace(id) == "" {
		return nil, newError(ErrInvalidInput, "user id is required", "", nil)
	}
	rec, err := e.users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, cache.ErrRecordNotFound) {
			return nil, ErrNotLoggedIn
		}
		return nil, storeError(err)
	}
	return mapper.FromRecord(rec), nil
}

// UserCount returns the number of cached users.
func (e *Engine) UserCount(ctx context.Context) (int, error) {
	if !e.ready() {
		return 0, ErrEngineNotReady
	}
	n, err := e.users.Count(ctx)
	if err != nil {
		return 0, storeError(err)
	}
	return n, nil
}

// AccessToken returns the stored access token, or "" when none is stored.
func (e *Engine) AccessToken(ctx context.Context) (string, error) {
	if !e.ready() {
		return "", ErrEngineNotReady
	}
	token, err := e.session.AccessToken(ctx)
	if err != nil {
		return "", storeError(err)
	}
	return token, nil
}

// SessionStatus inspects the stored access token. A token that cannot be
// parsed is reported as present but expired.
func (e *Engine) SessionStatus(ctx context.Context) (*SessionStatus, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	state, err := e.session.State(ctx)
	if err != nil {
		return nil, storeError(err)
	}

	status := &SessionStatus{
		HasToken: state.HasToken(),
		Email:    state.UserEmail,
	}
	if !status.HasToken {
		return status, nil
	}

	claims, err := e.inspector.Inspect(state.AuthToken)
	if err != nil {
		e.warn("goAuthClient: stored access token unreadable", "error", err)
		status.Expired = true
		return status, nil
	}
	status.Subject = claims.Principal()
	status.SessionID = claims.SessionID
	status.ExpiresAt = claims.ExpiresAt
	status.Expired = claims.Expired(e.now())
	status.Verified = e.inspector.Verifying()
	return status, nil
}

// Logout clears tokens, the recorded email, the pending challenge, and
// every cached user and membership. The onboarding flag and selected
// language survive.
func (e *Engine) Logout(ctx context.Context) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if err := e.clearLocal(ctx, false); err != nil {
		e.emitAudit(ctx, auditEventLogout, false, "", err, nil)
		return err
	}
	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, "", nil, nil)
	e.logOutcome("logout", nil, nil)
	return nil
}

// ClearAll resets all local state, including the onboarding flag.
func (e *Engine) ClearAll(ctx context.Context) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if err := e.clearLocal(ctx, true); err != nil {
		e.emitAudit(ctx, auditEventClearAll, false, "", err, nil)
		return err
	}
	e.metricInc(MetricClearAll)
	e.emitAudit(ctx, auditEventClearAll, true, "", nil, nil)
	e.logOutcome("clear_all", nil, nil)
	return nil
}

func (e *Engine) clearLocal(ctx context.Context, all bool) error {
	var err error
	if all {
		err = e.session.ClearAll(ctx)
	} else {
		err = e.session.ClearSession(ctx)
	}
	if err != nil {
		return storeError(err)
	}
	if _, err := e.users.DeleteAll(ctx); err != nil {
		return storeError(err)
	}
	if e.challenges != nil {
		if _, err := e.challenges.Delete(ctx); err != nil {
			return storeError(err)
		}
	}
	return nil
}

// SelectedLanguage returns the stored UI language, or "".
func (e *Engine) SelectedLanguage(ctx context.Context) (string, error) {
	if !e.ready() {
		return "", ErrEngineNotReady
	}
	lang, err := e.session.SelectedLanguage(ctx)
	if err != nil {
		return "", storeError(err)
	}
	return lang, nil
}

// SetSelectedLanguage stores the UI language.
func (e *Engine) SetSelectedLanguage(ctx context.Context, lang string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return newError(ErrInvalidInput, "language is required", "", nil)
	}
	return storeError(e.session.SetSelectedLanguage(ctx, lang))
}

// UserEmail returns the email recorded by the last authentication.
func (e *Engine) UserEmail(ctx context.Context) (string, error) {
	if !e.ready() {
		return "", ErrEngineNotReady
	}
	email, err := e.session.UserEmail(ctx)
	if err != nil {
		return "", storeError(err)
	}
	return email, nil
}

// Memberships returns the organization memberships of userID.
func (e *Engine) Memberships(ctx context.Context, userID string) ([]cache.MembershipRecord, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	out, err := e.users.Memberships(ctx, userID)
	if err != nil {
		return nil, storeError(err)
	}
	return out, nil
}

// OrganizationMembers returns the cached members of orgID.
func (e *Engine) OrganizationMembers(ctx context.Context, orgID string) ([]cache.MembershipRecord, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	out, err := e.users.OrganizationMembers(ctx, orgID)
	if err != nil {
		return nil, storeError(err)
	}
	return out, nil
}
