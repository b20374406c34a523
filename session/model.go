package session

// Field names of the session hash.
const (
	KeyAuthToken          = "auth_token"
	KeyRefreshToken       = "refresh_token"
	KeyOnboardingComplete = "onboarding_complete"
	KeySelectedLanguage   = "selected_language"
	KeyUserEmail          = "user_email"
)

// State is a point-in-time snapshot of the session hash. Empty strings mean
// the key is absent.
type State struct {
	AuthToken          string
	RefreshToken       string
	OnboardingComplete bool
	SelectedLanguage   string
	UserEmail          string
}

// HasToken reports whether a previous authentication left an access token.
func (s State) HasToken() bool {
	return s.AuthToken != ""
}

func stateFromHash(m map[string]string) *State {
	return &State{
		AuthToken:          m[KeyAuthToken],
		RefreshToken:       m[KeyRefreshToken],
		OnboardingComplete: m[KeyOnboardingComplete] == "1",
		SelectedLanguage:   m[KeySelectedLanguage],
		UserEmail:          m[KeyUserEmail],
	}
}
