package main

import (
	"errors"
	"fmt"
	"time"

	goAuthClient "github.com/MrEthical07/goAuthClient"
	"github.com/MrEthical07/goAuthClient/model"
	"github.com/MrEthical07/goAuthClient/usecase"
	"github.com/spf13/cobra"
)

// userView is the printed form of a user.
type userView struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name,omitempty"`
	Role        string `json:"role"`
	AccountType string `json:"account_type"`
	Org         string `json:"organization,omitempty"`
	Verified    bool   `json:"verified"`
	Onboarded   bool   `json:"onboarding_complete"`
}

func viewOf(u *model.User) userView {
	v := userView{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.FullName(),
		Role:        u.Role.String(),
		AccountType: string(u.AccountType.Kind),
		Verified:    u.IsVerified,
		Onboarded:   u.IsOnboardingComplete,
	}
	if u.AccountType.Organization != nil {
		v.Org = u.AccountType.Organization.Name
	}
	return v
}

func (a *app) printUser(u *model.User) error {
	if a.cfg.JSON {
		return a.printJSON(viewOf(u))
	}
	v := viewOf(u)
	a.printf("User:     %s (%s)\n", v.ID, v.Email)
	if v.Name != "" {
		a.printf("Name:     %s\n", v.Name)
	}
	a.printf("Role:     %s\n", v.Role)
	a.printf("Account:  %s\n", v.AccountType)
	if v.Org != "" {
		a.printf("Org:      %s\n", v.Org)
	}
	a.printf("Verified: %t\n", v.Verified)
	return nil
}

// password returns --password, falling back to AUTHCTL_PASSWORD.
func (a *app) password(cmd *cobra.Command) (string, error) {
	pw, _ := cmd.Flags().GetString("password")
	if pw == "" {
		pw = a.v.GetString("password")
	}
	if pw == "" {
		return "", errors.New("password required (--password or AUTHCTL_PASSWORD)")
	}
	return pw, nil
}

func newOTPCmd(a *app) *cobra.Command {
	otp := &cobra.Command{
		Use:   "otp",
		Short: "One-time code commands",
	}

	request := &cobra.Command{
		Use:   "request <email>",
		Short: "Ask the server to email a one-time code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			purpose, _ := cmd.Flags().GetString("purpose")
			p, ok := model.ParsePurpose(purpose)
			if !ok {
				return fmt.Errorf("unknown purpose %q (signup, login, password_reset)", purpose)
			}

			ctx, cancel := a.context()
			defer cancel()
			if err := usecase.NewRequestOTP(a.engine).Execute(ctx, args[0], p); err != nil {
				return a.fail(err)
			}
			if a.cfg.JSON {
				return a.printJSON(map[string]string{"status": "sent", "purpose": string(p)})
			}
			a.printf("Code sent for %s\n", p)
			return nil
		},
	}
	request.Flags().String("purpose", string(model.PurposeLogin), "code purpose (signup, login, password_reset)")

	pending := &cobra.Command{
		Use:   "pending",
		Short: "Show the OTP step waiting for a code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.context()
			defer cancel()
			ch, err := a.engine.PendingChallenge(ctx)
			if err != nil {
				return a.fail(err)
			}
			if a.cfg.JSON {
				return a.printJSON(ch)
			}
			if ch == nil {
				a.printf("No pending code\n")
				return nil
			}
			a.printf("%s code for %s, expires in %s (%d failed attempts)\n",
				ch.Purpose, ch.Email, time.Until(ch.ExpiresAt).Round(time.Second), ch.Attempts)
			return nil
		},
	}

	otp.AddCommand(request, pending)
	return otp
}

func newSignupCmd(a *app) *cobra.Command {
	signup := &cobra.Command{
		Use:   "signup",
		Short: "Register a new account with a SIGNUP code",
	}

	individual := &cobra.Command{
		Use:   "individual",
		Short: "Register an individual account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := cmd.Flags()
			email, _ := f.GetString("email")
			first, _ := f.GetString("first-name")
			last, _ := f.GetString("last-name")
			phone, _ := f.GetString("phone")
			code, _ := f.GetString("code")
			pw, err := a.password(cmd)
			if err != nil {
				return err
			}

			draft := &model.User{
				Email:       email,
				FirstName:   first,
				LastName:    last,
				Phone:       phone,
				AccountType: model.Individual(),
			}
			ctx, cancel := a.context()
			defer cancel()
			user, err := usecase.NewRegisterIndividual(a.engine).Execute(ctx, draft, code, pw)
			if err != nil {
				return a.fail(err)
			}
			return a.printUser(user)
		},
	}
	individual.Flags().String("email", "", "account email")
	individual.Flags().String("first-name", "", "first name")
	individual.Flags().String("last-name", "", "last name")
	individual.Flags().String("phone", "", "phone number")
	individual.Flags().String("code", "", "SIGNUP code")
	individual.Flags().String("password", "", "password")
	_ = individual.MarkFlagRequired("email")
	_ = individual.MarkFlagRequired("code")

	organization := &cobra.Command{
		Use:   "organization",
		Short: "Register an organization and its admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := cmd.Flags()
			get := func(name string) string {
				v, _ := f.GetString(name)
				return v
			}
			pw, err := a.password(cmd)
			if err != nil {
				return err
			}

			draft := &model.User{
				Email: get("email"),
				Phone: get("phone"),
				AccountType: model.OrganizationAccount(model.Organization{
					Name:           get("org-name"),
					Type:           get("org-type"),
					Email:          get("org-email"),
					Phone:          get("org-phone"),
					Address:        get("org-address"),
					AdminFirstName: get("admin-first-name"),
					AdminLastName:  get("admin-last-name"),
				}),
			}
			ctx, cancel := a.context()
			defer cancel()
			user, err := usecase.NewRegisterOrganization(a.engine).Execute(ctx, draft, get("code"), pw)
			if err != nil {
				return a.fail(err)
			}
			return a.printUser(user)
		},
	}
	for _, name := range []string{"email", "phone", "org-name", "org-type", "org-email", "org-phone", "org-address", "admin-first-name", "admin-last-name", "code", "password"} {
		organization.Flags().String(name, "", name)
	}
	_ = organization.MarkFlagRequired("email")
	_ = organization.MarkFlagRequired("org-name")
	_ = organization.MarkFlagRequired("code")

	signup.AddCommand(individual, organization)
	return signup
}

func newLoginCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Submit the password step; a LOGIN code follows by email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := a.password(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := a.context()
			defer cancel()
			if err := usecase.NewLogin(a.engine).Execute(ctx, args[0], pw); err != nil {
				return a.fail(err)
			}
			if a.cfg.JSON {
				return a.printJSON(map[string]string{"status": "code_required"})
			}
			a.printf("Password accepted. Run: authctl verify %s <code>\n", args[0])
			return nil
		},
	}
	cmd.Flags().String("password", "", "password")
	return cmd
}

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <email> <code>",
		Short: "Complete login with the emailed code",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context()
			defer cancel()
			user, err := usecase.NewVerifyMFA(a.engine).Execute(ctx, args[0], args[1])
			if err != nil {
				return a.fail(err)
			}
			return a.printUser(user)
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.context()
			defer cancel()
			status, err := a.engine.SessionStatus(ctx)
			if err != nil {
				return a.fail(err)
			}
			if a.cfg.JSON {
				return a.printJSON(status)
			}
			if !status.HasToken {
				a.printf("Not logged in\n")
				return nil
			}
			a.printf("Email:    %s\n", status.Email)
			if status.Subject != "" {
				a.printf("Subject:  %s\n", status.Subject)
			}
			if !status.ExpiresAt.IsZero() {
				a.printf("Expires:  %s\n", status.ExpiresAt.Format(time.RFC3339))
			}
			a.printf("Expired:  %t\n", status.Expired)
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the cached logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.context()
			defer cancel()
			user, err := a.engine.LoggedInUser(ctx)
			if errors.Is(err, goAuthClient.ErrNotLoggedIn) && !a.cfg.JSON {
				a.printf("Not logged in\n")
				return nil
			}
			if err != nil {
				return a.fail(err)
			}
			return a.printUser(user)
		},
	}
}

func newWelcomeCmd(a *app) *cobra.Command {
	welcome := &cobra.Command{
		Use:   "welcome",
		Short: "Show whether the welcome screen was seen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.context()
			defer cancel()
			seen, err := usecase.NewCheckWelcomeScreen(a.engine).Execute(ctx)
			if err != nil {
				return a.fail(err)
			}
			if a.cfg.JSON {
				return a.printJSON(map[string]bool{"seen": seen})
			}
			a.printf("Welcome screen seen: %t\n", seen)
			return nil
		},
	}
	welcome.AddCommand(&cobra.Command{
		Use:   "seen",
		Short: "Mark the welcome screen as seen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.context()
			defer cancel()
			if err := usecase.NewMarkWelcomeScreenSeen(a.engine).Execute(ctx); err != nil {
				return a.fail(err)
			}
			a.printf("Welcome screen marked as seen\n")
			return nil
		},
	})
	return welcome
}

func newLanguageCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "language [code]",
		Short: "Show or set the selected UI language",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context()
			defer cancel()
			if len(args) == 1 {
				if err := a.engine.SetSelectedLanguage(ctx, args[0]); err != nil {
					return a.fail(err)
				}
			}
			lang, err := a.engine.SelectedLanguage(ctx)
			if err != nil {
				return a.fail(err)
			}
			if a.cfg.JSON {
				return a.printJSON(map[string]string{"language": lang})
			}
			a.printf("Language: %s\n", lang)
			return nil
		},
	}
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear tokens and cached users; keep onboarding and language",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.context()
			defer cancel()
			if err := usecase.NewLogout(a.engine).Execute(ctx); err != nil {
				return a.fail(err)
			}
			a.printf("Logged out\n")
			return nil
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Reset all local state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.context()
			defer cancel()
			if err := a.engine.ClearAll(ctx); err != nil {
				return a.fail(err)
			}
			a.printf("Local state cleared\n")
			return nil
		},
	}
}

func newWatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the logged-in user whenever it changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			count, _ := cmd.Flags().GetInt("count")
			ctx, cancel := a.context()
			defer cancel()

			users, err := usecase.NewObserveSession(a.engine).Execute(ctx)
			if err != nil {
				return a.fail(err)
			}
			seen := 0
			for u := range users {
				if u == nil {
					a.printf("%s logged out\n", time.Now().Format(time.RFC3339))
				} else {
					a.printf("%s logged in as %s (%s)\n", time.Now().Format(time.RFC3339), u.Email, u.ID)
				}
				seen++
				if count > 0 && seen >= count {
					return nil
				}
			}
			return nil
		},
	}
	cmd.Flags().Int("count", 0, "exit after this many updates (0 = until interrupted)")
	return cmd
}
