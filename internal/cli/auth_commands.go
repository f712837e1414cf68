package cli

import (
	"context"
	"time"

	"github.com/spf13/pflag"

	"github.com/mkrupp/underwritepro/internal/domain"
	"github.com/mkrupp/underwritepro/internal/svc/router"
)

func (a *App) loginCommand() *Command {
	var (
		email         string
		passwordStdin bool
	)

	return &Command{
		Name:    "login",
		Summary: "Sign in and store the session",
		Flags: a.flags("login", func(fs *pflag.FlagSet) {
			fs.StringVarP(&email, "email", "e", "", "account email (prompted when empty)")
			fs.BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
		}),
		Examples: []Example{
			{Description: "Sign in interactively", Command: "uwp login --email ada@example.com"},
		},
		Run: func(ctx context.Context, _ []string) error {
			return a.visit(ctx, router.LoginRoute, func(ctx context.Context) error {
				var err error

				if email == "" {
					if email, err = a.prompt.Line("Email: "); err != nil {
						return err
					}
				}

				var password string
				if passwordStdin {
					password, err = a.prompt.Line("")
				} else {
					password, err = a.prompt.Secret("Password: ")
				}

				if err != nil {
					return err
				}

				user, err := a.sessions.Login(ctx, email, password)
				if err != nil {
					return loginError(err)
				}

				return a.print(user)
			})
		},
	}
}

func (a *App) registerCommand() *Command {
	var registration domain.Registration

	return &Command{
		Name:    "register",
		Summary: "Create an account and sign in",
		Flags: a.flags("register", func(fs *pflag.FlagSet) {
			fs.StringVarP(&registration.Email, "email", "e", "", "account email")
			fs.StringVar(&registration.FullName, "full-name", "", "your full name")
			fs.StringVar(&registration.CompanyName, "company-name", "", "your company")
		}),
		Run: func(ctx context.Context, _ []string) error {
			return a.visit(ctx, router.RegisterRoute, func(ctx context.Context) error {
				password, err := a.prompt.Secret("Password (min. 8 characters): ")
				if err != nil {
					return err
				}

				registration.Password = password

				user, err := a.sessions.Register(ctx, registration)
				if err != nil {
					return registrationError(err)
				}

				return a.print(user)
			})
		},
	}
}

func (a *App) logoutCommand() *Command {
	return &Command{
		Name:    "logout",
		Summary: "Forget the stored session",
		Run: func(ctx context.Context, _ []string) error {
			return a.visit(ctx, router.LandingRoute, func(ctx context.Context) error {
				a.sessions.Logout(ctx)
				a.notice("logged out")

				return nil
			})
		},
	}
}

type whoami struct {
	User      *domain.User `json:"user"`
	Subject   string       `json:"subject,omitempty"`
	ExpiresAt *time.Time   `json:"expires_at,omitempty"`
	Expired   bool         `json:"expired,omitempty"`
}

func (a *App) whoamiCommand() *Command {
	return &Command{
		Name:    "whoami",
		Summary: "Show the signed-in user",
		Flags:   a.flags("whoami", nil),
		Run: func(ctx context.Context, _ []string) error {
			return a.visit(ctx, router.ProfileRoute, func(context.Context) error {
				session := a.sessions.Snapshot()
				result := whoami{User: session.User}

				if info, err := domain.ParseTokenInfo(session.Token); err == nil {
					result.Subject = info.Subject
					result.Expired = info.Expired(time.Now())

					if !info.ExpiresAt.IsZero() {
						result.ExpiresAt = &info.ExpiresAt
					}
				}

				return a.print(result)
			})
		},
	}
}

func (a *App) profileCommand() *Command {
	var (
		flagSet *pflag.FlagSet
		patch   struct{ fullName, email, companyName string }
	)

	update := &Command{
		Name:    "update",
		Summary: "Change the locally stored profile",
		Flags: func() *pflag.FlagSet {
			flagSet = a.flags("update", func(fs *pflag.FlagSet) {
				fs.StringVar(&patch.fullName, "full-name", "", "new full name")
				fs.StringVar(&patch.email, "email", "", "new email")
				fs.StringVar(&patch.companyName, "company-name", "", "new company")
			})()

			return flagSet
		},
		Run: func(ctx context.Context, _ []string) error {
			return a.visit(ctx, router.ProfileRoute, func(ctx context.Context) error {
				var p domain.UserPatch

				if flagSet.Changed("full-name") {
					p.FullName = &patch.fullName
				}

				if flagSet.Changed("email") {
					p.Email = &patch.email
				}

				if flagSet.Changed("company-name") {
					p.CompanyName = &patch.companyName
				}

				user, err := a.sessions.UpdateUser(ctx, p)
				if err != nil {
					return err
				}

				return a.print(user)
			})
		},
	}

	return &Command{
		Name:        "profile",
		Summary:     "Show or update the profile",
		Subcommands: []*Command{update},
		Flags:       a.flags("profile", nil),
		Run: func(ctx context.Context, _ []string) error {
			return a.visit(ctx, router.ProfileRoute, func(context.Context) error {
				return a.print(a.sessions.Snapshot().User)
			})
		},
	}
}

func loginError(err error) error {
	return userFacingError(err, "Login failed")
}

func registrationError(err error) error {
	return userFacingError(err, "Registration failed. Please try again.")
}
