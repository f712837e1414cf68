package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/mkrupp/underwritepro/internal/domain"
	"github.com/mkrupp/underwritepro/internal/infra/logging"
	"github.com/mkrupp/underwritepro/internal/svc/api"
	"github.com/mkrupp/underwritepro/internal/svc/router"
	"github.com/mkrupp/underwritepro/internal/svc/sessionsvc"
)

// ErrLoginRequired is returned when a command needs a session and there is none.
var ErrLoginRequired = errors.New("login required")

// App wires the commands to the session store, the router and the backend facades.
type App struct {
	sessions *sessionsvc.SessionStore
	router   *router.Router
	api      *api.Facades
	prompt   *Prompter
	out      io.Writer
	errOut   io.Writer
	format   string
	log      logging.Logger
}

// IO holds the streams of the App.
type IO struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
}

// NewApp creates an App. format is the default output format.
func NewApp(
	sessions *sessionsvc.SessionStore,
	rtr *router.Router,
	facades *api.Facades,
	streams IO,
	format string,
) *App {
	return &App{
		sessions: sessions,
		router:   rtr,
		api:      facades,
		prompt:   NewPrompter(streams.In, streams.ErrOut),
		out:      streams.Out,
		errOut:   streams.ErrOut,
		format:   format,
		log:      logging.GetLogger("cli.app"),
	}
}

// Run executes the command line args (without the program name).
func (a *App) Run(ctx context.Context, args []string) error {
	return a.Root().Execute(ctx, args)
}

// Root returns the command tree.
func (a *App) Root() *Command {
	return &Command{
		Name:        "uwp",
		Summary:     "UnderwritePro command line client",
		Description: "uwp talks to the UnderwritePro backend: loan applications, risk\nassessments, documents and the AI underwriting advisor.",
		Help:        a.errOut,
		Subcommands: []*Command{
			a.loginCommand(),
			a.registerCommand(),
			a.logoutCommand(),
			a.whoamiCommand(),
			a.profileCommand(),
			a.dashboardCommand(),
			a.loansCommand(),
			a.aiCommand(),
			a.riskCommand(),
			a.documentsCommand(),
			a.brokerCommand(),
			a.lenderCommand(),
		},
	}
}

// visit runs render if the guard of path lets the current session through. A
// navigation issued while rendering (a rejected token) is reported to the user.
func (a *App) visit(ctx context.Context, path string, render func(ctx context.Context) error) error {
	route, err := a.router.Resolve(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	if route.Path != path {
		a.log.DebugContext(ctx, "guard redirect", "from", path, "to", route.Path)

		switch route.Path {
		case router.LoginRoute:
			return fmt.Errorf("%w: run 'uwp login' first", ErrLoginRequired)
		case router.DashboardRoute:
			a.notice("already logged in as %s", a.currentEmail())

			return a.visit(ctx, router.DashboardRoute, a.showDashboard)
		default:
			return fmt.Errorf("%s is not available, redirected to %s", path, route.Path)
		}
	}

	err = render(ctx)

	if target, ok := a.router.TakeRedirect(); ok && target == router.LoginRoute {
		a.notice("your session has expired; run 'uwp login' to sign in again")
	}

	return err
}

func (a *App) print(v any) error {
	printer, err := NewPrinter(a.out, a.format)
	if err != nil {
		return err
	}

	return printer.Print(v)
}

func (a *App) notice(format string, args ...any) {
	fmt.Fprintf(a.errOut, format+"\n", args...)
}

func (a *App) currentEmail() string {
	if user := a.sessions.Snapshot().User; user != nil {
		return user.Email
	}

	return "unknown user"
}

// flags creates a flag set with the shared --output flag.
func (a *App) flags(name string, setup func(fs *pflag.FlagSet)) func() *pflag.FlagSet {
	return func() *pflag.FlagSet {
		fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
		fs.StringVarP(&a.format, "output", "o", a.format, "output format (json, yaml)")

		if setup != nil {
			setup(fs)
		}

		return fs
	}
}

func requireArgs(args []string, n int, usage string) error {
	if len(args) != n {
		return fmt.Errorf("%w: expected %s", ErrUsage, usage)
	}

	return nil
}

func idArg(args []string, what string) (domain.ID, error) {
	if err := requireArgs(args, 1, what); err != nil {
		return "", err
	}

	if args[0] == "" {
		return "", fmt.Errorf("%w: empty %s", ErrUsage, what)
	}

	return domain.ID(args[0]), nil
}
