package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/mkrupp/underwritepro/internal/domain"
	"github.com/mkrupp/underwritepro/internal/svc/api"
	"github.com/mkrupp/underwritepro/internal/svc/router"
)

func (a *App) dashboardCommand() *Command {
	return &Command{
		Name:    "dashboard",
		Summary: "Show portfolio stats and the latest loans",
		Flags:   a.flags("dashboard", nil),
		Run: func(ctx context.Context, _ []string) error {
			return a.visit(ctx, router.DashboardRoute, a.showDashboard)
		},
	}
}

func (a *App) showDashboard(ctx context.Context) error {
	dashboard, err := a.api.Dashboard.Load(ctx)
	if err != nil {
		return userFacingError(err, "Failed to load dashboard")
	}

	return a.print(dashboard)
}

func (a *App) loansCommand() *Command {
	return &Command{
		Name:    "loans",
		Summary: "Manage loan applications",
		Subcommands: []*Command{
			a.loansListCommand(),
			a.loansGetCommand(),
			a.loansCreateCommand(),
			a.loansUpdateCommand(),
			a.loansDeleteCommand(),
			a.loansStatsCommand(),
		},
	}
}

func (a *App) loansListCommand() *Command {
	var query domain.LoanQuery

	return &Command{
		Name:    "list",
		Summary: "List loan applications",
		Flags: a.flags("list", func(fs *pflag.FlagSet) {
			fs.StringVar(&query.Status, "status", "", "filter by status")
			fs.StringVar(&query.Search, "search", "", "search borrower and property")
			fs.StringVar(&query.Sort, "sort", "", "sort field, prefix with - for descending")
			fs.IntVar(&query.Limit, "limit", 0, "maximum number of loans")
			fs.IntVar(&query.Skip, "skip", 0, "number of loans to skip")
		}),
		Run: func(ctx context.Context, _ []string) error {
			return a.visit(ctx, router.LoansRoute, func(ctx context.Context) error {
				loans, err := a.api.Loans.List(ctx, query)
				if err != nil {
					return userFacingError(err, "Failed to load loans")
				}

				return a.print(loans)
			})
		},
	}
}

func (a *App) loansGetCommand() *Command {
	return &Command{
		Name:    "get",
		Summary: "Show one loan application",
		Usage:   "uwp loans get <loan-id>",
		Flags:   a.flags("get", nil),
		Run: func(ctx context.Context, args []string) error {
			id, err := idArg(args, "<loan-id>")
			if err != nil {
				return err
			}

			return a.visit(ctx, router.LoansRoute, func(ctx context.Context) error {
				loan, err := a.api.Loans.Get(ctx, id)
				if err != nil {
					return userFacingError(err, "Failed to load loan")
				}

				return a.print(loan)
			})
		},
	}
}

func (a *App) loansCreateCommand() *Command {
	var file string

	return &Command{
		Name:        "create",
		Summary:     "Submit a new loan application",
		Description: "Submit a new loan application, read from a JSON or YAML file or\nentered step by step when no file is given.",
		Flags: a.flags("create", func(fs *pflag.FlagSet) {
			fs.StringVarP(&file, "file", "f", "", "application file (JSON or YAML, - for stdin)")
		}),
		Run: func(ctx context.Context, _ []string) error {
			return a.visit(ctx, router.NewLoanRoute, func(ctx context.Context) error {
				var (
					app domain.LoanApplication
					err error
				)

				if file != "" {
					app, err = a.readApplication(file)
				} else {
					app, err = a.loanWizard()
				}

				if err != nil {
					return err
				}

				loan, err := a.api.Loans.Create(ctx, app)
				if err != nil {
					return userFacingError(err, "Failed to create loan application. Please try again.")
				}

				return a.print(loan)
			})
		},
	}
}

func (a *App) loansUpdateCommand() *Command {
	var file string

	return &Command{
		Name:    "update",
		Summary: "Replace a loan application",
		Usage:   "uwp loans update <loan-id> --file <application>",
		Flags: a.flags("update", func(fs *pflag.FlagSet) {
			fs.StringVarP(&file, "file", "f", "", "application file (JSON or YAML, - for stdin)")
		}),
		Run: func(ctx context.Context, args []string) error {
			id, err := idArg(args, "<loan-id>")
			if err != nil {
				return err
			}

			if file == "" {
				return fmt.Errorf("%w: --file is required", ErrUsage)
			}

			return a.visit(ctx, router.LoansRoute, func(ctx context.Context) error {
				app, err := a.readApplication(file)
				if err != nil {
					return err
				}

				loan, err := a.api.Loans.Update(ctx, id, app)
				if err != nil {
					return userFacingError(err, "Failed to update loan")
				}

				return a.print(loan)
			})
		},
	}
}

func (a *App) loansDeleteCommand() *Command {
	return &Command{
		Name:    "delete",
		Summary: "Delete a loan application",
		Usage:   "uwp loans delete <loan-id>",
		Run: func(ctx context.Context, args []string) error {
			id, err := idArg(args, "<loan-id>")
			if err != nil {
				return err
			}

			return a.visit(ctx, router.LoansRoute, func(ctx context.Context) error {
				if err := a.api.Loans.Delete(ctx, id); err != nil {
					return userFacingError(err, "Failed to delete loan")
				}

				a.notice("loan %s deleted", id)

				return nil
			})
		},
	}
}

func (a *App) loansStatsCommand() *Command {
	return &Command{
		Name:    "stats",
		Summary: "Show portfolio statistics",
		Flags:   a.flags("stats", nil),
		Run: func(ctx context.Context, _ []string) error {
			return a.visit(ctx, router.LoansRoute, func(ctx context.Context) error {
				stats, err := a.api.Loans.Stats(ctx)
				if err != nil {
					return userFacingError(err, "Failed to load stats")
				}

				return a.print(stats)
			})
		},
	}
}

// readApplication decodes a loan application from a JSON or YAML file. YAML is
// converted to JSON first so the json tags and decimal decoding apply.
func (a *App) readApplication(file string) (domain.LoanApplication, error) {
	var (
		data []byte
		err  error
	)

	if file == "-" {
		data, err = io.ReadAll(a.prompt.in)
	} else {
		data, err = os.ReadFile(file)
	}

	if err != nil {
		return domain.LoanApplication{}, fmt.Errorf("read application: %w", err)
	}

	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return domain.LoanApplication{}, fmt.Errorf("parse application: %w", err)
	}

	encoded, err := json.Marshal(generic)
	if err != nil {
		return domain.LoanApplication{}, fmt.Errorf("encode application: %w", err)
	}

	var app domain.LoanApplication
	if err := json.Unmarshal(encoded, &app); err != nil {
		return domain.LoanApplication{}, fmt.Errorf("decode application: %w", err)
	}

	return app, nil
}

type wizardField struct {
	label string
	set   func(app *domain.LoanApplication, value string) error
}

type wizardStep struct {
	title  string
	fields []wizardField
}

func textField(label string, target func(app *domain.LoanApplication) *string) wizardField {
	return wizardField{label: label, set: func(app *domain.LoanApplication, value string) error {
		*target(app) = value

		return nil
	}}
}

func decimalField(label string, target func(app *domain.LoanApplication) *decimal.Decimal) wizardField {
	return wizardField{label: label, set: func(app *domain.LoanApplication, value string) error {
		if value == "" {
			*target(app) = decimal.Zero

			return nil
		}

		d, err := decimal.NewFromString(strings.ReplaceAll(value, ",", ""))
		if err != nil {
			return fmt.Errorf("not a number: %q", value)
		}

		*target(app) = d

		return nil
	}}
}

func optionalDecimalField(label string, target func(app *domain.LoanApplication) *decimal.NullDecimal) wizardField {
	return wizardField{label: label, set: func(app *domain.LoanApplication, value string) error {
		if value == "" {
			*target(app) = decimal.NullDecimal{}

			return nil
		}

		d, err := decimal.NewFromString(strings.ReplaceAll(value, ",", ""))
		if err != nil {
			return fmt.Errorf("not a number: %q", value)
		}

		*target(app) = decimal.NewNullDecimal(d)

		return nil
	}}
}

func intField(label string, target func(app *domain.LoanApplication) *int) wizardField {
	return wizardField{label: label, set: func(app *domain.LoanApplication, value string) error {
		if value == "" {
			*target(app) = 0

			return nil
		}

		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("not a whole number: %q", value)
		}

		*target(app) = n

		return nil
	}}
}

//nolint:gochecknoglobals
var wizardSteps = []wizardStep{
	{title: "Loan details", fields: []wizardField{
		textField("Loan type", func(a *domain.LoanApplication) *string { return &a.LoanType }),
		decimalField("Loan amount", func(a *domain.LoanApplication) *decimal.Decimal { return &a.LoanAmount }),
		textField("Loan purpose", func(a *domain.LoanApplication) *string { return &a.LoanPurpose }),
		intField("Term (months)", func(a *domain.LoanApplication) *int { return &a.TermMonths }),
	}},
	{title: "Borrower", fields: []wizardField{
		textField("Borrower name", func(a *domain.LoanApplication) *string { return &a.BorrowerName }),
		textField("Company", func(a *domain.LoanApplication) *string { return &a.BorrowerCompany }),
		textField("Email", func(a *domain.LoanApplication) *string { return &a.BorrowerEmail }),
		textField("Phone", func(a *domain.LoanApplication) *string { return &a.BorrowerPhone }),
		intField("Credit score", func(a *domain.LoanApplication) *int { return &a.BorrowerCreditScore }),
		intField("Years in business", func(a *domain.LoanApplication) *int { return &a.YearsInBusiness }),
	}},
	{title: "Property", fields: []wizardField{
		textField("Property type", func(a *domain.LoanApplication) *string { return &a.PropertyType }),
		textField("Address", func(a *domain.LoanApplication) *string { return &a.PropertyAddress }),
		textField("City", func(a *domain.LoanApplication) *string { return &a.PropertyCity }),
		textField("State", func(a *domain.LoanApplication) *string { return &a.PropertyState }),
		textField("ZIP", func(a *domain.LoanApplication) *string { return &a.PropertyZip }),
		decimalField("Property value", func(a *domain.LoanApplication) *decimal.Decimal { return &a.PropertyValue }),
		optionalDecimalField("Purchase price", func(a *domain.LoanApplication) *decimal.NullDecimal { return &a.PurchasePrice }),
	}},
	{title: "Financials", fields: []wizardField{
		decimalField("Annual revenue", func(a *domain.LoanApplication) *decimal.Decimal { return &a.AnnualRevenue }),
		optionalDecimalField("Net income", func(a *domain.LoanApplication) *decimal.NullDecimal { return &a.NetIncome }),
		optionalDecimalField("Monthly debt service", func(a *domain.LoanApplication) *decimal.NullDecimal { return &a.MonthlyDebtService }),
		optionalDecimalField("Down payment", func(a *domain.LoanApplication) *decimal.NullDecimal { return &a.DownPayment }),
	}},
}

// loanWizard collects an application step by step. A step is repeated until it
// validates; nothing is sent before the last step passed.
func (a *App) loanWizard() (domain.LoanApplication, error) {
	var app domain.LoanApplication

	for i, step := range wizardSteps {
		for {
			a.notice("Step %d of %d: %s", i+1, len(wizardSteps), step.title)

			if err := a.promptStep(&app, step); err != nil {
				return domain.LoanApplication{}, err
			}

			err := api.ValidateStep(i+1, app)
			if err == nil {
				break
			}

			var fields domain.ValidationErrors
			if !errors.As(err, &fields) {
				return domain.LoanApplication{}, err
			}

			a.notice("Please correct: %s", fields.Error())
		}
	}

	return app, nil
}

func (a *App) promptStep(app *domain.LoanApplication, step wizardStep) error {
	for _, field := range step.fields {
		for {
			value, err := a.prompt.Line("  " + field.label + ": ")
			if err != nil {
				return err
			}

			if err := field.set(app, strings.TrimSpace(value)); err != nil {
				a.notice("  %v", err)

				continue
			}

			break
		}
	}

	return nil
}
