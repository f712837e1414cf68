package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/mkrupp/underwritepro/internal/domain"
	"github.com/mkrupp/underwritepro/internal/svc/api"
	"github.com/mkrupp/underwritepro/internal/svc/router"
)

func (a *App) riskCommand() *Command {
	assess := &Command{
		Name:    "assess",
		Summary: "Run a risk assessment for a loan",
		Usage:   "uwp risk assess <loan-id>",
		Flags:   a.flags("assess", nil),
		Run: func(ctx context.Context, args []string) error {
			id, err := idArg(args, "<loan-id>")
			if err != nil {
				return err
			}

			return a.visit(ctx, router.LoansRoute, func(ctx context.Context) error {
				assessment, err := a.api.Risk.Assess(ctx, id)
				if err != nil {
					return userFacingError(err, "Risk assessment failed")
				}

				return a.print(assessment)
			})
		},
	}

	return &Command{
		Name:        "risk",
		Summary:     "Underwriting risk assessment",
		Subcommands: []*Command{assess},
	}
}

func (a *App) documentsCommand() *Command {
	var (
		uploadLoan   string
		documentType string
		listLoan     string
	)

	upload := &Command{
		Name:    "upload",
		Summary: "Attach a document to a loan",
		Usage:   "uwp documents upload --loan <loan-id> --type <document-type> <file>",
		Flags: a.flags("upload", func(fs *pflag.FlagSet) {
			fs.StringVar(&uploadLoan, "loan", "", "loan application id")
			fs.StringVar(&documentType, "type", domain.DocumentTypeOther, "document type")
		}),
		Run: func(ctx context.Context, args []string) error {
			if err := requireArgs(args, 1, "<file>"); err != nil {
				return err
			}

			return a.visit(ctx, router.LoansRoute, func(ctx context.Context) error {
				file, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open document: %w", err)
				}
				defer file.Close()

				document, err := a.api.Documents.Upload(ctx, api.DocumentUpload{
					LoanID:       domain.ID(uploadLoan),
					DocumentType: documentType,
					Filename:     filepath.Base(args[0]),
					Content:      file,
				})
				if err != nil {
					return userFacingError(err, "Upload failed")
				}

				return a.print(document)
			})
		},
	}

	list := &Command{
		Name:    "list",
		Summary: "List the documents of a loan",
		Flags: a.flags("list", func(fs *pflag.FlagSet) {
			fs.StringVar(&listLoan, "loan", "", "loan application id")
		}),
		Run: func(ctx context.Context, _ []string) error {
			if listLoan == "" {
				return fmt.Errorf("%w: --loan is required", ErrUsage)
			}

			return a.visit(ctx, router.LoansRoute, func(ctx context.Context) error {
				documents, err := a.api.Documents.ListByLoan(ctx, domain.ID(listLoan))
				if err != nil {
					return userFacingError(err, "Failed to load documents")
				}

				return a.print(documents)
			})
		},
	}

	return &Command{
		Name:        "documents",
		Summary:     "Loan documents",
		Subcommands: []*Command{upload, list},
	}
}

func (a *App) brokerCommand() *Command {
	var submission domain.SubmissionRequest

	lenders := a.reportCommand("lenders", "List available lenders", func(ctx context.Context) (any, error) {
		return a.api.Broker.Lenders(ctx)
	})

	commissions := a.reportCommand("commissions", "Show the commission report", func(ctx context.Context) (any, error) {
		return a.api.Broker.Commissions(ctx)
	})

	submit := &Command{
		Name:    "submit",
		Summary: "Submit a loan to a lender",
		Flags: a.flags("submit", func(fs *pflag.FlagSet) {
			fs.Var(idValue{&submission.LoanID}, "loan", "loan application id")
			fs.Var(idValue{&submission.LenderID}, "lender", "lender id")
		}),
		Run: func(ctx context.Context, _ []string) error {
			return a.visit(ctx, router.DashboardRoute, func(ctx context.Context) error {
				report, err := a.api.Broker.Submit(ctx, submission)
				if err != nil {
					return userFacingError(err, "Submission failed")
				}

				return a.print(report)
			})
		},
	}

	return &Command{
		Name:        "broker",
		Summary:     "Broker workflows",
		Subcommands: []*Command{lenders, submit, commissions},
	}
}

func (a *App) lenderCommand() *Command {
	var decision domain.LenderDecision

	pipeline := a.reportCommand("pipeline", "Show the incoming pipeline", func(ctx context.Context) (any, error) {
		return a.api.Lender.Pipeline(ctx)
	})

	analytics := a.reportCommand("analytics", "Show portfolio analytics", func(ctx context.Context) (any, error) {
		return a.api.Lender.Analytics(ctx)
	})

	decide := &Command{
		Name:    "decide",
		Summary: "Record a decision on a loan",
		Flags: a.flags("decide", func(fs *pflag.FlagSet) {
			fs.Var(idValue{&decision.LoanID}, "loan", "loan application id")
			fs.StringVar(&decision.Decision, "decision", "", "approve, decline or counter")
			fs.StringVar(&decision.Notes, "notes", "", "notes for the broker")
		}),
		Run: func(ctx context.Context, _ []string) error {
			return a.visit(ctx, router.DashboardRoute, func(ctx context.Context) error {
				report, err := a.api.Lender.Decide(ctx, decision)
				if err != nil {
					return userFacingError(err, "Failed to record decision")
				}

				return a.print(report)
			})
		},
	}

	return &Command{
		Name:        "lender",
		Summary:     "Lender workflows",
		Subcommands: []*Command{pipeline, decide, analytics},
	}
}

// reportCommand builds a leaf command that prints the result of fetch.
func (a *App) reportCommand(name, summary string, fetch func(ctx context.Context) (any, error)) *Command {
	return &Command{
		Name:    name,
		Summary: summary,
		Flags:   a.flags(name, nil),
		Run: func(ctx context.Context, _ []string) error {
			return a.visit(ctx, router.DashboardRoute, func(ctx context.Context) error {
				result, err := fetch(ctx)
				if err != nil {
					return userFacingError(err, "Request failed")
				}

				return a.print(result)
			})
		},
	}
}

// idValue adapts a domain.ID to pflag.Value.
type idValue struct {
	id *domain.ID
}

func (v idValue) String() string {
	if v.id == nil {
		return ""
	}

	return v.id.String()
}

func (v idValue) Set(s string) error {
	*v.id = domain.ID(s)

	return nil
}

func (v idValue) Type() string {
	return "id"
}
