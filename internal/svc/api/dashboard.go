package api

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/mkrupp/underwritepro/internal/domain"
)

// RecentLoansLimit is the number of loans shown on the dashboard.
const RecentLoansLimit = 5

// Dashboard is the portfolio summary with the most recent loans.
type Dashboard struct {
	Stats       domain.LoanStats `json:"stats"`
	RecentLoans []domain.Loan    `json:"recent_loans"`
}

// DashboardAPI loads the dashboard.
type DashboardAPI struct {
	loans *LoanAPI
}

// NewDashboardAPI creates a DashboardAPI.
func NewDashboardAPI(loans *LoanAPI) *DashboardAPI {
	return &DashboardAPI{loans: loans}
}

// Load fetches the stats and the newest loans concurrently. Both must succeed.
func (a *DashboardAPI) Load(ctx context.Context) (*Dashboard, error) {
	var (
		stats *domain.LoanStats
		loans []domain.Loan
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		stats, err = a.loans.Stats(gctx)

		return err
	})

	g.Go(func() error {
		var err error
		loans, err = a.loans.List(gctx, domain.LoanQuery{Limit: RecentLoansLimit, Sort: "-created_at"})

		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load dashboard: %w", err)
	}

	if loans == nil {
		loans = []domain.Loan{}
	}

	return &Dashboard{Stats: *stats, RecentLoans: loans}, nil
}
