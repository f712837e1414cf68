package api

import (
	"context"
	"fmt"

	"github.com/mkrupp/underwritepro/internal/domain"
)

const (
	loansPath     = "/api/loans"
	loanStatsPath = "/api/loans/stats"
)

// LoanAPI covers the loan application endpoints.
type LoanAPI struct {
	doer Doer
}

// NewLoanAPI creates a LoanAPI.
func NewLoanAPI(doer Doer) *LoanAPI {
	return &LoanAPI{doer: doer}
}

// List calls GET /api/loans with the filter, sort and paging parameters of q.
func (a *LoanAPI) List(ctx context.Context, q domain.LoanQuery) ([]domain.Loan, error) {
	var loans []domain.Loan

	if err := get(ctx, a.doer, loansPath, q.Params(), &loans); err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}

	return loans, nil
}

// Get calls GET /api/loans/{id}.
func (a *LoanAPI) Get(ctx context.Context, id domain.ID) (*domain.Loan, error) {
	var loan domain.Loan

	if err := get(ctx, a.doer, idPath(loansPath, id), nil, &loan); err != nil {
		return nil, fmt.Errorf("get loan: %w", err)
	}

	return &loan, nil
}

// Create validates app and calls POST /api/loans.
func (a *LoanAPI) Create(ctx context.Context, app domain.LoanApplication) (*domain.Loan, error) {
	if err := Validate(app); err != nil {
		return nil, err
	}

	var loan domain.Loan

	if err := post(ctx, a.doer, loansPath, app, &loan); err != nil {
		return nil, fmt.Errorf("create loan: %w", err)
	}

	return &loan, nil
}

// Update validates app and calls PUT /api/loans/{id}.
func (a *LoanAPI) Update(ctx context.Context, id domain.ID, app domain.LoanApplication) (*domain.Loan, error) {
	if err := Validate(app); err != nil {
		return nil, err
	}

	var loan domain.Loan

	if err := put(ctx, a.doer, idPath(loansPath, id), app, &loan); err != nil {
		return nil, fmt.Errorf("update loan: %w", err)
	}

	return &loan, nil
}

// Delete calls DELETE /api/loans/{id}.
func (a *LoanAPI) Delete(ctx context.Context, id domain.ID) error {
	if err := del(ctx, a.doer, idPath(loansPath, id)); err != nil {
		return fmt.Errorf("delete loan: %w", err)
	}

	return nil
}

// Stats calls GET /api/loans/stats.
func (a *LoanAPI) Stats(ctx context.Context) (*domain.LoanStats, error) {
	var stats domain.LoanStats

	if err := get(ctx, a.doer, loanStatsPath, nil, &stats); err != nil {
		return nil, fmt.Errorf("get loan stats: %w", err)
	}

	return &stats, nil
}
