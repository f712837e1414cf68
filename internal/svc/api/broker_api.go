package api

import (
	"context"
	"fmt"

	"github.com/mkrupp/underwritepro/internal/domain"
)

const (
	lendersPath     = "/api/broker/lenders"
	submitPath      = "/api/broker/submit"
	commissionsPath = "/api/broker/commissions"
)

// BrokerAPI covers the broker endpoints.
type BrokerAPI struct {
	doer Doer
}

// NewBrokerAPI creates a BrokerAPI.
func NewBrokerAPI(doer Doer) *BrokerAPI {
	return &BrokerAPI{doer: doer}
}

// Lenders calls GET /api/broker/lenders.
func (a *BrokerAPI) Lenders(ctx context.Context) ([]domain.Lender, error) {
	var lenders []domain.Lender

	if err := get(ctx, a.doer, lendersPath, nil, &lenders); err != nil {
		return nil, fmt.Errorf("list lenders: %w", err)
	}

	return lenders, nil
}

// Submit calls POST /api/broker/submit.
func (a *BrokerAPI) Submit(ctx context.Context, req domain.SubmissionRequest) (domain.Report, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	var report domain.Report

	if err := post(ctx, a.doer, submitPath, req, &report); err != nil {
		return nil, fmt.Errorf("submit loan: %w", err)
	}

	return report, nil
}

// Commissions calls GET /api/broker/commissions.
func (a *BrokerAPI) Commissions(ctx context.Context) (domain.Report, error) {
	var report domain.Report

	if err := get(ctx, a.doer, commissionsPath, nil, &report); err != nil {
		return nil, fmt.Errorf("get commissions: %w", err)
	}

	return report, nil
}
