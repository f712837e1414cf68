package api

import (
	"context"
	"fmt"

	"github.com/mkrupp/underwritepro/internal/domain"
)

const (
	pipelinePath  = "/api/lender/pipeline"
	decisionPath  = "/api/lender/decision"
	analyticsPath = "/api/lender/portfolio/analytics"
)

// LenderAPI covers the lender endpoints.
type LenderAPI struct {
	doer Doer
}

// NewLenderAPI creates a LenderAPI.
func NewLenderAPI(doer Doer) *LenderAPI {
	return &LenderAPI{doer: doer}
}

// Pipeline calls GET /api/lender/pipeline.
func (a *LenderAPI) Pipeline(ctx context.Context) (domain.Report, error) {
	var report domain.Report

	if err := get(ctx, a.doer, pipelinePath, nil, &report); err != nil {
		return nil, fmt.Errorf("get pipeline: %w", err)
	}

	return report, nil
}

// Decide calls POST /api/lender/decision.
func (a *LenderAPI) Decide(ctx context.Context, decision domain.LenderDecision) (domain.Report, error) {
	if err := Validate(decision); err != nil {
		return nil, err
	}

	var report domain.Report

	if err := post(ctx, a.doer, decisionPath, decision, &report); err != nil {
		return nil, fmt.Errorf("record decision: %w", err)
	}

	return report, nil
}

// Analytics calls GET /api/lender/portfolio/analytics.
func (a *LenderAPI) Analytics(ctx context.Context) (domain.Report, error) {
	var report domain.Report

	if err := get(ctx, a.doer, analyticsPath, nil, &report); err != nil {
		return nil, fmt.Errorf("get portfolio analytics: %w", err)
	}

	return report, nil
}
