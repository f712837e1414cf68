package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mkrupp/underwritepro/internal/domain"
)

const assessRiskPath = "/api/underwriting/assess-risk"

// RiskAPI triggers backend risk assessments.
type RiskAPI struct {
	doer Doer
}

// NewRiskAPI creates a RiskAPI.
func NewRiskAPI(doer Doer) *RiskAPI {
	return &RiskAPI{doer: doer}
}

// Assess calls POST /api/underwriting/assess-risk/{loanId}. The full body is kept in
// RiskAssessment.Report alongside the typed headline figures.
func (a *RiskAPI) Assess(ctx context.Context, loanID domain.ID) (*domain.RiskAssessment, error) {
	var raw domain.Report

	if err := post(ctx, a.doer, idPath(assessRiskPath, loanID), nil, &raw); err != nil {
		return nil, fmt.Errorf("assess risk: %w", err)
	}

	var assessment domain.RiskAssessment

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &assessment); err != nil {
			return nil, fmt.Errorf("decode risk assessment: %w", err)
		}
	}

	if assessment.LoanID == "" {
		assessment.LoanID = loanID
	}

	assessment.Report = raw

	return &assessment, nil
}
