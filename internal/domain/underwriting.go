package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// RiskAssessment is the body of POST /api/underwriting/assess-risk/{loanId}.
// Only the headline figures are typed; the rest of the report is kept verbatim.
type RiskAssessment struct {
	LoanID     ID                  `json:"loan_id,omitempty"`
	RiskRating string              `json:"risk_rating,omitempty"`
	RiskScore  decimal.NullDecimal `json:"risk_score"`
	DSCR       decimal.NullDecimal `json:"dscr"`
	LTV        decimal.NullDecimal `json:"ltv"`
	Report     json.RawMessage     `json:"report,omitempty"`
}
