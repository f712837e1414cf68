package domain

import "encoding/json"

// Lender decisions accepted by POST /api/lender/decision.
const (
	DecisionApprove = "approve"
	DecisionDecline = "decline"
	DecisionCounter = "counter"
)

// Lender is an entry of GET /api/broker/lenders.
type Lender struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// SubmissionRequest is the payload of POST /api/broker/submit.
type SubmissionRequest struct {
	LoanID   ID `json:"loan_id"   validate:"required"`
	LenderID ID `json:"lender_id" validate:"required"`
}

// LenderDecision is the payload of POST /api/lender/decision.
type LenderDecision struct {
	LoanID   ID     `json:"loan_id"  validate:"required"`
	Decision string `json:"decision" validate:"required,oneof=approve decline counter"`
	Notes    string `json:"notes"`
}

// Report is an endpoint-specific JSON body the client does not interpret.
type Report = json.RawMessage
