package domain

import (
	"encoding/json"
	"errors"
)

var (
	// ErrInvalidDocument is returned when an upload fails the local preflight checks.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrDocumentTypeNotSupported is returned for files whose content type is not accepted.
	ErrDocumentTypeNotSupported = errors.New("document type not supported")
)

// Document types accepted by POST /api/documents/upload.
const (
	DocumentTypeTaxReturn        = "tax_return"
	DocumentTypeFinancialStmt    = "financial_statement"
	DocumentTypeBankStatement    = "bank_statement"
	DocumentTypeRentRoll         = "rent_roll"
	DocumentTypeAppraisal        = "appraisal"
	DocumentTypePurchaseContract = "purchase_contract"
	DocumentTypeOther            = "other"
)

// Document is an uploaded file attached to a loan application.
type Document struct {
	ID                ID              `json:"id"`
	LoanApplicationID ID              `json:"loan_application_id,omitempty"`
	DocumentType      string          `json:"document_type,omitempty"`
	Filename          string          `json:"filename,omitempty"`
	ContentType       string          `json:"content_type,omitempty"`
	Size              int64           `json:"size,omitempty"`
	Extra             json.RawMessage `json:"extracted_data,omitempty"`
}

// DocumentInfo is what the local preflight learned about a file before upload.
type DocumentInfo struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
}
