package domain

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// LoanDetails is the first step of the loan application wizard.
type LoanDetails struct {
	LoanType    string          `json:"loan_type"    validate:"required"`
	LoanAmount  decimal.Decimal `json:"loan_amount"  validate:"gt=0"`
	LoanPurpose string          `json:"loan_purpose" validate:"required"`
	TermMonths  int             `json:"term_months"  validate:"gt=0"`
}

// BorrowerInfo is the second step of the loan application wizard.
type BorrowerInfo struct {
	BorrowerName        string `json:"borrower_name"                   validate:"required"`
	BorrowerCompany     string `json:"borrower_company,omitempty"`
	BorrowerEmail       string `json:"borrower_email"                  validate:"required,email"`
	BorrowerPhone       string `json:"borrower_phone"                  validate:"required"`
	BorrowerCreditScore int    `json:"borrower_credit_score,omitempty" validate:"omitempty,min=300,max=850"`
	YearsInBusiness     int    `json:"years_in_business,omitempty"     validate:"omitempty,min=0"`
}

// PropertyDetails is the third step of the loan application wizard.
type PropertyDetails struct {
	PropertyType    string              `json:"property_type"    validate:"required"`
	PropertyAddress string              `json:"property_address" validate:"required"`
	PropertyCity    string              `json:"property_city"    validate:"required"`
	PropertyState   string              `json:"property_state"   validate:"required"`
	PropertyZip     string              `json:"property_zip,omitempty"`
	PropertyValue   decimal.Decimal     `json:"property_value"   validate:"gt=0"`
	PurchasePrice   decimal.NullDecimal `json:"purchase_price"`
}

// FinancialInfo is the fourth step of the loan application wizard.
type FinancialInfo struct {
	AnnualRevenue      decimal.Decimal     `json:"annual_revenue"       validate:"gt=0"`
	NetIncome          decimal.NullDecimal `json:"net_income"           validate:"required"`
	MonthlyDebtService decimal.NullDecimal `json:"monthly_debt_service"`
	DownPayment        decimal.NullDecimal `json:"down_payment"`
}

// LoanApplication is the payload of POST /api/loans and PUT /api/loans/{id}.
type LoanApplication struct {
	LoanDetails
	BorrowerInfo
	PropertyDetails
	FinancialInfo
}

// Loan is a loan application as returned by the backend.
type Loan struct {
	ID ID `json:"id"`

	LoanApplication

	CompanyName string              `json:"company_name,omitempty"`
	Status      string              `json:"status,omitempty"`
	RiskRating  string              `json:"risk_rating,omitempty"`
	DSCR        decimal.NullDecimal `json:"dscr"`
	LTV         decimal.NullDecimal `json:"ltv"`
	CreatedAt   *time.Time          `json:"created_at,omitempty"`
}

// LoanStats is the aggregate portfolio summary of GET /api/loans/stats.
type LoanStats struct {
	TotalCount  int             `json:"total_count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Approved    int             `json:"approved"`
	Pending     int             `json:"pending"`
	Rejected    int             `json:"rejected"`
}

// LoanQuery holds the filter, sort and paging parameters of GET /api/loans.
type LoanQuery struct {
	Status string
	Search string
	Sort   string
	Limit  int
	Skip   int
}

// Params encodes the query as request parameters, omitting unset values.
func (q LoanQuery) Params() map[string]string {
	params := make(map[string]string)

	if q.Status != "" {
		params["status"] = q.Status
	}

	if q.Search != "" {
		params["search"] = q.Search
	}

	if q.Sort != "" {
		params["sort"] = q.Sort
	}

	if q.Limit > 0 {
		params["limit"] = strconv.Itoa(q.Limit)
	}

	if q.Skip > 0 {
		params["skip"] = strconv.Itoa(q.Skip)
	}

	return params
}
