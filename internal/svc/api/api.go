// Package api holds the typed facades over the backend endpoints. Every facade sends
// its requests through the gateway client, so token injection and forced logout apply
// uniformly.
package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/mkrupp/underwritepro/internal/domain"
	"github.com/mkrupp/underwritepro/internal/svc/gateway"
)

// Doer executes backend requests. *gateway.Client implements it.
type Doer interface {
	Do(ctx context.Context, req gateway.Request, result any) error
}

var _ Doer = (*gateway.Client)(nil)

// Facades bundles one instance of every facade over the same client.
type Facades struct {
	Auth      *AuthAPI
	Loans     *LoanAPI
	AI        *AIAPI
	Risk      *RiskAPI
	Documents *DocumentAPI
	Broker    *BrokerAPI
	Lender    *LenderAPI
	Dashboard *DashboardAPI
}

// New creates all facades over doer.
func New(doer Doer, cfg Config) *Facades {
	loans := NewLoanAPI(doer)

	return &Facades{
		Auth:      NewAuthAPI(doer),
		Loans:     loans,
		AI:        NewAIAPI(doer),
		Risk:      NewRiskAPI(doer),
		Documents: NewDocumentAPI(doer, cfg.Documents),
		Broker:    NewBrokerAPI(doer),
		Lender:    NewLenderAPI(doer),
		Dashboard: NewDashboardAPI(loans),
	}
}

// Config holds configuration of the facades.
type Config struct {
	Documents DocumentConfig `envPrefix:"DOCUMENTS_"`
}

func get(ctx context.Context, doer Doer, path string, query map[string]string, result any) error {
	return doer.Do(ctx, gateway.Request{Method: http.MethodGet, Path: path, Query: query}, result)
}

func post(ctx context.Context, doer Doer, path string, body, result any) error {
	return doer.Do(ctx, gateway.Request{Method: http.MethodPost, Path: path, Body: body}, result)
}

func put(ctx context.Context, doer Doer, path string, body, result any) error {
	return doer.Do(ctx, gateway.Request{Method: http.MethodPut, Path: path, Body: body}, result)
}

func del(ctx context.Context, doer Doer, path string) error {
	return doer.Do(ctx, gateway.Request{Method: http.MethodDelete, Path: path}, nil)
}

func idPath(prefix string, id domain.ID) string {
	return prefix + "/" + url.PathEscape(id.String())
}
