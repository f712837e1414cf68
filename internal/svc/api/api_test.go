package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/underwritepro/internal/domain"
	context_ "github.com/mkrupp/underwritepro/internal/infra/context"
	"github.com/mkrupp/underwritepro/internal/svc/api"
	"github.com/mkrupp/underwritepro/internal/svc/gateway"
)

// recordingDoer answers every request with the canned JSON body for its path.
type recordingDoer struct {
	m         sync.Mutex
	responses map[string]string
	requests  []gateway.Request
	anonymous []bool
	err       error
}

func (d *recordingDoer) Do(ctx context.Context, req gateway.Request, result any) error {
	d.m.Lock()
	d.requests = append(d.requests, req)
	d.anonymous = append(d.anonymous, context_.IsAnonymous(ctx))
	body, ok := d.responses[req.Method+" "+req.Path]
	d.m.Unlock()

	if d.err != nil {
		return d.err
	}

	if !ok || result == nil {
		return nil
	}

	return json.Unmarshal([]byte(body), result)
}

func (d *recordingDoer) last() gateway.Request {
	d.m.Lock()
	defer d.m.Unlock()

	return d.requests[len(d.requests)-1]
}

func validApplication() domain.LoanApplication {
	return domain.LoanApplication{
		LoanDetails: domain.LoanDetails{
			LoanType:    "commercial_real_estate",
			LoanAmount:  decimal.NewFromInt(1_500_000),
			LoanPurpose: "acquisition",
			TermMonths:  120,
		},
		BorrowerInfo: domain.BorrowerInfo{
			BorrowerName:  "Acme Holdings",
			BorrowerEmail: "cfo@acme.test",
			BorrowerPhone: "555-0100",
		},
		PropertyDetails: domain.PropertyDetails{
			PropertyType:    "office",
			PropertyAddress: "1 Main St",
			PropertyCity:    "Springfield",
			PropertyState:   "IL",
			PropertyValue:   decimal.NewFromInt(2_000_000),
		},
		FinancialInfo: domain.FinancialInfo{
			AnnualRevenue: decimal.NewFromInt(900_000),
			NetIncome:     decimal.NewNullDecimal(decimal.NewFromInt(250_000)),
		},
	}
}

func TestAuthRequestsAreAnonymous(t *testing.T) {
	t.Parallel()

	doer := &recordingDoer{responses: map[string]string{
		"POST /api/auth/login":    `{"access_token":"tok","user":{"id":1,"email":"a@b.co"}}`,
		"POST /api/auth/register": `{"access_token":"tok2","user":{"id":2,"email":"c@d.co"}}`,
	}}
	auth := api.NewAuthAPI(doer)

	resp, err := auth.Login(context.Background(), domain.Credentials{Email: "a@b.co", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "tok", resp.AccessToken)
	assert.Equal(t, domain.ID("1"), resp.User.ID)

	resp, err = auth.Register(context.Background(), domain.Registration{
		Email: "c@d.co", Password: "longenough", FullName: "C D",
	})
	require.NoError(t, err)
	assert.Equal(t, "tok2", resp.AccessToken)

	assert.Equal(t, []bool{true, true}, doer.anonymous)
}

func TestAuthValidationSkipsNetwork(t *testing.T) {
	t.Parallel()

	doer := &recordingDoer{}
	auth := api.NewAuthAPI(doer)

	_, err := auth.Register(context.Background(), domain.Registration{Email: "nope", Password: "short"})
	require.ErrorIs(t, err, domain.ErrValidation)

	var fields domain.ValidationErrors
	require.ErrorAs(t, err, &fields)
	assert.Equal(t, "must be a valid email address", fields["email"])
	assert.Equal(t, "must be at least 8 characters", fields["password"])
	assert.Equal(t, "is required", fields["full_name"])
	assert.Empty(t, doer.requests)
}

func TestLoanAPI(t *testing.T) {
	t.Parallel()

	doer := &recordingDoer{responses: map[string]string{
		"GET /api/loans":       `[{"id":1,"loan_amount":"100000","status":"pending"}]`,
		"GET /api/loans/1":     `{"id":1,"loan_type":"sba","dscr":1.35}`,
		"POST /api/loans":      `{"id":2,"status":"submitted"}`,
		"PUT /api/loans/2":     `{"id":2,"status":"submitted"}`,
		"GET /api/loans/stats": `{"total_count":3,"total_amount":4500000,"approved":1,"pending":2,"rejected":0}`,
	}}
	loans := api.NewLoanAPI(doer)
	ctx := context.Background()

	list, err := loans.List(ctx, domain.LoanQuery{Status: "pending", Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, decimal.NewFromInt(100000).Equal(list[0].LoanAmount))
	assert.Equal(t, map[string]string{"status": "pending", "limit": "10"}, doer.last().Query)

	loan, err := loans.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "sba", loan.LoanType)
	assert.True(t, loan.DSCR.Valid)

	created, err := loans.Create(ctx, validApplication())
	require.NoError(t, err)
	assert.Equal(t, domain.ID("2"), created.ID)

	_, err = loans.Update(ctx, "2", validApplication())
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, doer.last().Method)

	require.NoError(t, loans.Delete(ctx, "2"))
	assert.Equal(t, gateway.Request{Method: http.MethodDelete, Path: "/api/loans/2"}, doer.last())

	stats, err := loans.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalCount)
	assert.True(t, decimal.NewFromInt(4_500_000).Equal(stats.TotalAmount))
}

func TestLoanCreateRejectsInvalidApplication(t *testing.T) {
	t.Parallel()

	doer := &recordingDoer{}
	app := validApplication()
	app.LoanAmount = decimal.Zero
	app.BorrowerEmail = ""

	_, err := api.NewLoanAPI(doer).Create(context.Background(), app)

	var fields domain.ValidationErrors
	require.ErrorAs(t, err, &fields)
	assert.Equal(t, "must be greater than 0", fields["loan_amount"])
	assert.Equal(t, "is required", fields["borrower_email"])
	assert.Empty(t, doer.requests)
}

func TestValidateStep(t *testing.T) {
	t.Parallel()

	app := validApplication()
	app.PropertyCity = ""

	require.NoError(t, api.ValidateStep(api.StepLoanDetails, app))
	require.NoError(t, api.ValidateStep(api.StepBorrower, app))
	require.NoError(t, api.ValidateStep(api.StepFinancials, app))

	var fields domain.ValidationErrors
	require.ErrorAs(t, api.ValidateStep(api.StepProperty, app), &fields)
	assert.Equal(t, domain.ValidationErrors{"property_city": "is required"}, fields)

	require.ErrorIs(t, api.ValidateStep(9, app), api.ErrUnknownStep)
}

func TestValidateStepNetIncome(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		netIncome decimal.NullDecimal
		wantErr   bool
	}{
		{name: "profitable", netIncome: decimal.NewNullDecimal(decimal.NewFromInt(250_000))},
		{name: "break even", netIncome: decimal.NewNullDecimal(decimal.Zero)},
		{name: "loss", netIncome: decimal.NewNullDecimal(decimal.NewFromInt(-40_000))},
		{name: "missing", netIncome: decimal.NullDecimal{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app := validApplication()
			app.NetIncome = tt.netIncome

			err := api.ValidateStep(api.StepFinancials, app)
			if !tt.wantErr {
				require.NoError(t, err)

				return
			}

			var fields domain.ValidationErrors
			require.ErrorAs(t, err, &fields)
			assert.Equal(t, domain.ValidationErrors{"net_income": "is required"}, fields)
		})
	}
}

func TestAIResponsesAreNormalized(t *testing.T) {
	t.Parallel()

	doer := &recordingDoer{responses: map[string]string{
		"POST /api/ai/ask":  `{"answer":"DSCR is 1.4"}`,
		"POST /api/ai/chat": `{"response":"","message":"Try a shorter term"}`,
	}}
	ai := api.NewAIAPI(doer)
	loanID := domain.ID("7")

	answer, err := ai.Ask(context.Background(), "What is the DSCR?", &loanID)
	require.NoError(t, err)
	assert.Equal(t, "DSCR is 1.4", answer.Answer)

	body, ok := doer.last().Body.(domain.AskRequest)
	require.True(t, ok)
	assert.Equal(t, &loanID, body.LoanID)

	answer, err = ai.Chat(context.Background(), "Any advice?", nil)
	require.NoError(t, err)
	assert.Equal(t, "Try a shorter term", answer.Answer)

	chat, ok := doer.last().Body.(domain.ChatRequest)
	require.True(t, ok)
	assert.NotNil(t, chat.ConversationHistory, "history is sent as an empty list")

	_, err = ai.Ask(context.Background(), "", nil)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestRiskAssess(t *testing.T) {
	t.Parallel()

	doer := &recordingDoer{responses: map[string]string{
		"POST /api/underwriting/assess-risk/12": `{"risk_rating":"B","risk_score":72.5,"dscr":1.31,"factors":["tenant mix"]}`,
	}}

	assessment, err := api.NewRiskAPI(doer).Assess(context.Background(), "12")
	require.NoError(t, err)
	assert.Equal(t, domain.ID("12"), assessment.LoanID)
	assert.Equal(t, "B", assessment.RiskRating)
	assert.True(t, decimal.NewFromFloat(72.5).Equal(assessment.RiskScore.Decimal))
	assert.False(t, assessment.LTV.Valid)
	assert.Contains(t, string(assessment.Report), "tenant mix")
}

func TestBrokerAndLenderAPI(t *testing.T) {
	t.Parallel()

	doer := &recordingDoer{responses: map[string]string{
		"GET /api/broker/lenders":             `[{"id":"l1","name":"First Bank"}]`,
		"POST /api/broker/submit":             `{"submission_id":9}`,
		"GET /api/broker/commissions":         `{"total":1200}`,
		"GET /api/lender/pipeline":            `[{"loan_id":3}]`,
		"POST /api/lender/decision":           `{"ok":true}`,
		"GET /api/lender/portfolio/analytics": `{"approval_rate":0.4}`,
	}}
	ctx := context.Background()
	broker := api.NewBrokerAPI(doer)
	lender := api.NewLenderAPI(doer)

	lenders, err := broker.Lenders(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Lender{{ID: "l1", Name: "First Bank"}}, lenders)

	report, err := broker.Submit(ctx, domain.SubmissionRequest{LoanID: "3", LenderID: "l1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"submission_id":9}`, string(report))

	report, err = broker.Commissions(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":1200}`, string(report))

	report, err = lender.Pipeline(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"loan_id":3}]`, string(report))

	_, err = lender.Decide(ctx, domain.LenderDecision{LoanID: "3", Decision: "maybe"})

	var fields domain.ValidationErrors
	require.ErrorAs(t, err, &fields)
	assert.Equal(t, "must be one of: approve, decline, counter", fields["decision"])

	report, err = lender.Decide(ctx, domain.LenderDecision{LoanID: "3", Decision: domain.DecisionApprove, Notes: "ok"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(report))

	report, err = lender.Analytics(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"approval_rate":0.4}`, string(report))
}

func TestDashboardLoadsThroughGateway(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/api/loans/stats":
			_, _ = io.WriteString(w, `{"total_count":2,"total_amount":"300000","approved":1,"pending":1}`)
		case "/api/loans":
			assert.Equal(t, "5", r.URL.Query().Get("limit"))
			assert.Equal(t, "-created_at", r.URL.Query().Get("sort"))
			_, _ = io.WriteString(w, `[{"id":1},{"id":2}]`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	client := gateway.NewClient(gateway.ClientConfig{BaseURL: srv.URL}, srv.Client(), nil)
	facades := api.New(client, api.Config{})

	dashboard, err := facades.Dashboard.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, dashboard.Stats.TotalCount)
	assert.Len(t, dashboard.RecentLoans, 2)
}

func TestDashboardFailsWhenEitherCallFails(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if r.URL.Path == "/api/loans/stats" {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"detail":"stats unavailable"}`)

			return
		}

		_, _ = io.WriteString(w, `[]`)
	}))
	t.Cleanup(srv.Close)

	client := gateway.NewClient(gateway.ClientConfig{BaseURL: srv.URL}, srv.Client(), nil)

	_, err := api.New(client, api.Config{}).Dashboard.Load(context.Background())

	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "stats unavailable", apiErr.Detail)
}
