package api

import (
	"context"
	"fmt"

	"github.com/mkrupp/underwritepro/internal/domain"
)

const (
	askPath  = "/api/ai/ask"
	chatPath = "/api/ai/chat"
)

// AIAPI covers the advisor endpoints. Both normalize the reply to domain.AIAnswer.
type AIAPI struct {
	doer Doer
}

// NewAIAPI creates an AIAPI.
func NewAIAPI(doer Doer) *AIAPI {
	return &AIAPI{doer: doer}
}

// Ask calls POST /api/ai/ask. loanID may be nil.
func (a *AIAPI) Ask(ctx context.Context, question string, loanID *domain.ID) (*domain.AIAnswer, error) {
	req := domain.AskRequest{Question: question, LoanID: loanID}
	if err := Validate(req); err != nil {
		return nil, err
	}

	var resp domain.AIResponse

	if err := post(ctx, a.doer, askPath, req, &resp); err != nil {
		return nil, fmt.Errorf("ask advisor: %w", err)
	}

	return &domain.AIAnswer{Answer: resp.Text()}, nil
}

// Chat calls POST /api/ai/chat with the prior turns of the conversation.
func (a *AIAPI) Chat(ctx context.Context, message string, history []domain.ChatMessage) (*domain.AIAnswer, error) {
	if history == nil {
		history = []domain.ChatMessage{}
	}

	req := domain.ChatRequest{Message: message, ConversationHistory: history}
	if err := Validate(req); err != nil {
		return nil, err
	}

	var resp domain.AIResponse

	if err := post(ctx, a.doer, chatPath, req, &resp); err != nil {
		return nil, fmt.Errorf("chat with advisor: %w", err)
	}

	return &domain.AIAnswer{Answer: resp.Text()}, nil
}
