package domain

import "strings"

// Chat roles.
const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// AskRequest is the payload of POST /api/ai/ask.
type AskRequest struct {
	Question string `json:"question" validate:"required"`
	LoanID   *ID    `json:"loan_id"`
}

// ChatMessage is one turn of an advisor conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the payload of POST /api/ai/chat.
type ChatRequest struct {
	Message             string        `json:"message" validate:"required"`
	ConversationHistory []ChatMessage `json:"conversation_history"`
}

// AIResponse is the raw body of the advisor endpoints. The two endpoints name the
// answer text differently; Text picks the first non-empty one.
type AIResponse struct {
	Answer   string `json:"answer"`
	Response string `json:"response"`
	Message  string `json:"message"`
}

// Text returns the answer text, preferring answer, then response, then message.
func (r AIResponse) Text() string {
	for _, text := range []string{r.Answer, r.Response, r.Message} {
		if strings.TrimSpace(text) != "" {
			return text
		}
	}

	return ""
}

// AIAnswer is the normalized advisor reply.
type AIAnswer struct {
	Answer string `json:"answer"`
}
