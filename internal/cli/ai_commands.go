package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/pflag"

	"github.com/mkrupp/underwritepro/internal/domain"
	"github.com/mkrupp/underwritepro/internal/svc/router"
)

const aiFallbackMessage = "Sorry, I encountered an error. Please try again."

func (a *App) aiCommand() *Command {
	return &Command{
		Name:        "ai",
		Summary:     "Ask the AI underwriting advisor",
		Subcommands: []*Command{a.aiAskCommand(), a.aiChatCommand()},
	}
}

func (a *App) aiAskCommand() *Command {
	var loanID string

	return &Command{
		Name:    "ask",
		Summary: "Ask a single question",
		Usage:   "uwp ai ask [--loan <loan-id>] <question>",
		Flags: a.flags("ask", func(fs *pflag.FlagSet) {
			fs.StringVar(&loanID, "loan", "", "loan the question refers to")
		}),
		Examples: []Example{
			{Description: "Ask about a specific loan", Command: `uwp ai ask --loan 12 "Is the DSCR acceptable?"`},
		},
		Run: func(ctx context.Context, args []string) error {
			question := strings.TrimSpace(strings.Join(args, " "))

			return a.visit(ctx, router.AIChatRoute, func(ctx context.Context) error {
				var loan *domain.ID

				if loanID != "" {
					id := domain.ID(loanID)
					loan = &id
				}

				answer, err := a.api.AI.Ask(ctx, question, loan)
				if err != nil {
					return userFacingError(err, aiFallbackMessage)
				}

				return a.print(answer)
			})
		},
	}
}

func (a *App) aiChatCommand() *Command {
	return &Command{
		Name:        "chat",
		Summary:     "Start a conversation",
		Description: "Start a conversation with the advisor. Each line is one message;\nan empty line, 'exit' or end of input ends the conversation.",
		Run: func(ctx context.Context, _ []string) error {
			return a.visit(ctx, router.AIChatRoute, a.chat)
		},
	}
}

func (a *App) chat(ctx context.Context) error {
	var history []domain.ChatMessage

	for {
		message, err := a.prompt.Line("you> ")
		if errors.Is(err, ErrNoInput) {
			return nil
		}

		if err != nil {
			return err
		}

		message = strings.TrimSpace(message)
		if message == "" || message == "exit" {
			return nil
		}

		answer, err := a.api.AI.Chat(ctx, message, history)
		if errors.Is(err, domain.ErrSessionExpired) {
			return err
		}

		if err != nil {
			a.notice("advisor> %s", domain.ErrorMessage(err, aiFallbackMessage))

			continue
		}

		history = append(history,
			domain.ChatMessage{Role: domain.ChatRoleUser, Content: message},
			domain.ChatMessage{Role: domain.ChatRoleAssistant, Content: answer.Answer},
		)

		text := strings.TrimSpace(answer.Answer)
		if text == "" {
			text = aiFallbackMessage
		}

		a.printLine("advisor> " + text)
	}
}

func (a *App) printLine(line string) {
	_, _ = a.out.Write([]byte(line + "\n"))
}
