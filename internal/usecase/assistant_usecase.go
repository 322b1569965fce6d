package usecase

import (
	"context"
	"errors"
	"strings"
)

// ErrEmptyMessage is returned when an assistant prompt is blank.
var ErrEmptyMessage = errors.New("message cannot be empty")

// AssistantUseCase relays prompts to the external text-completion service.
// It carries no domain invariants; the service's answer is passed through
// verbatim.
type AssistantUseCase struct {
	client AssistantClient
}

// NewAssistantUseCase creates a new AssistantUseCase.
func NewAssistantUseCase(client AssistantClient) *AssistantUseCase {
	return &AssistantUseCase{client: client}
}

// Chat forwards one user message and returns the generated reply.
func (uc *AssistantUseCase) Chat(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}

	return uc.client.Complete(ctx, message)
}
