// Package chat orchestrates retrieval-augmented conversations.
//
// A chat request flows: retrieve tenant context from the vector store,
// combine it with the user's message into a prompt, call the model
// endpoint, and inspect the reply for an escalation signal. Escalated
// exchanges are appended to the tenant's escalation log before the
// response is returned.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/assistantd/internal/escalation"
	"github.com/fyrsmithlabs/assistantd/internal/llm"
	"github.com/fyrsmithlabs/assistantd/internal/tenant"
	"go.uber.org/zap"
)

// escalationKeyword flags replies that need human follow-up.
// Case-insensitive substring match.
const escalationKeyword = "escalation"

// Orchestrator handles one chat exchange end to end.
type Orchestrator struct {
	retriever   *Retriever
	model       llm.Client
	escalations *escalation.Log
	logger      *zap.Logger
}

// NewOrchestrator creates a chat orchestrator.
func NewOrchestrator(retriever *Retriever, model llm.Client, escalations *escalation.Log, logger *zap.Logger) (*Orchestrator, error) {
	if retriever == nil {
		return nil, fmt.Errorf("retriever is required")
	}
	if model == nil {
		return nil, fmt.Errorf("model client is required")
	}
	if escalations == nil {
		return nil, fmt.Errorf("escalation log is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		retriever:   retriever,
		model:       model,
		escalations: escalations,
		logger:      logger.Named("chat"),
	}, nil
}

// Chat answers a tenant's message and returns the model's raw response
// text. Replies containing the escalation keyword are recorded in the
// tenant's escalation log before returning.
func (o *Orchestrator) Chat(ctx context.Context, id tenant.ID, message string) (string, error) {
	fragments, err := o.retriever.Context(ctx, id, message)
	if err != nil {
		return "", err
	}

	response, err := o.model.Generate(ctx, buildPrompt(fragments, message))
	if err != nil {
		return "", err
	}

	if IsEscalation(response) {
		if err := o.escalations.Append(id, escalation.Record{
			Message:  message,
			Response: response,
		}); err != nil {
			return "", fmt.Errorf("recording escalation: %w", err)
		}
		o.logger.Info("chat escalated", zap.String("tenant", id.String()))
	}

	return response, nil
}

// buildPrompt combines retrieved context fragments with the user's
// message.
func buildPrompt(fragments []string, message string) string {
	if len(fragments) == 0 {
		return fmt.Sprintf("User: %s", message)
	}
	return fmt.Sprintf("%s\n\nUser: %s", strings.Join(fragments, " "), message)
}

// IsEscalation reports whether a model reply signals a need for human
// follow-up.
func IsEscalation(response string) bool {
	return strings.Contains(strings.ToLower(response), escalationKeyword)
}
