package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/oraculo-ai/oraculo/internal/agent"
	"github.com/oraculo-ai/oraculo/internal/domain"
)

// historyWindow bounds how many prior messages feed the agent, ten exchanges.
const historyWindow = 20

// SessionRepository defines the persistence interface for conversation turns.
// AppendExchange stores the user turn and the assistant reply atomically.
type SessionRepository interface {
	LoadHistory(ctx context.Context, sessionID string) ([]domain.Message, error)
	AppendExchange(ctx context.Context, sessionID, userContent, assistantContent string) (*domain.Message, *domain.Message, error)
}

// ConversationAgent produces an assistant reply for one user turn.
type ConversationAgent interface {
	Respond(ctx context.Context, history []domain.Message, input string) (*agent.Result, error)
}

// ChatService coordinates session persistence around agent turns.
type ChatService struct {
	sessions SessionRepository
	agent    ConversationAgent
}

// ChatResult carries the outcome of one completed chat turn.
type ChatResult struct {
	SessionID   string
	Reply       string
	Invocations []agent.ToolInvocation
}

func NewChatService(sessions SessionRepository, conversationAgent ConversationAgent) *ChatService {
	return &ChatService{sessions: sessions, agent: conversationAgent}
}

// Complete runs one chat turn. An empty session id starts a fresh session
// under a generated UUID. The user and assistant turns are persisted in one
// atomic write after the agent produced a reply, so a failed or cancelled
// turn leaves the session untouched.
func (s *ChatService) Complete(ctx context.Context, sessionID, userMessage string) (*ChatResult, error) {
	userMessage = strings.TrimSpace(userMessage)
	if userMessage == "" {
		return nil, domain.ErrEmptyContent
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	history, err := s.sessions.LoadHistory(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", sessionID, err)
	}
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	res, err := s.agent.Respond(ctx, history, userMessage)
	if err != nil {
		return nil, err
	}

	if _, _, err := s.sessions.AppendExchange(ctx, sessionID, userMessage, res.Content); err != nil {
		return nil, fmt.Errorf("persisting exchange: %w", err)
	}

	return &ChatResult{
		SessionID:   sessionID,
		Reply:       res.Content,
		Invocations: res.Invocations,
	}, nil
}
