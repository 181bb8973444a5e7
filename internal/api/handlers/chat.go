package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/oraculo-ai/oraculo/internal/api"
	"github.com/oraculo-ai/oraculo/internal/domain"
	"github.com/oraculo-ai/oraculo/internal/service"
)

// DefaultServedModel is the model id reported to OpenAI-compatible clients.
const DefaultServedModel = "investment-agent-v4"

type ChatService interface {
	Complete(ctx context.Context, sessionID, userMessage string) (*service.ChatResult, error)
}

type ChatHandler struct {
	svc         ChatService
	servedModel string
}

func NewChatHandler(svc ChatService) *ChatHandler {
	return &ChatHandler{svc: svc, servedModel: DefaultServedModel}
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model     string        `json:"model"`
	Messages  []ChatMessage `json:"messages"`
	Stream    bool          `json:"stream"`
	SessionID string        `json:"session_id"`
}

type ChatCompletionChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type ChatCompletionResponse struct {
	ID        string                 `json:"id"`
	Object    string                 `json:"object"`
	Created   int64                  `json:"created"`
	Model     string                 `json:"model"`
	Choices   []ChatCompletionChoice `json:"choices"`
	SessionID string                 `json:"session_id"`
}

// Completions handles POST /chat/completions. The response follows the OpenAI
// chat completion shape so standard clients work unchanged; streaming is not
// supported and stream requests fall back to a regular response.
func (h *ChatHandler) Completions(w http.ResponseWriter, r *http.Request) {
	var req ChatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.Messages) == 0 {
		api.HandleError(w, domain.ErrMissingMessages)
		return
	}
	userMessage := req.Messages[len(req.Messages)-1].Content
	if userMessage == "" {
		api.HandleError(w, domain.ErrEmptyContent)
		return
	}

	result, err := h.svc.Complete(r.Context(), req.SessionID, userMessage)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	model := req.Model
	if model == "" {
		model = h.servedModel
	}

	api.JSON(w, http.StatusOK, ChatCompletionResponse{
		ID:      "chatcmpl-" + uuid.NewString(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []ChatCompletionChoice{{
			Index:        0,
			Message:      ChatMessage{Role: "assistant", Content: result.Reply},
			FinishReason: "stop",
		}},
		SessionID: result.SessionID,
	})
}

type ModelCard struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

type ModelList struct {
	Object string      `json:"object"`
	Data   []ModelCard `json:"data"`
}

// Models handles GET /models with the static model card list.
func (h *ChatHandler) Models(w http.ResponseWriter, r *http.Request) {
	api.JSON(w, http.StatusOK, ModelList{
		Object: "list",
		Data: []ModelCard{{
			ID:      h.servedModel,
			Object:  "model",
			Created: time.Now().Unix(),
			OwnedBy: "user",
		}},
	})
}
