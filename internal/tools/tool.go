package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// ErrorKind classifies tool failures so the agent can report them to the
// model without leaking upstream transport details.
type ErrorKind string

const (
	KindNotFound     ErrorKind = "not_found"
	KindRateLimited  ErrorKind = "rate_limited"
	KindUnavailable  ErrorKind = "unavailable"
	KindInvalidInput ErrorKind = "invalid_input"
)

// ToolError is the normalized error type every adapter returns.
type ToolError struct {
	Tool    string
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ToolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Tool, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Tool, e.Message)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// NewToolError builds a ToolError with an optional wrapped cause.
func NewToolError(tool string, kind ErrorKind, message string, cause error) *ToolError {
	return &ToolError{Tool: tool, Kind: kind, Message: message, Err: cause}
}

// Tool is the uniform contract every adapter implements. Parameters returns a
// JSON schema object suitable for an OpenAI function definition.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any
	Call(ctx context.Context, args json.RawMessage) (string, error)
}

// Definitions converts tools into OpenAI function-calling definitions.
func Definitions(ts []Tool) []openai.Tool {
	defs := make([]openai.Tool, 0, len(ts))
	for _, t := range ts {
		defs = append(defs, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return defs
}

// ResultText turns a tool call outcome into the text fed back to the model.
// Normalized failures become short human-readable notices instead of raw
// upstream errors.
func ResultText(result string, err error) string {
	if err == nil {
		return result
	}

	var te *ToolError
	if errors.As(err, &te) {
		switch te.Kind {
		case KindNotFound:
			return fmt.Sprintf("Nenhum resultado encontrado: %s", te.Message)
		case KindRateLimited:
			return "O serviço externo está limitando requisições no momento. Tente novamente em instantes."
		case KindInvalidInput:
			return fmt.Sprintf("Parâmetros inválidos: %s", te.Message)
		default:
			return "O serviço externo está indisponível no momento."
		}
	}
	return "A ferramenta falhou ao processar a solicitação."
}

// queryArgs is the single-parameter shape shared by the search tools.
type queryArgs struct {
	Query string `json:"query"`
}

func decodeQuery(tool string, args json.RawMessage) (string, error) {
	var qa queryArgs
	if err := json.Unmarshal(args, &qa); err != nil {
		return "", NewToolError(tool, KindInvalidInput, "malformed arguments", err)
	}
	if qa.Query == "" {
		return "", NewToolError(tool, KindInvalidInput, "query is required", nil)
	}
	return qa.Query, nil
}

func queryParameters(description string) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": description,
			},
		},
		"required": []string{"query"},
	}
}
