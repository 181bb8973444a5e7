package agent

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/oraculo-ai/oraculo/internal/domain"
	"github.com/oraculo-ai/oraculo/internal/tools"
)

const defaultMaxRounds = 5

// DefaultSystemPrompt frames the model as the investment analysis assistant.
const DefaultSystemPrompt = "Você é um assistente de análise de investimentos. " +
	"Use as ferramentas disponíveis para consultar relatórios internos (Focus, COPOM), " +
	"buscar notícias na internet e obter cotações de ações quando a pergunta exigir " +
	"dados atualizados. Responda em português, de forma objetiva, e cite a origem dos dados."

// LLM is the chat completion surface the agent drives.
type LLM interface {
	ChatCompletion(ctx context.Context, messages []openai.ChatCompletionMessage, toolDefs []openai.Tool) (*openai.ChatCompletionMessage, error)
}

// ToolInvocation records one executed tool call for the audit trace.
type ToolInvocation struct {
	Tool      string `json:"tool"`
	Arguments string `json:"arguments"`
	Result    string `json:"result"`
	Failed    bool   `json:"failed"`
}

// Result is the final agent output for one user turn.
type Result struct {
	Content     string
	Invocations []ToolInvocation
}

// Agent runs the tool-calling loop against the configured LLM.
type Agent struct {
	llm          LLM
	tools        map[string]tools.Tool
	defs         []openai.Tool
	maxRounds    int
	systemPrompt string
}

type Option func(*Agent)

// WithMaxRounds bounds how many tool-calling rounds a single turn may take.
func WithMaxRounds(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxRounds = n
		}
	}
}

// WithSystemPrompt replaces the default system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) {
		if prompt != "" {
			a.systemPrompt = prompt
		}
	}
}

func New(llm LLM, ts []tools.Tool, opts ...Option) *Agent {
	byName := make(map[string]tools.Tool, len(ts))
	for _, t := range ts {
		byName[t.Name()] = t
	}
	a := &Agent{
		llm:          llm,
		tools:        byName,
		defs:         tools.Definitions(ts),
		maxRounds:    defaultMaxRounds,
		systemPrompt: DefaultSystemPrompt,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Respond runs one user turn: prior history plus the new input, executing any
// tool calls the model requests until it produces a plain answer. Tool
// failures are reported back to the model as tool output, never as request
// failures.
func (a *Agent) Respond(ctx context.Context, history []domain.Message, input string) (*Result, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: a.systemPrompt,
	})
	for _, m := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openAIRole(m.Role),
			Content: m.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: input,
	})

	var trace []ToolInvocation
	for round := 0; round < a.maxRounds; round++ {
		msg, err := a.llm.ChatCompletion(ctx, messages, a.defs)
		if err != nil {
			return nil, fmt.Errorf("agent round %d: %w", round+1, err)
		}
		messages = append(messages, *msg)

		if len(msg.ToolCalls) == 0 {
			return &Result{Content: msg.Content, Invocations: trace}, nil
		}

		for _, tc := range msg.ToolCalls {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			inv, resultText := a.execute(ctx, tc)
			trace = append(trace, inv)
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    resultText,
				ToolCallID: tc.ID,
			})
		}
	}

	// Round budget exhausted, force a plain answer with no tools offered.
	msg, err := a.llm.ChatCompletion(ctx, messages, nil)
	if err != nil {
		return nil, fmt.Errorf("agent final round: %w", err)
	}
	return &Result{Content: msg.Content, Invocations: trace}, nil
}

func (a *Agent) execute(ctx context.Context, tc openai.ToolCall) (ToolInvocation, string) {
	name := tc.Function.Name
	inv := ToolInvocation{Tool: name, Arguments: tc.Function.Arguments}

	tool, ok := a.tools[name]
	if !ok {
		inv.Failed = true
		inv.Result = fmt.Sprintf("Ferramenta desconhecida: %s", name)
		return inv, inv.Result
	}

	out, err := tool.Call(ctx, json.RawMessage(tc.Function.Arguments))
	text := tools.ResultText(out, err)
	inv.Result = text
	inv.Failed = err != nil
	return inv, text
}

func openAIRole(role domain.Role) string {
	switch role {
	case domain.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	case domain.RoleSystem:
		return openai.ChatMessageRoleSystem
	case domain.RoleTool:
		return openai.ChatMessageRoleTool
	default:
		return openai.ChatMessageRoleUser
	}
}
