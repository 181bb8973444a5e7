package agent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oraculo-ai/oraculo/internal/domain"
	"github.com/oraculo-ai/oraculo/internal/tools"
)

type scriptedLLM struct {
	responses []openai.ChatCompletionMessage
	err       error
	calls     [][]openai.ChatCompletionMessage
	toolDefs  [][]openai.Tool
}

func (s *scriptedLLM) ChatCompletion(ctx context.Context, messages []openai.ChatCompletionMessage, defs []openai.Tool) (*openai.ChatCompletionMessage, error) {
	s.calls = append(s.calls, messages)
	s.toolDefs = append(s.toolDefs, defs)
	if s.err != nil {
		return nil, s.err
	}
	if len(s.responses) == 0 {
		return nil, errors.New("scripted llm exhausted")
	}
	msg := s.responses[0]
	s.responses = s.responses[1:]
	return &msg, nil
}

type fakeTool struct {
	name     string
	result   string
	err      error
	lastArgs string
	calls    int
}

func (f *fakeTool) Name() string               { return f.name }
func (f *fakeTool) Description() string        { return "fake tool" }
func (f *fakeTool) Parameters() map[string]any { return map[string]any{"type": "object"} }

func (f *fakeTool) Call(ctx context.Context, args json.RawMessage) (string, error) {
	f.calls++
	f.lastArgs = string(args)
	return f.result, f.err
}

func assistantText(content string) openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}
}

func assistantToolCall(id, name, args string) openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleAssistant,
		ToolCalls: []openai.ToolCall{{
			ID:       id,
			Type:     openai.ToolTypeFunction,
			Function: openai.FunctionCall{Name: name, Arguments: args},
		}},
	}
}

func TestAgent_Respond_PlainAnswer(t *testing.T) {
	llm := &scriptedLLM{responses: []openai.ChatCompletionMessage{
		assistantText("A Selic está em 13.75%."),
	}}
	a := New(llm, nil)

	res, err := a.Respond(context.Background(), nil, "Qual a taxa Selic?")
	require.NoError(t, err)
	assert.Equal(t, "A Selic está em 13.75%.", res.Content)
	assert.Empty(t, res.Invocations)

	// System prompt first, user input last.
	first := llm.calls[0]
	assert.Equal(t, openai.ChatMessageRoleSystem, first[0].Role)
	assert.Equal(t, "Qual a taxa Selic?", first[len(first)-1].Content)
}

func TestAgent_Respond_ExecutesToolCall(t *testing.T) {
	quote := &fakeTool{name: "stock_price", result: "Preço: 27.45 USD\nVariação: 0.35 (1.29%)"}
	llm := &scriptedLLM{responses: []openai.ChatCompletionMessage{
		assistantToolCall("call-1", "stock_price", `{"symbol":"BBAS3.SA"}`),
		assistantText("BBAS3 está cotada a 27.45."),
	}}
	a := New(llm, []tools.Tool{quote})

	res, err := a.Respond(context.Background(), nil, "Qual o preço da ação BBAS3?")
	require.NoError(t, err)
	assert.Equal(t, "BBAS3 está cotada a 27.45.", res.Content)

	require.Len(t, res.Invocations, 1)
	assert.Equal(t, "stock_price", res.Invocations[0].Tool)
	assert.False(t, res.Invocations[0].Failed)
	assert.Equal(t, `{"symbol":"BBAS3.SA"}`, quote.lastArgs)

	// The second LLM call carries the tool output back.
	second := llm.calls[1]
	last := second[len(second)-1]
	assert.Equal(t, openai.ChatMessageRoleTool, last.Role)
	assert.Equal(t, "call-1", last.ToolCallID)
	assert.Contains(t, last.Content, "27.45")
}

func TestAgent_Respond_ToolFailureFedBackAsText(t *testing.T) {
	search := &fakeTool{
		name: "internet_search",
		err:  tools.NewToolError("internet_search", tools.KindUnavailable, "search request failed", errors.New("timeout")),
	}
	llm := &scriptedLLM{responses: []openai.ChatCompletionMessage{
		assistantToolCall("call-1", "internet_search", `{"query":"dólar hoje"}`),
		assistantText("Não consegui acessar a internet agora, mas posso ajudar com os dados internos."),
	}}
	a := New(llm, []tools.Tool{search})

	res, err := a.Respond(context.Background(), nil, "cotação do dólar?")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Content)

	require.Len(t, res.Invocations, 1)
	assert.True(t, res.Invocations[0].Failed)

	second := llm.calls[1]
	last := second[len(second)-1]
	assert.Contains(t, last.Content, "indisponível")
	assert.NotContains(t, last.Content, "timeout")
}

func TestAgent_Respond_UnknownTool(t *testing.T) {
	llm := &scriptedLLM{responses: []openai.ChatCompletionMessage{
		assistantToolCall("call-1", "does_not_exist", `{}`),
		assistantText("ok"),
	}}
	a := New(llm, nil)

	res, err := a.Respond(context.Background(), nil, "oi")
	require.NoError(t, err)
	require.Len(t, res.Invocations, 1)
	assert.True(t, res.Invocations[0].Failed)
	assert.Contains(t, res.Invocations[0].Result, "Ferramenta desconhecida")
}

func TestAgent_Respond_RoundBudgetForcesPlainAnswer(t *testing.T) {
	loop := &fakeTool{name: "stock_price", result: "Preço: 1 USD"}
	llm := &scriptedLLM{responses: []openai.ChatCompletionMessage{
		assistantToolCall("c1", "stock_price", `{"symbol":"A"}`),
		assistantToolCall("c2", "stock_price", `{"symbol":"B"}`),
		assistantText("Resumo final."),
	}}
	a := New(llm, []tools.Tool{loop}, WithMaxRounds(2))

	res, err := a.Respond(context.Background(), nil, "compare A e B")
	require.NoError(t, err)
	assert.Equal(t, "Resumo final.", res.Content)
	assert.Len(t, res.Invocations, 2)

	// The forced final round offers no tools.
	require.Len(t, llm.toolDefs, 3)
	assert.NotEmpty(t, llm.toolDefs[0])
	assert.Empty(t, llm.toolDefs[2])
}

func TestAgent_Respond_HistoryMapped(t *testing.T) {
	llm := &scriptedLLM{responses: []openai.ChatCompletionMessage{assistantText("ok")}}
	a := New(llm, nil)

	history := []domain.Message{
		{Role: domain.RoleUser, Content: "oi"},
		{Role: domain.RoleAssistant, Content: "olá"},
	}
	_, err := a.Respond(context.Background(), history, "continua")
	require.NoError(t, err)

	msgs := llm.calls[0]
	require.Len(t, msgs, 4)
	assert.Equal(t, openai.ChatMessageRoleUser, msgs[1].Role)
	assert.Equal(t, openai.ChatMessageRoleAssistant, msgs[2].Role)
}

func TestAgent_Respond_LLMError(t *testing.T) {
	llm := &scriptedLLM{err: errors.New("upstream down")}
	a := New(llm, nil)

	_, err := a.Respond(context.Background(), nil, "oi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream down")
}
