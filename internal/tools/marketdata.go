package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	marketDataName         = "stock_price"
	defaultAlphaVantageURL = "https://www.alphavantage.co"
	marketDataHTTPTimeout  = 10 * time.Second
)

// MarketData fetches stock quotes through the Alpha Vantage GLOBAL_QUOTE
// endpoint.
type MarketData struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewMarketData(apiKey string) *MarketData {
	return &MarketData{
		apiKey:  apiKey,
		baseURL: defaultAlphaVantageURL,
		client:  &http.Client{Timeout: marketDataHTTPTimeout},
	}
}

// WithBaseURL overrides the Alpha Vantage endpoint, used by tests.
func (m *MarketData) WithBaseURL(u string) *MarketData {
	m.baseURL = u
	return m
}

func (m *MarketData) Name() string { return marketDataName }

func (m *MarketData) Description() string {
	return "Retorna o preço atual de uma ação. O símbolo deve incluir o sufixo do mercado quando necessário (ex: 'BBAS3.SA')."
}

func (m *MarketData) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"symbol": map[string]any{
				"type":        "string",
				"description": "Símbolo da ação, com sufixo do mercado quando necessário (ex: 'BBAS3.SA').",
			},
		},
		"required": []string{"symbol"},
	}
}

type marketDataArgs struct {
	Symbol string `json:"symbol"`
}

// globalQuoteResponse mirrors the Alpha Vantage payload. Note and Information
// are only present on throttled responses.
type globalQuoteResponse struct {
	GlobalQuote map[string]string `json:"Global Quote"`
	Note        string            `json:"Note"`
	Information string            `json:"Information"`
}

func (m *MarketData) Call(ctx context.Context, args json.RawMessage) (string, error) {
	var in marketDataArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return "", NewToolError(marketDataName, KindInvalidInput, "malformed arguments", err)
	}
	if in.Symbol == "" {
		return "", NewToolError(marketDataName, KindInvalidInput, "symbol is required", nil)
	}
	if m.apiKey == "" {
		return "", NewToolError(marketDataName, KindUnavailable, "market data API key not configured", nil)
	}

	params := url.Values{}
	params.Set("function", "GLOBAL_QUOTE")
	params.Set("symbol", in.Symbol)
	params.Set("apikey", m.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/query?"+params.Encode(), nil)
	if err != nil {
		return "", NewToolError(marketDataName, KindUnavailable, "building request", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return "", NewToolError(marketDataName, KindUnavailable, "quote request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", NewToolError(marketDataName, KindRateLimited, "quote API rate limited", nil)
	case resp.StatusCode != http.StatusOK:
		return "", NewToolError(marketDataName, KindUnavailable,
			fmt.Sprintf("quote API returned status %d", resp.StatusCode), nil)
	}

	var parsed globalQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", NewToolError(marketDataName, KindUnavailable, "decoding quote response", err)
	}

	// Alpha Vantage reports throttling inside a 200 body.
	if parsed.Note != "" || parsed.Information != "" {
		return "", NewToolError(marketDataName, KindRateLimited, "quote API rate limited", nil)
	}

	price := parsed.GlobalQuote["05. price"]
	if price == "" {
		return "", NewToolError(marketDataName, KindNotFound,
			fmt.Sprintf("no quote for symbol %q", in.Symbol), nil)
	}

	change := valueOr(parsed.GlobalQuote, "09. change", "N/A")
	percent := valueOr(parsed.GlobalQuote, "10. change percent", "N/A")
	return fmt.Sprintf("Preço: %s USD\nVariação: %s (%s)", price, change, percent), nil
}

func valueOr(m map[string]string, key, fallback string) string {
	if v := m[key]; v != "" {
		return v
	}
	return fallback
}
