package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	webSearchName        = "internet_search"
	defaultTavilyURL     = "https://api.tavily.com"
	defaultMaxResults    = 3
	webSearchHTTPTimeout = 10 * time.Second
)

// WebSearch looks up current news and data through the Tavily search API.
type WebSearch struct {
	apiKey     string
	baseURL    string
	maxResults int
	client     *http.Client
}

func NewWebSearch(apiKey string) *WebSearch {
	return &WebSearch{
		apiKey:     apiKey,
		baseURL:    defaultTavilyURL,
		maxResults: defaultMaxResults,
		client:     &http.Client{Timeout: webSearchHTTPTimeout},
	}
}

// WithBaseURL overrides the Tavily endpoint, used by tests.
func (w *WebSearch) WithBaseURL(url string) *WebSearch {
	w.baseURL = strings.TrimRight(url, "/")
	return w
}

func (w *WebSearch) Name() string { return webSearchName }

func (w *WebSearch) Description() string {
	return "Obtém notícias e dados atualizados da internet em tempo real."
}

func (w *WebSearch) Parameters() map[string]any {
	return queryParameters("Termos da busca na internet.")
}

type tavilyRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type tavilyResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

type tavilyResponse struct {
	Results []tavilyResult `json:"results"`
}

func (w *WebSearch) Call(ctx context.Context, args json.RawMessage) (string, error) {
	query, err := decodeQuery(webSearchName, args)
	if err != nil {
		return "", err
	}
	if w.apiKey == "" {
		return "", NewToolError(webSearchName, KindUnavailable, "search API key not configured", nil)
	}

	body, err := json.Marshal(tavilyRequest{
		APIKey:     w.apiKey,
		Query:      query,
		MaxResults: w.maxResults,
	})
	if err != nil {
		return "", NewToolError(webSearchName, KindInvalidInput, "encoding request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return "", NewToolError(webSearchName, KindUnavailable, "building request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return "", NewToolError(webSearchName, KindUnavailable, "search request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", NewToolError(webSearchName, KindRateLimited, "search API rate limited", nil)
	case resp.StatusCode != http.StatusOK:
		return "", NewToolError(webSearchName, KindUnavailable,
			fmt.Sprintf("search API returned status %d", resp.StatusCode), nil)
	}

	var parsed tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", NewToolError(webSearchName, KindUnavailable, "decoding search response", err)
	}

	if len(parsed.Results) == 0 {
		return "Nenhum resultado encontrado na internet para essa busca.", nil
	}

	var sb strings.Builder
	for i, r := range parsed.Results {
		if i >= w.maxResults {
			break
		}
		fmt.Fprintf(&sb, "Title: %s\nURL: %s\nSnippet: %s\n", r.Title, r.URL, r.Content)
	}
	return sb.String(), nil
}
