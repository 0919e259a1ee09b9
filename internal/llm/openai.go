// Package llm wraps the chat-completion endpoint the query engine grounds
// its answers with: a plain HTTP client over the OpenAI-compatible chat
// API exposing a single non-streaming Complete call. The query engine
// needs one finished answer string, not a token stream.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spacevault/ragcore/internal/ragerr"
)

const defaultChatURL = "https://api.openai.com/v1/chat/completions"

// Client is the interface the RAG query engine depends on, kept narrow so
// tests can fake the upstream model.
type Client interface {
	Complete(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// OpenAIClient calls an OpenAI-compatible chat completion endpoint.
type OpenAIClient struct {
	apiKey string
	model  string
	url    string
	client *http.Client
}

// NewOpenAIClient builds a client for model against endpoint. An empty
// endpoint falls back to the public OpenAI API.
func NewOpenAIClient(apiKey, model, endpoint string) *OpenAIClient {
	if endpoint == "" {
		endpoint = defaultChatURL
	}
	return &OpenAIClient{
		apiKey: apiKey,
		model:  model,
		url:    endpoint,
		client: &http.Client{Timeout: 120 * time.Second},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends a single grounded prompt and returns the model's answer
// text. ctx's deadline is honored both while the request is in flight and
// while waiting on the response body.
func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMessage},
		},
	})
	if err != nil {
		return "", ragerr.New("Complete", ragerr.KindInternal, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", ragerr.New("Complete", ragerr.KindInternal, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ragerr.New("Complete", ragerr.KindDeadlineExceeded, ctx.Err())
		}
		return "", ragerr.New("Complete", ragerr.KindBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", ragerr.New("Complete", ragerr.KindBackendUnavailable, fmt.Errorf("openai returned status %d: %s", resp.StatusCode, raw))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", ragerr.New("Complete", ragerr.KindBackendUnavailable, fmt.Errorf("decode response: %w", err))
	}
	if len(parsed.Choices) == 0 {
		return "", ragerr.New("Complete", ragerr.KindBackendUnavailable, fmt.Errorf("empty choices in response"))
	}
	return parsed.Choices[0].Message.Content, nil
}
