package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"podcast-notes-go/internal/logger"
	"podcast-notes-go/internal/types"
)

const (
	temperature = 0.3
	maxTokens   = 2000
)

// Summarizer produces show notes for a transcript. A malformed model answer
// degrades to fallback notes; only transport failures and non-2xx responses
// are returned as errors.
type Summarizer interface {
	Summarize(ctx context.Context, transcript, title string) (types.ShowNotes, error)
}

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	log        *logger.Logger
}

func NewClient(baseURL, apiKey, model string, log *logger.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{},
		log:        log.Component("extractor"),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) Summarize(ctx context.Context, transcript, title string) (types.ShowNotes, error) {
	if title == "" {
		title = DefaultTitle
	}

	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: BuildUserPrompt(title, transcript)},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return types.ShowNotes{}, fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return types.ShowNotes{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	c.log.WithField("model", c.model).Info("generating show notes")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return types.ShowNotes{}, fmt.Errorf("chat API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.ShowNotes{}, fmt.Errorf("read chat response: %w", err)
	}
	c.log.WithField("http_status", resp.StatusCode).Debug("llm raw:\n" + string(body))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.WithField("http_status", resp.StatusCode).Warn("GPT API error: " + string(body))
		return types.ShowNotes{}, &types.ProviderError{Provider: "GPT", StatusCode: resp.StatusCode, Body: string(body)}
	}

	notes, degraded := Normalize(contentFromChoices(body), title)
	if degraded {
		c.log.Warn("failed to parse show notes JSON, using fallback")
	} else {
		c.log.WithField("takeaways", len(notes.KeyTakeaways)).Info("show notes generated")
	}
	return notes, nil
}

// contentFromChoices reads choices[0].message.content, or "" when the
// envelope is not the expected shape.
func contentFromChoices(body []byte) string {
	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil || len(out.Choices) == 0 {
		return ""
	}
	return out.Choices[0].Message.Content
}
