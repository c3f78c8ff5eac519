package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"podcast-notes-go/internal/logger"
	"podcast-notes-go/internal/types"
)

// WhisperClient calls the OpenAI audio transcription endpoint.
type WhisperClient struct {
	baseURL    string
	apiKey     string
	model      string
	language   string
	httpClient *http.Client
	log        *logger.Logger
}

// NewWhisperClient relies on the caller's context for the deadline; the
// http.Client carries no timeout of its own.
func NewWhisperClient(baseURL, apiKey, model, language string, log *logger.Logger) *WhisperClient {
	return &WhisperClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		language:   language,
		httpClient: &http.Client{},
		log:        log.Component("transcription"),
	}
}

// verboseResponse is the subset of response_format=verbose_json we read.
type verboseResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
}

func (c *WhisperClient) Transcribe(ctx context.Context, audio []byte, filename, contentType string) (*Result, error) {
	body, formType, err := c.buildForm(audio, filename, contentType)
	if err != nil {
		return nil, fmt.Errorf("build transcription form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", formType)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.log.WithField("size_bytes", len(audio)).Info("calling whisper API")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whisper API request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read whisper response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.WithField("http_status", resp.StatusCode).Warn("whisper API error: " + string(raw))
		return nil, &types.ProviderError{Provider: "Whisper", StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out verboseResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmptyTranscript, err)
	}
	if strings.TrimSpace(out.Text) == "" {
		return nil, ErrEmptyTranscript
	}

	c.log.WithField("text_length", len(out.Text)).Info("transcription received")
	return &Result{Text: out.Text}, nil
}

func (c *WhisperClient) buildForm(audio []byte, filename, contentType string) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", err
	}

	fields := [][2]string{
		{"model", c.model},
		{"response_format", "verbose_json"},
		{"language", c.language},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
