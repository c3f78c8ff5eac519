package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"podcast-notes-go/internal/logger"
	"podcast-notes-go/internal/types"
)

func TestNormalize_FullDocument(t *testing.T) {
	content := `{
		"summary": "An episode about Go.",
		"keyTakeaways": ["interfaces are small", 42, "errors are values"],
		"chapters": [{"title": "Intro", "timestamp": "00:00", "description": "hello"}, "bogus"],
		"quotes": [{"text": "Clear is better than clever.", "speaker": "Rob", "timestamp": "12:30"}],
		"resources": ["https://go.dev"],
		"socialCaptions": ["Listen now"]
	}`

	notes, degraded := Normalize(content, "Go Time")
	if degraded {
		t.Fatal("expected a parsed document, got fallback")
	}
	if notes.Summary != "An episode about Go." {
		t.Errorf("Summary = %q", notes.Summary)
	}
	if want := []string{"interfaces are small", "errors are values"}; !reflect.DeepEqual(notes.KeyTakeaways, want) {
		t.Errorf("KeyTakeaways = %v, want %v", notes.KeyTakeaways, want)
	}
	if len(notes.Chapters) != 1 || notes.Chapters[0].Title != "Intro" {
		t.Errorf("Chapters = %+v", notes.Chapters)
	}
	if len(notes.Quotes) != 1 || notes.Quotes[0].Speaker != "Rob" {
		t.Errorf("Quotes = %+v", notes.Quotes)
	}
	if len(notes.Resources) != 1 || len(notes.SocialCaptions) != 1 {
		t.Errorf("Resources = %v, SocialCaptions = %v", notes.Resources, notes.SocialCaptions)
	}
}

func TestNormalize_OptionalFieldsDefaulted(t *testing.T) {
	notes, degraded := Normalize(`{"summary":"S","keyTakeaways":["a"],"resources":"not an array"}`, "T")
	if degraded {
		t.Fatal("minimal shape should not degrade")
	}
	if !reflect.DeepEqual(notes.KeyTakeaways, []string{"a"}) {
		t.Errorf("KeyTakeaways = %v", notes.KeyTakeaways)
	}
	if want := defaultChapters(); !reflect.DeepEqual(notes.Chapters, want) {
		t.Errorf("Chapters = %+v, want %+v", notes.Chapters, want)
	}
	if notes.Quotes == nil || len(notes.Quotes) != 0 {
		t.Errorf("Quotes = %#v, want empty", notes.Quotes)
	}
	if notes.Resources == nil || len(notes.Resources) != 0 {
		t.Errorf("Resources = %#v, want empty", notes.Resources)
	}
	if notes.SocialCaptions == nil || len(notes.SocialCaptions) != 0 {
		t.Errorf("SocialCaptions = %#v, want empty", notes.SocialCaptions)
	}

	encoded, err := notes.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if strings.Contains(encoded, "null") {
		t.Errorf("encoded notes contain null: %s", encoded)
	}
}

func TestNormalize_EmptyTakeawaysGetDefaults(t *testing.T) {
	notes, degraded := Normalize(`{"summary":"S","keyTakeaways":[1, 2]}`, "T")
	if degraded {
		t.Fatal("unexpected fallback")
	}
	if !reflect.DeepEqual(notes.KeyTakeaways, defaultTakeaways) {
		t.Errorf("KeyTakeaways = %v", notes.KeyTakeaways)
	}
}

func TestNormalize_Fallback(t *testing.T) {
	cases := map[string]string{
		"empty object":        `{}`,
		"invalid json":        `{"summary": "cut off`,
		"no json at all":      `Sorry, I cannot help with that.`,
		"empty content":       ``,
		"blank summary":       `{"summary":"  ","keyTakeaways":["a"]}`,
		"summary not string":  `{"summary":5,"keyTakeaways":["a"]}`,
		"takeaways not array": `{"summary":"S","keyTakeaways":"a, b"}`,
	}
	want := FallbackShowNotes("My Show")
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			notes, degraded := Normalize(content, "My Show")
			if !degraded {
				t.Fatal("expected fallback")
			}
			if !reflect.DeepEqual(notes, want) {
				t.Errorf("notes = %+v", notes)
			}
		})
	}
}

func TestNormalize_FencedJSON(t *testing.T) {
	content := "Here are your notes:\n```json\n{\"summary\":\"S {with braces}\",\"keyTakeaways\":[\"a\"]}\n```\nEnjoy!"
	notes, degraded := Normalize(content, "T")
	if degraded {
		t.Fatal("fenced JSON should be carved out")
	}
	if notes.Summary != "S {with braces}" {
		t.Errorf("Summary = %q", notes.Summary)
	}
}

func TestNormalize_KeepsBackticksInsideStrings(t *testing.T) {
	content := "```json\n{\"summary\":\"Wrap code in ```go blocks```\",\"keyTakeaways\":[\"use ``` fences\"]}\n```"
	notes, degraded := Normalize(content, "T")
	if degraded {
		t.Fatal("valid JSON inside fences should not degrade")
	}
	if notes.Summary != "Wrap code in ```go blocks```" {
		t.Errorf("Summary = %q", notes.Summary)
	}
	if len(notes.KeyTakeaways) != 1 || notes.KeyTakeaways[0] != "use ``` fences" {
		t.Errorf("KeyTakeaways = %q", notes.KeyTakeaways)
	}
}

func TestFallbackShowNotes(t *testing.T) {
	notes := FallbackShowNotes("")
	if notes.SocialCaptions[0] != `Check out this episode: "Your Podcast"` {
		t.Errorf("caption = %q", notes.SocialCaptions[0])
	}
	if len(notes.Chapters) != 1 || notes.Chapters[0].Timestamp != "00:00" {
		t.Errorf("Chapters = %+v", notes.Chapters)
	}
}

func chatServer(t *testing.T, status int, content string, got *chatRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got != nil {
			if err := json.NewDecoder(r.Body).Decode(got); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.WriteHeader(status)
		if status >= 300 {
			io.WriteString(w, content)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": content}}},
		})
	}))
}

func TestClient_Summarize(t *testing.T) {
	var req chatRequest
	srv := chatServer(t, http.StatusOK, `{"summary":"S","keyTakeaways":["a"]}`, &req)
	defer srv.Close()

	c := NewClient(srv.URL, "sk-test", "gpt-4o-mini", logger.Nop())
	notes, err := c.Summarize(context.Background(), "hello world", "")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if notes.Summary != "S" || len(notes.Chapters) != 1 {
		t.Errorf("notes = %+v", notes)
	}

	if req.Model != "gpt-4o-mini" || req.Temperature != 0.3 || req.MaxTokens != 2000 {
		t.Errorf("unexpected request params: %+v", req)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[0].Content != systemPrompt {
		t.Fatalf("unexpected messages: %+v", req.Messages)
	}
	if !strings.Contains(req.Messages[1].Content, "Title: Your Podcast\n\nTranscript:\nhello world") {
		t.Errorf("user prompt = %q", req.Messages[1].Content)
	}
}

func TestClient_SummarizeDegradesOnGarbage(t *testing.T) {
	srv := chatServer(t, http.StatusOK, "not json", nil)
	defer srv.Close()

	c := NewClient(srv.URL, "sk-test", "gpt-4o-mini", logger.Nop())
	notes, err := c.Summarize(context.Background(), "hello", "Ep 1")
	if err != nil {
		t.Fatalf("degradation must not be an error: %v", err)
	}
	if !reflect.DeepEqual(notes, FallbackShowNotes("Ep 1")) {
		t.Errorf("notes = %+v", notes)
	}
}

func TestClient_SummarizeProviderError(t *testing.T) {
	srv := chatServer(t, http.StatusTooManyRequests, "rate limited", nil)
	defer srv.Close()

	c := NewClient(srv.URL, "sk-test", "gpt-4o-mini", logger.Nop())
	_, err := c.Summarize(context.Background(), "hello", "Ep 1")

	var perr *types.ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if perr.Provider != "GPT" || perr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("unexpected provider error: %+v", perr)
	}
}
