package extractor

import (
	"encoding/json"
	"fmt"
	"strings"

	"podcast-notes-go/internal/types"
)

var defaultTakeaways = []string{"Transcript available for review", "Content processed successfully"}

func defaultChapters() []types.Chapter {
	return []types.Chapter{{Title: "Full Episode", Timestamp: "00:00", Description: "Complete episode content"}}
}

// FallbackShowNotes is returned whenever the model output cannot be used.
func FallbackShowNotes(title string) types.ShowNotes {
	if title == "" {
		title = DefaultTitle
	}
	return types.ShowNotes{
		Summary:      "Analysis completed successfully. The transcript has been processed and is ready for review.",
		KeyTakeaways: append([]string(nil), defaultTakeaways...),
		Chapters:     defaultChapters(),
		Quotes:       []types.Quote{},
		Resources:    []string{},
		SocialCaptions: []string{
			fmt.Sprintf(`Check out this episode: "%s"`, title),
			"New podcast episode available now!",
		},
	}
}

// Normalize turns raw model content into a ShowNotes document. The second
// return value reports whether the whole-document fallback was used.
//
// The minimal shape is a non-empty string summary plus a keyTakeaways array.
// Every other field is checked on its own and defaulted when absent or of the
// wrong type.
func Normalize(content, title string) (types.ShowNotes, bool) {
	carved := extractJSON(content)
	if carved == "" {
		return FallbackShowNotes(title), true
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(carved), &doc); err != nil {
		return FallbackShowNotes(title), true
	}

	var summary string
	if err := json.Unmarshal(doc["summary"], &summary); err != nil || strings.TrimSpace(summary) == "" {
		return FallbackShowNotes(title), true
	}

	takeaways, ok := stringArray(doc["keyTakeaways"])
	if !ok {
		return FallbackShowNotes(title), true
	}
	if len(takeaways) == 0 {
		takeaways = append([]string(nil), defaultTakeaways...)
	}

	notes := types.ShowNotes{
		Summary:      summary,
		KeyTakeaways: takeaways,
	}

	if chapters, ok := chapterArray(doc["chapters"]); ok {
		notes.Chapters = chapters
	} else {
		notes.Chapters = defaultChapters()
	}
	if quotes, ok := quoteArray(doc["quotes"]); ok {
		notes.Quotes = quotes
	} else {
		notes.Quotes = []types.Quote{}
	}
	if resources, ok := stringArray(doc["resources"]); ok {
		notes.Resources = resources
	} else {
		notes.Resources = []string{}
	}
	if captions, ok := stringArray(doc["socialCaptions"]); ok {
		notes.SocialCaptions = captions
	} else {
		notes.SocialCaptions = []string{}
	}

	return notes, false
}

// rawArray reports ok=false when raw is missing or not a JSON array.
func rawArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return nil, false
	}
	return items, true
}

// stringArray keeps the string elements of a JSON array and skips the rest.
func stringArray(raw json.RawMessage) ([]string, bool) {
	items, ok := rawArray(raw)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		var s string
		if json.Unmarshal(it, &s) == nil && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out, true
}

func chapterArray(raw json.RawMessage) ([]types.Chapter, bool) {
	items, ok := rawArray(raw)
	if !ok {
		return nil, false
	}
	out := make([]types.Chapter, 0, len(items))
	for _, it := range items {
		obj, ok := object(it)
		if !ok {
			continue
		}
		out = append(out, types.Chapter{
			Title:       obj["title"],
			Timestamp:   obj["timestamp"],
			Description: obj["description"],
		})
	}
	return out, true
}

func quoteArray(raw json.RawMessage) ([]types.Quote, bool) {
	items, ok := rawArray(raw)
	if !ok {
		return nil, false
	}
	out := make([]types.Quote, 0, len(items))
	for _, it := range items {
		obj, ok := object(it)
		if !ok {
			continue
		}
		out = append(out, types.Quote{
			Text:      obj["text"],
			Speaker:   obj["speaker"],
			Timestamp: obj["timestamp"],
		})
	}
	return out, true
}

// object reads the string-valued members of a JSON object. Members of any
// other type read as "".
func object(raw json.RawMessage) (map[string]string, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, false
	}
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		var s string
		if json.Unmarshal(v, &s) == nil {
			out[k] = s
		}
	}
	return out, true
}

// extractJSON finds the first balanced JSON object in a string and returns it.
// Markdown fences and prose around the object are skipped; string values
// are returned untouched.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return strings.TrimSpace(s[start : i+1])
			}
		}
	}

	return ""
}
