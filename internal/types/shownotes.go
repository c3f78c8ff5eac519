package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ShowNotes is the structured document derived from a transcript.
type ShowNotes struct {
	Summary        string    `json:"summary"`
	KeyTakeaways   []string  `json:"keyTakeaways"`
	Chapters       []Chapter `json:"chapters"`
	Quotes         []Quote   `json:"quotes"`
	Resources      []string  `json:"resources"`
	SocialCaptions []string  `json:"socialCaptions"`
}

type Chapter struct {
	Title       string `json:"title" bson:"title"`
	Timestamp   string `json:"timestamp" bson:"timestamp"`
	Description string `json:"description" bson:"description"`
}

type Quote struct {
	Text      string `json:"text"`
	Speaker   string `json:"speaker"`
	Timestamp string `json:"timestamp"`
}

// Encode serializes the document for the show_notes column. Nil slices are
// written as empty arrays so readers never see null.
func (n ShowNotes) Encode() (string, error) {
	if n.KeyTakeaways == nil {
		n.KeyTakeaways = []string{}
	}
	if n.Chapters == nil {
		n.Chapters = []Chapter{}
	}
	if n.Quotes == nil {
		n.Quotes = []Quote{}
	}
	if n.Resources == nil {
		n.Resources = []string{}
	}
	if n.SocialCaptions == nil {
		n.SocialCaptions = []string{}
	}
	b, err := json.Marshal(n)
	if err != nil {
		return "", fmt.Errorf("encode show notes: %w", err)
	}
	return string(b), nil
}

// DecodeShowNotes parses a show_notes column value.
func DecodeShowNotes(s string) (ShowNotes, error) {
	var n ShowNotes
	if strings.TrimSpace(s) == "" {
		return n, fmt.Errorf("decode show notes: empty document")
	}
	if err := json.Unmarshal([]byte(s), &n); err != nil {
		return n, fmt.Errorf("decode show notes: %w", err)
	}
	return n, nil
}
