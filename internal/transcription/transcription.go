package transcription

import (
	"context"
	"errors"
	"math"
	"strings"
)

// WordsPerMinute is the speaking rate used to estimate episode length from
// a transcript.
const WordsPerMinute = 150

var ErrEmptyTranscript = errors.New("no transcription text received from Whisper API")

type Result struct {
	Text string `json:"text"`
}

// Transcriber turns raw audio into plain text. Implementations make exactly
// one provider call per invocation.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename, contentType string) (*Result, error)
}

// WordCount counts whitespace-delimited tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// EstimateDuration approximates the episode length in seconds from the
// transcript's word count.
func EstimateDuration(text string) int {
	return int(math.Round(float64(WordCount(text)) / WordsPerMinute * 60))
}
