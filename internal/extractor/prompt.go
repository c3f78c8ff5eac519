package extractor

import "fmt"

const systemPrompt = `You are an expert podcast content analyst. Create comprehensive show notes from this transcript.

Generate a JSON response with these exact fields:
- summary: A 2-3 paragraph overview of the episode
- keyTakeaways: Array of 5-7 important points as strings
- chapters: Array of chapters with title, timestamp (format: "MM:SS"), and description
- quotes: Array of 3-5 notable quotes with speaker and timestamp
- resources: Array of mentioned resources/links as strings
- socialCaptions: Array of 3-5 social media captions as strings

Format timestamps as "MM:SS" (e.g., "05:30"). Make the response valid JSON only.`

// DefaultTitle is used when the caller does not name the episode.
const DefaultTitle = "Your Podcast"

// BuildUserPrompt renders the user turn of the show notes request.
func BuildUserPrompt(title, transcript string) string {
	if title == "" {
		title = DefaultTitle
	}
	return fmt.Sprintf("Please analyze this podcast transcript and create show notes:\n\nTitle: %s\n\nTranscript:\n%s", title, transcript)
}
