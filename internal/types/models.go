package types

import "time"

type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// PodcastRecord is one row of the podcasts table. ShowNotes holds the
// serialized ShowNotes document, not a nested object, because the dashboard
// parses it out of a string column.
type PodcastRecord struct {
	ID               string           `json:"id" bson:"_id"`
	UserID           string           `json:"user_id,omitempty" bson:"user_id,omitempty"`
	Title            string           `json:"title" bson:"title"`
	Description      string           `json:"description,omitempty" bson:"description,omitempty"`
	AudioURL         string           `json:"audio_url" bson:"audio_url"`
	OriginalFilename string           `json:"original_filename,omitempty" bson:"original_filename,omitempty"`
	FileSize         int64            `json:"file_size" bson:"file_size"`
	ProcessingStatus ProcessingStatus `json:"processing_status" bson:"processing_status"`
	Transcript       string           `json:"transcript,omitempty" bson:"transcript,omitempty"`
	ShowNotes        string           `json:"show_notes,omitempty" bson:"show_notes,omitempty"`
	KeyTakeaways     []string         `json:"key_takeaways,omitempty" bson:"key_takeaways,omitempty"`
	Timestamps       []Chapter        `json:"timestamps,omitempty" bson:"timestamps,omitempty"`
	Duration         int              `json:"duration" bson:"duration"`
	CreatedAt        time.Time        `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at" bson:"updated_at"`
}

// StatusUpdate is a partial write to a PodcastRecord. Nil pointers and nil
// slices leave the stored column untouched.
type StatusUpdate struct {
	Status       ProcessingStatus
	Transcript   *string
	ShowNotes    *string
	KeyTakeaways []string
	Timestamps   []Chapter
	Duration     *int
}

type ProcessRequest struct {
	PodcastID    string `json:"podcastId"`
	AudioURL     string `json:"audioUrl"`
	PodcastTitle string `json:"podcastTitle,omitempty"`
}

type ProcessResponse struct {
	Success            bool   `json:"success"`
	Message            string `json:"message"`
	TranscriptLength   int    `json:"transcriptLength"`
	ShowNotesGenerated bool   `json:"showNotesGenerated"`
	Duration           int    `json:"duration"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	PodcastID string `json:"podcastId,omitempty"`
}

type StatusResponse struct {
	ID               string           `json:"id"`
	ProcessingStatus ProcessingStatus `json:"processing_status"`
	Duration         int              `json:"duration"`
	UpdatedAt        time.Time        `json:"updated_at"`
}
