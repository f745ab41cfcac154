package model

import "time"

// RelatedTopicsResult is the related-topics state for a user's last generation
type RelatedTopicsResult struct {
	JobID        string     `json:"jobId"`
	GenerationID string     `json:"generationId"`
	Status       JobStatus  `json:"status"`
	Topics       []string   `json:"topics"`
	Error        *string    `json:"error,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

// Job types
const (
	JobTypeRelatedTopics = "related_topics"
)

// RelatedTopicsPayload contains the data for a related topics job
type RelatedTopicsPayload struct {
	UserID       string `json:"userId"`
	GenerationID string `json:"generationId"`
	Input        string `json:"input"`
}
