package model

// WebSocket message types
const (
	WSMessageTypeStatus   = "status"
	WSMessageTypeComplete = "complete"
	WSMessageTypeError    = "error"
	WSMessageTypePing     = "ping"
	WSMessageTypePong     = "pong"
)

// WSMessage represents a generic WebSocket message
type WSMessage struct {
	Type string `json:"type"`
}

// WSStatusMessage reports a related topics status change
type WSStatusMessage struct {
	Type         string    `json:"type"`
	GenerationID string    `json:"generationId"`
	Status       JobStatus `json:"status"`
}

// WSCompleteMessage represents related topics completion
type WSCompleteMessage struct {
	Type         string      `json:"type"`
	GenerationID string      `json:"generationId"`
	Result       interface{} `json:"result"`
}

// WSErrorMessage represents an error
type WSErrorMessage struct {
	Type         string  `json:"type"`
	GenerationID string  `json:"generationId"`
	Error        WSError `json:"error"`
}

// WSError represents error details
type WSError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
