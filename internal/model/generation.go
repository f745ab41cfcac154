package model

import (
	"time"

	"github.com/contentwriter/api/internal/segment"
)

// GenerateRequest represents a content generation request
type GenerateRequest struct {
	Input string         `json:"input" validate:"max=20000"`
	Mode  GenerationMode `json:"mode" validate:"omitempty,oneof=blog_post rewrite summarize seo_content generate_image"`
	Tone  WritingTone    `json:"tone" validate:"omitempty,oneof=default friendly formal professional casual academic"`
}

// WithDefaults fills in the default mode and tone when omitted.
func (r GenerateRequest) WithDefaults() GenerateRequest {
	if r.Mode == "" {
		r.Mode = DefaultGenerationMode
	}
	if r.Tone == "" {
		r.Tone = DefaultWritingTone
	}
	return r
}

// GenerationResult is the outcome of one generation request. Exactly one of
// the text, image or failure parts is set, as given by Kind.
type GenerationResult struct {
	ID        string           `json:"id"`
	UserID    string           `json:"-"`
	Kind      ResultKind       `json:"kind"`
	Mode      GenerationMode   `json:"mode"`
	Tone      WritingTone      `json:"tone"`
	Input     string           `json:"input"`
	Text      string           `json:"text,omitempty"`
	Segments  []SegmentView    `json:"segments,omitempty"`
	Image     *ImageResult     `json:"image,omitempty"`
	Failure   *GenerationError `json:"failure,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

// IsFailure reports whether the result carries a failure.
func (r *GenerationResult) IsFailure() bool {
	return r.Kind == ResultKindFailure
}

// ImageResult holds a generated image
type ImageResult struct {
	DataURL  string `json:"dataUrl"`
	AltText  string `json:"altText"`
	MIMEType string `json:"mimeType"`
	FileURL  string `json:"fileUrl,omitempty"`
}

// GenerationError is the user-facing failure of a generation
type GenerationError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// SegmentView is a segment with its rendered HTML and copy indicator
type SegmentView struct {
	segment.Segment
	HTML   string `json:"html"`
	Copied bool   `json:"copied"`
}

// LastResultResponse is returned by GET /api/generations/last
type LastResultResponse struct {
	Result    *GenerationResult `json:"result"`
	AllCopied bool              `json:"allCopied"`
}

// CopyRequest marks a segment (or, when empty, the full text) as copied
type CopyRequest struct {
	SegmentID string `json:"segmentId" validate:"omitempty,max=64"`
}

// CopyResponse carries the text placed on the clipboard
type CopyResponse struct {
	SegmentID string `json:"segmentId,omitempty"`
	Text      string `json:"text"`
	CopiedFor int    `json:"copiedForMs"`
}

// SegmentsRequest asks for segmentation of arbitrary text
type SegmentsRequest struct {
	Text string `json:"text" validate:"max=200000"`
}

// SegmentsResponse holds segmented, rendered text
type SegmentsResponse struct {
	Segments []SegmentView `json:"segments"`
}
