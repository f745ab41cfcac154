package model

// Generation modes
type GenerationMode string

const (
	ModeBlogPost      GenerationMode = "blog_post"
	ModeRewrite       GenerationMode = "rewrite"
	ModeSummarize     GenerationMode = "summarize"
	ModeSEOContent    GenerationMode = "seo_content"
	ModeGenerateImage GenerationMode = "generate_image"
)

var ValidGenerationModes = []GenerationMode{
	ModeBlogPost, ModeRewrite, ModeSummarize, ModeSEOContent, ModeGenerateImage,
}

const DefaultGenerationMode = ModeBlogPost

var modeLabels = map[GenerationMode]string{
	ModeBlogPost:      "Blog Post",
	ModeRewrite:       "Rewrite Text",
	ModeSummarize:     "Summarize Content",
	ModeSEOContent:    "SEO Optimized Content",
	ModeGenerateImage: "Generate Image",
}

// Label returns the display name of the mode.
func (m GenerationMode) Label() string {
	if label, ok := modeLabels[m]; ok {
		return label
	}
	return string(m)
}

// IsImage reports whether the mode goes to the image backend.
func (m GenerationMode) IsImage() bool {
	return m == ModeGenerateImage
}

// Writing tones
type WritingTone string

const (
	ToneDefault      WritingTone = "default"
	ToneFriendly     WritingTone = "friendly"
	ToneFormal       WritingTone = "formal"
	ToneProfessional WritingTone = "professional"
	ToneCasual       WritingTone = "casual"
	ToneAcademic     WritingTone = "academic"
)

var ValidWritingTones = []WritingTone{
	ToneDefault, ToneFriendly, ToneFormal, ToneProfessional, ToneCasual, ToneAcademic,
}

const DefaultWritingTone = ToneDefault

var toneLabels = map[WritingTone]string{
	ToneDefault:      "Default",
	ToneFriendly:     "Friendly",
	ToneFormal:       "Formal",
	ToneProfessional: "Professional",
	ToneCasual:       "Casual",
	ToneAcademic:     "Academic",
}

func (t WritingTone) Label() string {
	if label, ok := toneLabels[t]; ok {
		return label
	}
	return string(t)
}

// Job status
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// ErrorKind tags a failed generation.
type ErrorKind string

const (
	ErrorKindEmptyInput        ErrorKind = "EmptyInput"
	ErrorKindAuthFailure       ErrorKind = "AuthFailure"
	ErrorKindQuotaExceeded     ErrorKind = "QuotaExceeded"
	ErrorKindContentFiltered   ErrorKind = "ContentFiltered"
	ErrorKindBackendError      ErrorKind = "BackendError"
	ErrorKindMalformedResponse ErrorKind = "MalformedResponse"
)

// Result kinds
type ResultKind string

const (
	ResultKindText    ResultKind = "text"
	ResultKindImage   ResultKind = "image"
	ResultKindFailure ResultKind = "failure"
)

// Option is a selectable value with its display label
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// OptionsResponse lists the generation modes and writing tones
type OptionsResponse struct {
	Modes       []Option       `json:"modes"`
	Tones       []Option       `json:"tones"`
	DefaultMode GenerationMode `json:"defaultMode"`
	DefaultTone WritingTone    `json:"defaultTone"`
}

// Options returns every mode and tone in display order.
func Options() OptionsResponse {
	resp := OptionsResponse{
		Modes:       make([]Option, 0, len(ValidGenerationModes)),
		Tones:       make([]Option, 0, len(ValidWritingTones)),
		DefaultMode: DefaultGenerationMode,
		DefaultTone: DefaultWritingTone,
	}
	for _, m := range ValidGenerationModes {
		resp.Modes = append(resp.Modes, Option{Value: string(m), Label: m.Label()})
	}
	for _, t := range ValidWritingTones {
		resp.Tones = append(resp.Tones, Option{Value: string(t), Label: t.Label()})
	}
	return resp
}
