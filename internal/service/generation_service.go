package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/contentwriter/api/internal/backend"
	"github.com/contentwriter/api/internal/client"
	"github.com/contentwriter/api/internal/clipboard"
	"github.com/contentwriter/api/internal/metrics"
	"github.com/contentwriter/api/internal/model"
	"github.com/contentwriter/api/internal/prompt"
	"github.com/contentwriter/api/internal/render"
	"github.com/contentwriter/api/internal/segment"
	"github.com/contentwriter/api/internal/store"
)

var (
	ErrNoResult        = errors.New("no generation result")
	ErrNotTextResult   = errors.New("last result has no text content")
	ErrNotImageResult  = errors.New("last result has no image")
	ErrSegmentNotFound = errors.New("code segment not found")
)

const (
	defaultGenerationTimeout = 60 * time.Second
	fallbackImageName        = "generated_image"
	downloadNameLength       = 30
)

// ResultRepository stores the last result of each user
type ResultRepository interface {
	SaveResult(ctx context.Context, result *model.GenerationResult) error
	LastResult(ctx context.Context, userID string) (*model.GenerationResult, error)
}

// TopicsDispatcher starts a related topics lookup for a finished generation
type TopicsDispatcher interface {
	Dispatch(ctx context.Context, payload model.RelatedTopicsPayload) error
}

// CopyTracker records transient "copied" marks
type CopyTracker interface {
	MarkCopied(ctx context.Context, userID, id string) error
	Copied(ctx context.Context, userID string) (map[string]bool, error)
	Reset(ctx context.Context, userID string) error
	TTL() time.Duration
}

// GenerationService turns generation requests into results
type GenerationService struct {
	provider *backend.Provider
	classify backend.Classifier
	renderer *render.Renderer
	results  ResultRepository
	topics   TopicsDispatcher
	tracker  CopyTracker
	archive  client.StorageClient
	timeout  time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

// NewGenerationService creates a generation service. archive may be nil.
func NewGenerationService(
	provider *backend.Provider,
	results ResultRepository,
	topics TopicsDispatcher,
	tracker CopyTracker,
	archive client.StorageClient,
	log zerolog.Logger,
) *GenerationService {
	return &GenerationService{
		provider: provider,
		classify: backend.DefaultClassifier,
		renderer: render.New(),
		results:  results,
		topics:   topics,
		tracker:  tracker,
		archive:  archive,
		timeout:  defaultGenerationTimeout,
		log:      log.With().Str("component", "generation").Logger(),
		now:      time.Now,
	}
}

// SetClassifier replaces the backend error classifier
func (s *GenerationService) SetClassifier(c backend.Classifier) {
	if c != nil {
		s.classify = c
	}
}

// SetTimeout bounds each backend call
func (s *GenerationService) SetTimeout(d time.Duration) {
	if d > 0 {
		s.timeout = d
	}
}

// Generate runs one generation for userID and stores it as the user's last
// result. Backend failures are reported inside the result; the returned
// error is set only when the result could not be stored.
func (s *GenerationService) Generate(ctx context.Context, userID string, req model.GenerateRequest) (*model.GenerationResult, error) {
	req = req.WithDefaults()
	result := &model.GenerationResult{
		ID:        uuid.New().String(),
		UserID:    userID,
		Mode:      req.Mode,
		Tone:      req.Tone,
		Input:     req.Input,
		CreatedAt: s.now().UTC(),
	}

	start := s.now()
	switch {
	case strings.TrimSpace(req.Input) == "":
		s.fail(result, model.ErrorKindEmptyInput, emptyInputMessage(req.Mode))
	case req.Mode.IsImage():
		result.Tone = ""
		s.generateImage(ctx, result)
	default:
		s.generateText(ctx, result, req)
	}

	outcome := "success"
	if result.IsFailure() {
		outcome = string(result.Failure.Kind)
	}
	metrics.RecordGeneration(string(req.Mode), outcome, s.now().Sub(start).Seconds())

	if s.tracker != nil {
		if err := s.tracker.Reset(ctx, userID); err != nil {
			s.log.Warn().Err(err).Str("user", userID).Msg("failed to reset copy marks")
		}
	}
	if err := s.results.SaveResult(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to store result: %w", err)
	}

	if result.Kind == model.ResultKindText && result.Text != "" {
		s.dispatchTopics(ctx, result)
	}

	s.log.Info().
		Str("generation", result.ID).
		Str("user", userID).
		Str("mode", string(req.Mode)).
		Str("outcome", outcome).
		Msg("generation finished")

	return result, nil
}

func (s *GenerationService) generateText(ctx context.Context, result *model.GenerationResult, req model.GenerateRequest) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.provider.Text.GenerateText(callCtx, backend.TextRequest{
		Model:  s.provider.TextModel,
		Prompt: prompt.Compile(req),
	})
	if err != nil {
		s.failFromError(result, backend.OperationText, err)
		return
	}

	text, err := backend.ParseTextPayload(resp.Text)
	if err != nil {
		s.fail(result, model.ErrorKindBackendError, err.Error())
		return
	}

	result.Kind = model.ResultKindText
	result.Text = text
	result.Segments = s.renderer.Views(segment.Split(text))
}

func (s *GenerationService) generateImage(ctx context.Context, result *model.GenerationResult) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.provider.Image.GenerateImage(callCtx, backend.ImageRequest{
		Model:    s.provider.ImageModel,
		Prompt:   result.Input,
		Count:    1,
		MIMEType: backend.DefaultImageMIMEType,
	})
	if err != nil {
		s.failFromError(result, backend.OperationImage, err)
		return
	}
	if resp == nil || len(resp.Images) == 0 || len(resp.Images[0]) == 0 {
		s.fail(result, model.ErrorKindMalformedResponse,
			backend.Message(model.ErrorKindMalformedResponse, backend.OperationImage, nil))
		return
	}

	mimeType := resp.MIMEType
	if mimeType == "" {
		mimeType = backend.DefaultImageMIMEType
	}
	data := resp.Images[0]

	result.Kind = model.ResultKindImage
	result.Image = &model.ImageResult{
		DataURL:  fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data)),
		AltText:  result.Input,
		MIMEType: mimeType,
	}
	result.Image.FileURL = s.archiveImage(ctx, result, data, mimeType)
}

// archiveImage copies the image to object storage. Failures are logged only.
func (s *GenerationService) archiveImage(ctx context.Context, result *model.GenerationResult, data []byte, mimeType string) string {
	if s.archive == nil {
		return ""
	}

	key := fmt.Sprintf("images/%s/%s%s", result.UserID, result.ID, imageExtension(mimeType))
	url, err := s.archive.Upload(ctx, key, bytes.NewReader(data), mimeType)
	if err != nil {
		metrics.RecordArchive("error")
		s.log.Warn().Err(err).Str("generation", result.ID).Msg("failed to archive image")
		return ""
	}
	metrics.RecordArchive("success")
	return url
}

func (s *GenerationService) dispatchTopics(ctx context.Context, result *model.GenerationResult) {
	if s.topics == nil {
		return
	}
	err := s.topics.Dispatch(ctx, model.RelatedTopicsPayload{
		UserID:       result.UserID,
		GenerationID: result.ID,
		Input:        result.Input,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("generation", result.ID).Msg("failed to dispatch related topics")
	}
}

func (s *GenerationService) failFromError(result *model.GenerationResult, op backend.Operation, err error) {
	kind := s.classify(err, op)
	s.log.Debug().Err(err).Str("generation", result.ID).Str("kind", string(kind)).Msg("backend call failed")
	s.fail(result, kind, backend.Message(kind, op, err))
}

func (s *GenerationService) fail(result *model.GenerationResult, kind model.ErrorKind, message string) {
	result.Kind = model.ResultKindFailure
	result.Text = ""
	result.Segments = nil
	result.Image = nil
	result.Failure = &model.GenerationError{Kind: kind, Message: message}
}

// Last returns the user's last result with its copy indicators
func (s *GenerationService) Last(ctx context.Context, userID string) (*model.LastResultResponse, error) {
	result, err := s.lastResult(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &model.LastResultResponse{Result: result}
	if s.tracker == nil {
		return resp, nil
	}

	copied, err := s.tracker.Copied(ctx, userID)
	if err != nil {
		s.log.Warn().Err(err).Str("user", userID).Msg("failed to read copy marks")
		return resp, nil
	}
	for i := range result.Segments {
		result.Segments[i].Copied = copied[result.Segments[i].ID]
	}
	resp.AllCopied = copied[clipboard.AllID]
	return resp, nil
}

// Copy returns the text to copy for segmentID, or the full text when
// segmentID is empty, and marks it as copied.
func (s *GenerationService) Copy(ctx context.Context, userID, segmentID string) (*model.CopyResponse, error) {
	result, err := s.lastResult(ctx, userID)
	if err != nil {
		return nil, err
	}
	if result.Kind != model.ResultKindText || result.Text == "" {
		return nil, ErrNotTextResult
	}

	resp := &model.CopyResponse{SegmentID: segmentID, Text: result.Text}
	markID := clipboard.AllID
	if segmentID != "" {
		seg, ok := findSegment(result.Segments, segmentID)
		if !ok || !seg.IsCode() {
			return nil, ErrSegmentNotFound
		}
		resp.Text = seg.Text
		markID = segmentID
	}

	if s.tracker != nil {
		resp.CopiedFor = int(s.tracker.TTL().Milliseconds())
		if err := s.tracker.MarkCopied(ctx, userID, markID); err != nil {
			s.log.Warn().Err(err).Str("user", userID).Msg("failed to mark copied")
		}
	}
	return resp, nil
}

// Download returns the bytes of the user's last image and a file name
func (s *GenerationService) Download(ctx context.Context, userID string) ([]byte, string, string, error) {
	result, err := s.lastResult(ctx, userID)
	if err != nil {
		return nil, "", "", err
	}
	if result.Kind != model.ResultKindImage || result.Image == nil {
		return nil, "", "", ErrNotImageResult
	}

	data, err := decodeDataURL(result.Image.DataURL)
	if err != nil {
		return nil, "", "", err
	}
	return data, result.Image.MIMEType, DownloadFilename(result.Image.AltText, result.Image.MIMEType), nil
}

// RenderSegments segments and renders arbitrary text
func (s *GenerationService) RenderSegments(text string) []model.SegmentView {
	return s.renderer.Views(segment.Split(text))
}

func (s *GenerationService) lastResult(ctx context.Context, userID string) (*model.GenerationResult, error) {
	result, err := s.results.LastResult(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrResultNotFound) {
			return nil, ErrNoResult
		}
		return nil, err
	}
	return result, nil
}

func findSegment(views []model.SegmentView, id string) (segment.Segment, bool) {
	for _, v := range views {
		if v.ID == id {
			return v.Segment, true
		}
	}
	return segment.Segment{}, false
}

func emptyInputMessage(mode model.GenerationMode) string {
	noun := "text"
	if mode.IsImage() {
		noun = "description"
	}
	return fmt.Sprintf("Please enter a topic or %s to generate content.", noun)
}

// DownloadFilename builds the attachment name for an image: the first 30
// characters of the alt text with whitespace runs replaced by underscores.
func DownloadFilename(altText, mimeType string) string {
	runes := []rune(altText)
	if len(runes) > downloadNameLength {
		runes = runes[:downloadNameLength]
	}

	var b strings.Builder
	inSpace := false
	for _, r := range runes {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte('_')
			}
			inSpace = true
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}

	name := b.String()
	if name == "" {
		name = fallbackImageName
	}
	return name + imageExtension(mimeType)
}

func imageExtension(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpeg"
	}
}

func decodeDataURL(dataURL string) ([]byte, error) {
	idx := strings.Index(dataURL, ";base64,")
	if !strings.HasPrefix(dataURL, "data:") || idx < 0 {
		return nil, fmt.Errorf("invalid image data url")
	}
	data, err := base64.StdEncoding.DecodeString(dataURL[idx+len(";base64,"):])
	if err != nil {
		return nil, fmt.Errorf("failed to decode image data: %w", err)
	}
	return data, nil
}
