// Package backend adapts generative AI providers to the text and image
// generation calls used by the generation service.
package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/contentwriter/api/internal/config"
)

// Operation names the kind of backend call.
type Operation string

const (
	OperationText  Operation = "text"
	OperationImage Operation = "image"
)

const DefaultImageMIMEType = "image/jpeg"

// TextRequest is a single text generation call
type TextRequest struct {
	Model       string
	Prompt      string
	Temperature *float64
}

// TextResponse carries generated text
type TextResponse struct {
	Text string
}

// ImageRequest is a single image generation call
type ImageRequest struct {
	Model    string
	Prompt   string
	Count    int
	MIMEType string
}

// ImageResponse carries zero or more generated images
type ImageResponse struct {
	Images   [][]byte
	MIMEType string
}

// TextBackend generates text from a prompt
type TextBackend interface {
	GenerateText(ctx context.Context, req TextRequest) (*TextResponse, error)
}

// ImageBackend generates images from a prompt
type ImageBackend interface {
	GenerateImage(ctx context.Context, req ImageRequest) (*ImageResponse, error)
}

// Provider bundles the backends and model names for one configured provider.
type Provider struct {
	Name       string
	Text       TextBackend
	Image      ImageBackend
	TextModel  string
	ImageModel string
}

// New builds the provider selected by cfg.Backend.Provider.
func New(ctx context.Context, cfg *config.Config) (*Provider, error) {
	switch strings.ToLower(cfg.Backend.Provider) {
	case "gemini", "":
		client, err := NewGeminiClient(ctx, &cfg.Gemini)
		if err != nil {
			return nil, err
		}
		return &Provider{
			Name:       "gemini",
			Text:       client,
			Image:      client,
			TextModel:  cfg.Gemini.TextModel,
			ImageModel: cfg.Gemini.ImageModel,
		}, nil
	case "openai":
		client, err := NewOpenAIClient(&cfg.OpenAI)
		if err != nil {
			return nil, err
		}
		return &Provider{
			Name:       "openai",
			Text:       client,
			Image:      client,
			TextModel:  cfg.OpenAI.TextModel,
			ImageModel: cfg.OpenAI.ImageModel,
		}, nil
	case "mock":
		mock := NewMockClient()
		return &Provider{
			Name:       "mock",
			Text:       mock,
			Image:      mock,
			TextModel:  "mock-text",
			ImageModel: "mock-image",
		}, nil
	default:
		return nil, fmt.Errorf("unknown backend provider %q", cfg.Backend.Provider)
	}
}
