package backend

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/contentwriter/api/internal/config"
)

// GeminiClient calls the Gemini API for text and Imagen for images
type GeminiClient struct {
	client *genai.Client
}

// NewGeminiClient creates a Gemini client from the API key in cfg
func NewGeminiClient(ctx context.Context, cfg *config.GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiClient{client: client}, nil
}

// GenerateText implements TextBackend
func (c *GeminiClient) GenerateText(ctx context.Context, req TextRequest) (*TextResponse, error) {
	var genCfg *genai.GenerateContentConfig
	if req.Temperature != nil {
		temp := float32(*req.Temperature)
		genCfg = &genai.GenerateContentConfig{Temperature: &temp}
	}

	model := strings.TrimPrefix(req.Model, "models/")
	resp, err := c.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), genCfg)
	if err != nil {
		return nil, err
	}

	return &TextResponse{Text: resp.Text()}, nil
}

// GenerateImage implements ImageBackend
func (c *GeminiClient) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResponse, error) {
	mimeType := req.MIMEType
	if mimeType == "" {
		mimeType = DefaultImageMIMEType
	}
	count := req.Count
	if count <= 0 {
		count = 1
	}

	resp, err := c.client.Models.GenerateImages(ctx, req.Model, req.Prompt, &genai.GenerateImagesConfig{
		NumberOfImages: int32(count),
		OutputMIMEType: mimeType,
	})
	if err != nil {
		return nil, err
	}
	return imagesFromResponse(resp, mimeType), nil
}

// imagesFromResponse keeps the images that carry bytes. Images dropped by
// the safety filter come back without bytes and are skipped, so a fully
// filtered response is an empty one.
func imagesFromResponse(resp *genai.GenerateImagesResponse, mimeType string) *ImageResponse {
	out := &ImageResponse{MIMEType: mimeType}
	if resp == nil {
		return out
	}
	for _, img := range resp.GeneratedImages {
		if img == nil || img.Image == nil || len(img.Image.ImageBytes) == 0 {
			continue
		}
		out.Images = append(out.Images, img.Image.ImageBytes)
		if img.Image.MIMEType != "" {
			out.MIMEType = img.Image.MIMEType
		}
	}
	return out
}
