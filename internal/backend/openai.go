package backend

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/contentwriter/api/internal/config"
)

// OpenAIClient calls an OpenAI-compatible API for text and images
type OpenAIClient struct {
	client openai.Client
}

// NewOpenAIClient creates a client for the configured base URL
func NewOpenAIClient(cfg *config.OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{client: openai.NewClient(opts...)}, nil
}

// GenerateText implements TextBackend
func (c *OpenAIClient) GenerateText(ctx context.Context, req TextRequest) (*TextResponse, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(req.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		},
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return &TextResponse{}, nil
	}

	return &TextResponse{Text: resp.Choices[0].Message.Content}, nil
}

// GenerateImage implements ImageBackend. Images are requested as base64 JSON.
func (c *OpenAIClient) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResponse, error) {
	count := req.Count
	if count <= 0 {
		count = 1
	}

	resp, err := c.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         req.Prompt,
		Model:          openai.ImageModel(req.Model),
		N:              openai.Int(int64(count)),
		ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
	})
	if err != nil {
		return nil, err
	}

	// The API returns PNG unless an output format is negotiated.
	out := &ImageResponse{MIMEType: "image/png"}
	for _, img := range resp.Data {
		if img.B64JSON == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(img.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("failed to decode image data: %w", err)
		}
		out.Images = append(out.Images, data)
	}

	return out, nil
}
