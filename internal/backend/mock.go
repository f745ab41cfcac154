package backend

import (
	"context"
	"fmt"
	"strings"
)

// mockJPEG is a 1x1 white JPEG.
var mockJPEG = []byte{
	0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 0x4a, 0x46, 0x49, 0x46, 0x00, 0x01,
	0x01, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0xff, 0xdb, 0x00, 0x43,
	0x00, 0x03, 0x02, 0x02, 0x02, 0x02, 0x02, 0x03, 0x02, 0x02, 0x02, 0x03,
	0x03, 0x03, 0x03, 0x04, 0x06, 0x04, 0x04, 0x04, 0x04, 0x04, 0x08, 0x06,
	0x06, 0x05, 0x06, 0x09, 0x08, 0x0a, 0x0a, 0x09, 0x08, 0x09, 0x09, 0x0a,
	0x0c, 0x0f, 0x0c, 0x0a, 0x0b, 0x0e, 0x0b, 0x09, 0x09, 0x0d, 0x11, 0x0d,
	0x0e, 0x0f, 0x10, 0x10, 0x11, 0x10, 0x0a, 0x0c, 0x12, 0x13, 0x12, 0x10,
	0x13, 0x0f, 0x10, 0x10, 0x10, 0xff, 0xc9, 0x00, 0x0b, 0x08, 0x00, 0x01,
	0x00, 0x01, 0x01, 0x01, 0x11, 0x00, 0xff, 0xcc, 0x00, 0x06, 0x00, 0x10,
	0x10, 0x05, 0xff, 0xda, 0x00, 0x08, 0x01, 0x01, 0x00, 0x00, 0x3f, 0x00,
	0xd2, 0xcf, 0x20, 0xff, 0xd9,
}

// MockClient returns canned content for development and tests
type MockClient struct{}

// NewMockClient creates a mock backend
func NewMockClient() *MockClient {
	return &MockClient{}
}

// GenerateText implements TextBackend
func (m *MockClient) GenerateText(ctx context.Context, req TextRequest) (*TextResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if strings.HasPrefix(req.Prompt, "Based on the topic or query:") {
		return &TextResponse{Text: "Getting started guides\nCommon pitfalls\nAdvanced techniques\n"}, nil
	}

	text := fmt.Sprintf("# Draft\n\nThis is generated content for the request below.\n\n```text\n%s\n```\n\nThanks for reading.", req.Prompt)
	return &TextResponse{Text: text}, nil
}

// GenerateImage implements ImageBackend
func (m *MockClient) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img := make([]byte, len(mockJPEG))
	copy(img, mockJPEG)
	return &ImageResponse{Images: [][]byte{img}, MIMEType: DefaultImageMIMEType}, nil
}
