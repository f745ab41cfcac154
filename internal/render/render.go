// Package render turns segmented content into HTML fragments.
package render

import (
	"bytes"
	"fmt"
	stdhtml "html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/contentwriter/api/internal/model"
	"github.com/contentwriter/api/internal/segment"
)

// Renderer converts prose through Markdown and wraps code in pre blocks.
type Renderer struct {
	md goldmark.Markdown
}

// New creates a renderer. Raw HTML in prose is not passed through.
func New() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}
}

// Segment renders a single segment.
func (r *Renderer) Segment(seg segment.Segment) (string, error) {
	if seg.IsCode() {
		return codeBlock(seg), nil
	}

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(seg.Text), &buf); err != nil {
		return "", fmt.Errorf("failed to render segment %s: %w", seg.ID, err)
	}
	return buf.String(), nil
}

// Views renders all segments. A prose segment that fails to render falls
// back to escaped text.
func (r *Renderer) Views(segments []segment.Segment) []model.SegmentView {
	views := make([]model.SegmentView, 0, len(segments))
	for _, seg := range segments {
		out, err := r.Segment(seg)
		if err != nil {
			out = "<p>" + stdhtml.EscapeString(seg.Text) + "</p>"
		}
		views = append(views, model.SegmentView{Segment: seg, HTML: out})
	}
	return views
}

func codeBlock(seg segment.Segment) string {
	body := stdhtml.EscapeString(seg.Text)
	if seg.Language == "" {
		return "<pre><code>" + body + "</code></pre>"
	}
	return fmt.Sprintf(`<pre><code class="language-%s">%s</code></pre>`, seg.Language, body)
}
