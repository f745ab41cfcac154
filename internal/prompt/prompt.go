// Package prompt builds the instruction text sent to the text backend.
package prompt

import (
	"fmt"
	"strings"

	"github.com/contentwriter/api/internal/model"
)

const (
	blogPostTemplate  = `Generate a comprehensive and engaging blog post about the following topic: "%s".`
	rewriteTemplate   = `Rewrite the following text to improve clarity, engagement, or style: "%s".`
	summarizeTemplate = `Provide a concise summary of the following content: "%s". Focus on the key points and main ideas.`
	seoTemplate       = `Create SEO-optimized content for the topic: "%s". Include a compelling title, a meta description (around 155-160 characters), and naturally integrate relevant keywords throughout the content. The content should be informative and engaging for the target audience.`

	rewriteToneTemplate   = `Rewrite the following text in a %s tone: "%s".`
	consistentToneClause  = ` The writing tone should be consistently %s.`
	summarizeToneClause   = ` Ensure the summary is written in a %s tone where appropriate for the content's nature.`
	relatedTopicsTemplate = `Based on the topic or query: "%s", suggest 3-5 related topics or search queries that a user might be interested in exploring next. Provide each topic on a new line, without any numbering or bullet points.`
)

// Compile returns the prompt for req. Image requests and unknown modes pass
// the raw input through unchanged.
func Compile(req model.GenerateRequest) string {
	in := req.Input

	var out string
	switch req.Mode {
	case model.ModeBlogPost:
		out = fmt.Sprintf(blogPostTemplate, in)
	case model.ModeRewrite:
		out = fmt.Sprintf(rewriteTemplate, in)
	case model.ModeSummarize:
		out = fmt.Sprintf(summarizeTemplate, in)
	case model.ModeSEOContent:
		out = fmt.Sprintf(seoTemplate, in)
	default:
		return in
	}

	if req.Tone == "" || req.Tone == model.ToneDefault {
		return out
	}

	tone := strings.ToLower(string(req.Tone))
	switch req.Mode {
	case model.ModeRewrite:
		out = fmt.Sprintf(rewriteToneTemplate, tone, in)
	case model.ModeBlogPost, model.ModeSEOContent:
		out += fmt.Sprintf(consistentToneClause, tone)
	case model.ModeSummarize:
		out += fmt.Sprintf(summarizeToneClause, tone)
	}
	return out
}

// RelatedTopics returns the prompt asking for follow-up topics on input.
func RelatedTopics(input string) string {
	return fmt.Sprintf(relatedTopicsTemplate, input)
}

// ParseTopics splits a related topics response into trimmed, non-empty lines.
func ParseTopics(text string) []string {
	topics := []string{}
	for _, line := range strings.Split(text, "\n") {
		if topic := strings.TrimSpace(line); topic != "" {
			topics = append(topics, topic)
		}
	}
	return topics
}
