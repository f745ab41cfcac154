// Package segment splits generated text into prose and fenced code blocks.
//
// A fence opens with three backticks, an optional language tag made of word
// characters and a newline. It closes at the first following "\n```". The
// opening backticks may appear anywhere in the text and the closing
// backticks need not end a line. Fences without a close stay in the
// surrounding prose.
package segment

import (
	"fmt"
	"strings"
)

// Kind is the type of a segment.
type Kind string

const (
	KindProse Kind = "prose"
	KindCode  Kind = "code"
)

const fence = "```"

// Segment is one piece of segmented text. Prose text is kept verbatim; code
// text is the fence body with surrounding whitespace trimmed.
type Segment struct {
	ID       string `json:"id"`
	Kind     Kind   `json:"kind"`
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

// IsCode reports whether the segment is a fenced code block.
func (s Segment) IsCode() bool {
	return s.Kind == KindCode
}

type state int

const (
	stateProse state = iota
	stateTag
	stateBody
)

// Split segments text. Empty input yields an empty slice.
func Split(text string) []Segment {
	segments := []Segment{}
	if text == "" {
		return segments
	}

	s := &scanner{text: text}
	for {
		open, lang, bodyStart, ok := s.nextOpen()
		if !ok {
			break
		}
		bodyEnd := strings.Index(text[bodyStart:], "\n"+fence)
		if bodyEnd < 0 {
			// A later opener would need a close further right; none exists.
			break
		}
		bodyEnd += bodyStart

		if open > s.last {
			segments = append(segments, s.emit(KindProse, text[s.last:open], ""))
		}
		segments = append(segments, s.emit(KindCode, strings.TrimSpace(text[bodyStart:bodyEnd]), lang))
		s.last = bodyEnd + 1 + len(fence)
		s.pos = s.last
	}

	if s.last < len(text) {
		segments = append(segments, s.emit(KindProse, text[s.last:], ""))
	}
	return segments
}

type scanner struct {
	text    string
	pos     int // next index to search for an opener
	last    int // end of the last consumed fence
	counter int
}

func (s *scanner) emit(kind Kind, text, lang string) Segment {
	prefix := "text"
	if kind == KindCode {
		prefix = "code"
	}
	seg := Segment{
		ID:       fmt.Sprintf("%s-%d", prefix, s.counter),
		Kind:     kind,
		Text:     text,
		Language: lang,
	}
	s.counter++
	return seg
}

// nextOpen finds the leftmost opening fence at or after s.pos. It returns the
// opener index, the language tag and the index where the body starts.
func (s *scanner) nextOpen() (open int, lang string, bodyStart int, ok bool) {
	st := stateProse
	tagStart := 0
	for i := s.pos; i < len(s.text); {
		switch st {
		case stateProse:
			idx := strings.Index(s.text[i:], fence)
			if idx < 0 {
				return 0, "", 0, false
			}
			open = i + idx
			i = open + len(fence)
			tagStart = i
			st = stateTag
		case stateTag:
			c := s.text[i]
			switch {
			case isWordChar(c):
				i++
			case c == '\n':
				lang = s.text[tagStart:i]
				i++
				st = stateBody
			default:
				// Not an opener here; retry one byte past the last candidate.
				i = open + 1
				st = stateProse
			}
		case stateBody:
			return open, lang, i, true
		}
	}
	if st == stateBody {
		return open, lang, len(s.text), true
	}
	return 0, "", 0, false
}

func isWordChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// Join rebuilds source text from segments by re-wrapping code segments in
// fences. It reproduces the input of Split whenever code bodies carry no
// surrounding whitespace.
func Join(segments []Segment) string {
	var b strings.Builder
	for _, seg := range segments {
		if seg.Kind == KindCode {
			b.WriteString(fence)
			b.WriteString(seg.Language)
			b.WriteByte('\n')
			b.WriteString(seg.Text)
			b.WriteByte('\n')
			b.WriteString(fence)
			continue
		}
		b.WriteString(seg.Text)
	}
	return b.String()
}

// Find returns the segment with the given id.
func Find(segments []Segment, id string) (Segment, bool) {
	for _, seg := range segments {
		if seg.ID == id {
			return seg, true
		}
	}
	return Segment{}, false
}
