package narrative

import (
	"strconv"
	"strings"
	"unicode"
)

// SegmentType classifies a unit of narrative text.
type SegmentType string

const (
	SegmentWord           SegmentType = "word"
	SegmentLineBreak      SegmentType = "line-break"
	SegmentParagraphBreak SegmentType = "paragraph-break"
)

// Segment is one displayable unit. ID is positional and stable for a given text.
type Segment struct {
	ID   string      `json:"id"`
	Text string      `json:"text"`
	Type SegmentType `json:"type"`
}

// Tokenize splits text into maximal runs of whitespace and non-whitespace.
// Whitespace runs holding two consecutive newlines become paragraph breaks,
// runs holding a single newline become line breaks, and every other run
// (including plain spaces) is a word. Joining the Text of all segments
// yields the input unchanged.
func Tokenize(text string) []Segment {
	if text == "" {
		return nil
	}

	var segments []Segment
	start := 0
	inSpace := false
	for i, r := range text {
		space := unicode.IsSpace(r)
		if i == 0 {
			inSpace = space
			continue
		}
		if space != inSpace {
			segments = appendSegment(segments, text[start:i], inSpace)
			start = i
			inSpace = space
		}
	}
	return appendSegment(segments, text[start:], inSpace)
}

func appendSegment(segments []Segment, run string, space bool) []Segment {
	typ := SegmentWord
	if space {
		switch {
		case strings.Contains(run, "\n\n"):
			typ = SegmentParagraphBreak
		case strings.Contains(run, "\n"):
			typ = SegmentLineBreak
		}
	}
	return append(segments, Segment{
		ID:   "segment-" + strconv.Itoa(len(segments)),
		Text: run,
		Type: typ,
	})
}

// Join concatenates segment texts.
func Join(segments []Segment) string {
	var sb strings.Builder
	for _, s := range segments {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// Words counts the segments that carry visible text.
func Words(segments []Segment) int {
	n := 0
	for _, s := range segments {
		if s.Type == SegmentWord && strings.TrimSpace(s.Text) != "" {
			n++
		}
	}
	return n
}
