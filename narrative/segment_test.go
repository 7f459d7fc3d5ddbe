package narrative

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize_Classification(t *testing.T) {
	segments := Tokenize("Hello world.\nSecond line.\n\nNew paragraph.")

	want := []struct {
		text string
		typ  SegmentType
	}{
		{"Hello", SegmentWord},
		{" ", SegmentWord},
		{"world.", SegmentWord},
		{"\n", SegmentLineBreak},
		{"Second", SegmentWord},
		{" ", SegmentWord},
		{"line.", SegmentWord},
		{"\n\n", SegmentParagraphBreak},
		{"New", SegmentWord},
		{" ", SegmentWord},
		{"paragraph.", SegmentWord},
	}

	require.Len(t, segments, len(want))
	for i, w := range want {
		assert.Equal(t, w.text, segments[i].Text, "segment %d", i)
		assert.Equal(t, w.typ, segments[i].Type, "segment %d", i)
	}
	assert.Equal(t, 6, Words(segments))
}

func TestTokenize_WhitespaceRuns(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []SegmentType
	}{
		{"empty", "", nil},
		{"only spaces", "   ", []SegmentType{SegmentWord}},
		{"triple newline is one paragraph break", "a\n\n\nb", []SegmentType{SegmentWord, SegmentParagraphBreak, SegmentWord}},
		{"newline with spaces around", "a \n b", []SegmentType{SegmentWord, SegmentLineBreak, SegmentWord}},
		{"separated newlines stay a line break", "a\n \nb", []SegmentType{SegmentWord, SegmentLineBreak, SegmentWord}},
		{"leading and trailing breaks", "\n\nword\n", []SegmentType{SegmentParagraphBreak, SegmentWord, SegmentLineBreak}},
		{"tabs are whitespace", "a\tb", []SegmentType{SegmentWord, SegmentWord, SegmentWord}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segments := Tokenize(tt.in)
			var got []SegmentType
			for _, s := range segments {
				got = append(got, s.Type)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenize_RoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"single",
		"  leading spaces",
		"trailing newline\n",
		"Mixed\r\nline endings\r\n\r\nand paragraphs",
		"unicode \u2014 dashes and\u00a0non-breaking spaces",
		"Hello world.\nSecond line.\n\nNew paragraph.",
	}

	for _, in := range inputs {
		assert.Equal(t, in, Join(Tokenize(in)))
	}
}

func TestTokenize_StableIDs(t *testing.T) {
	segments := Tokenize("one two\nthree")

	for i, s := range segments {
		assert.Equal(t, "segment-"+strconv.Itoa(i), s.ID)
	}
	assert.Equal(t, segments, Tokenize("one two\nthree"))
}
