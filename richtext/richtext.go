// Package richtext models the block-structured rich text stored by the content
// studio and converts it to plain text (for generation prompts) and HTML.
package richtext

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	TypeBlock = "block"
	TypeSpan  = "span"
)

// Span is an inline run of text carrying decorator marks and mark definition keys.
type Span struct {
	Type  string   `json:"_type" bson:"_type" yaml:"_type"`
	Key   string   `json:"_key,omitempty" bson:"_key,omitempty" yaml:"_key,omitempty"`
	Text  string   `json:"text" bson:"text" yaml:"text"`
	Marks []string `json:"marks,omitempty" bson:"marks,omitempty" yaml:"marks,omitempty"`
}

// MarkDef is an annotation referenced from a span's marks by key.
type MarkDef struct {
	Key  string `json:"_key" bson:"_key" yaml:"_key"`
	Type string `json:"_type" bson:"_type" yaml:"_type"`
	Href string `json:"href,omitempty" bson:"href,omitempty" yaml:"href,omitempty"`
}

type Block struct {
	Type     string    `json:"_type" bson:"_type" yaml:"_type"`
	Key      string    `json:"_key,omitempty" bson:"_key,omitempty" yaml:"_key,omitempty"`
	Style    string    `json:"style,omitempty" bson:"style,omitempty" yaml:"style,omitempty"`
	ListItem string    `json:"listItem,omitempty" bson:"listItem,omitempty" yaml:"listItem,omitempty"`
	Level    int       `json:"level,omitempty" bson:"level,omitempty" yaml:"level,omitempty"`
	Children []Span    `json:"children" bson:"children" yaml:"children"`
	MarkDefs []MarkDef `json:"markDefs,omitempty" bson:"markDefs,omitempty" yaml:"markDefs,omitempty"`
}

// Blocks is an ordered rich text document.
type Blocks []Block

func (b Block) isText() bool {
	return b.Type == TypeBlock || (b.Type == "" && b.Children != nil)
}

func (s Span) isText() bool {
	return s.Type == TypeSpan || s.Type == ""
}

// PlainText flattens the document: the spans of a block are concatenated and
// blocks are separated by a blank line. Inline objects between spans become a
// single space unless whitespace is already present on either side.
func (b Blocks) PlainText() string {
	var sb strings.Builder
	for i, block := range b {
		if !block.isText() {
			continue
		}

		pad := false
		for _, child := range block.Children {
			if !child.isText() {
				pad = true
				continue
			}
			if pad && sb.Len() > 0 && !endsWithSpace(sb.String()) && !startsWithSpace(child.Text) {
				sb.WriteByte(' ')
			}
			sb.WriteString(child.Text)
			pad = false
		}

		if i != len(b)-1 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}

func endsWithSpace(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r != utf8.RuneError && unicode.IsSpace(r)
}

func startsWithSpace(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return r != utf8.RuneError && unicode.IsSpace(r)
}

// FromText builds a document with one normal paragraph per blank-line separated chunk.
func FromText(text string) Blocks {
	var blocks Blocks
	for _, para := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(para) == "" {
			continue
		}
		blocks = append(blocks, Block{
			Type:     TypeBlock,
			Style:    "normal",
			Children: []Span{{Type: TypeSpan, Text: para}},
		})
	}
	return blocks
}
