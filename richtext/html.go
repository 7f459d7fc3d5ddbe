package richtext

import (
	"html/template"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var styleTags = map[string]atom.Atom{
	"":           atom.P,
	"normal":     atom.P,
	"h1":         atom.H1,
	"h2":         atom.H2,
	"h3":         atom.H3,
	"h4":         atom.H4,
	"blockquote": atom.Blockquote,
}

var decoratorTags = map[string]atom.Atom{
	"strong":         atom.Strong,
	"em":             atom.Em,
	"code":           atom.Code,
	"underline":      atom.U,
	"strike-through": atom.S,
}

// HTML renders the document. Consecutive list items are grouped into ul/ol
// elements; unknown styles fall back to paragraphs and unknown marks are dropped.
func (b Blocks) HTML() template.HTML {
	var sb strings.Builder
	for _, n := range b.nodes() {
		if err := html.Render(&sb, n); err != nil {
			return ""
		}
	}
	return template.HTML(sb.String())
}

func (b Blocks) nodes() []*html.Node {
	var (
		out  []*html.Node
		list *html.Node
		kind string
	)
	for _, block := range b {
		if !block.isText() {
			continue
		}

		if block.ListItem == "" {
			list, kind = nil, ""
			tag, ok := styleTags[block.Style]
			if !ok {
				tag = atom.P
			}
			el := element(tag)
			appendSpans(el, block)
			out = append(out, el)
			continue
		}

		if list == nil || kind != block.ListItem {
			tag := atom.Ul
			if block.ListItem == "number" {
				tag = atom.Ol
			}
			list, kind = element(tag), block.ListItem
			out = append(out, list)
		}
		li := element(atom.Li)
		appendSpans(li, block)
		list.AppendChild(li)
	}
	return out
}

func appendSpans(parent *html.Node, block Block) {
	defs := make(map[string]MarkDef, len(block.MarkDefs))
	for _, def := range block.MarkDefs {
		defs[def.Key] = def
	}

	for _, span := range block.Children {
		if !span.isText() {
			continue
		}

		outer := parent
		for _, mark := range span.Marks {
			var el *html.Node
			if tag, ok := decoratorTags[mark]; ok {
				el = element(tag)
			} else if def, ok := defs[mark]; ok && def.Type == "link" && def.Href != "" {
				el = element(atom.A)
				el.Attr = append(el.Attr,
					html.Attribute{Key: "href", Val: def.Href},
					html.Attribute{Key: "rel", Val: "noreferrer"},
				)
			}
			if el == nil {
				continue
			}
			outer.AppendChild(el)
			outer = el
		}

		for i, line := range strings.Split(span.Text, "\n") {
			if i > 0 {
				outer.AppendChild(element(atom.Br))
			}
			if line != "" {
				outer.AppendChild(&html.Node{Type: html.TextNode, Data: line})
			}
		}
	}
}

func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}
