// Package htmltext extracts translatable leaf text from HTML fragments and
// writes translated text back into the same positions.
//
// Fragments are tokenized, not parsed into a tree: every tag, comment and
// entity outside the translated text is emitted back byte for byte, so
// missing <tbody> elements, stray cells and tag casing survive a round trip.
package htmltext

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/pricofy/catalog-translator/internal/domain"
)

// segment is one token of a fragment. Text segments carry the unescaped
// text sent for translation.
type segment struct {
	raw          string
	text         string
	translatable bool
}

// Document is a tokenized fragment retained between extraction and
// reinsertion.
type Document struct {
	segments []segment
	style    string
}

// Style returns the CSS text captured from removed <style> elements.
func (d *Document) Style() string { return d.style }

// Extraction is the output of Extract.
type Extraction struct {
	// Texts holds every non-blank text node in document order, item by item.
	Texts []string
	// Refs[i] locates Texts[i].
	Refs []domain.TextNodeRef
	// Docs has one entry per input; nil for inputs without content.
	Docs []*Document

	sources []string
}

// Extract tokenizes each content string and collects its text nodes.
// An empty string means the item has no content.
func Extract(contents []string) (*Extraction, error) {
	ex := &Extraction{
		Docs:    make([]*Document, len(contents)),
		sources: contents,
	}

	for item, content := range contents {
		if content == "" {
			continue
		}

		doc, err := tokenize(content)
		if err != nil {
			return nil, fmt.Errorf("htmltext: tokenize item %d: %w", item, err)
		}
		ex.Docs[item] = doc

		node := 0
		for _, s := range doc.segments {
			if !s.translatable {
				continue
			}
			ex.Texts = append(ex.Texts, s.text)
			ex.Refs = append(ex.Refs, domain.TextNodeRef{Item: item, Node: node})
			node++
		}
	}

	return ex, nil
}

// Reinsert writes translated text back into every document and renders it.
// lookup maps a position in ex.Texts to its translation; a position without
// one keeps its original text. The result has one entry per input of
// Extract; inputs without content are returned unchanged.
func Reinsert(ex *Extraction, lookup func(pos int) (string, bool)) ([]string, error) {
	// positions[item][k] is the global position of the k-th text node of item.
	positions := make(map[int][]int, len(ex.Docs))
	for pos, ref := range ex.Refs {
		positions[ref.Item] = append(positions[ref.Item], pos)
	}

	out := make([]string, len(ex.Docs))
	for item, doc := range ex.Docs {
		if doc == nil {
			out[item] = ex.sources[item]
			continue
		}

		own := positions[item]
		cursor := 0

		var b strings.Builder
		if doc.style != "" {
			b.WriteString(formatStyle(doc.style))
		}
		for _, s := range doc.segments {
			if !s.translatable {
				b.WriteString(s.raw)
				continue
			}
			if cursor >= len(own) {
				return nil, fmt.Errorf("htmltext: item %d has more text nodes than refs", item)
			}
			text, ok := lookup(own[cursor])
			cursor++
			if !ok || text == s.text {
				b.WriteString(s.raw)
				continue
			}
			b.WriteString(textEscaper.Replace(text))
		}
		out[item] = b.String()
	}

	return out, nil
}

// textEscaper escapes only what would change the markup around a text node.
var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func tokenize(content string) (*Document, error) {
	z := html.NewTokenizer(strings.NewReader(content))

	doc := &Document{}
	var (
		style   strings.Builder
		inStyle bool
		inRaw   bool
	)

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return nil, err
			}
			break
		}

		// Raw is only valid until the next call to Next.
		raw := string(z.Raw())

		switch tt {
		case html.StartTagToken, html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			switch {
			case a == atom.Style:
				inStyle = tt == html.StartTagToken
				continue
			case a == atom.Script:
				inRaw = tt == html.StartTagToken
			}
		case html.SelfClosingTagToken:
			name, _ := z.TagName()
			if atom.Lookup(name) == atom.Style {
				continue
			}
		case html.TextToken:
			if inStyle {
				style.WriteString(raw)
				continue
			}
			text := string(z.Text())
			if !inRaw && strings.TrimSpace(text) != "" {
				doc.segments = append(doc.segments, segment{raw: raw, text: text, translatable: true})
				continue
			}
		}

		doc.segments = append(doc.segments, segment{raw: raw})
	}

	doc.style = style.String()
	return doc, nil
}

func formatStyle(css string) string {
	lines := strings.Split(css, "\n")
	for i, line := range lines {
		lines[i] = "        " + line
	}
	return "    <style>\n" + strings.Join(lines, "\n") + "\n    </style>\n"
}

var uppercaser = strings.NewReplacer(
	"<div", "<DIV", "</div>", "</DIV>",
	"</img>", "", "<img", "<IMG",
	"<br/>", "<BR/>", "<br>", "<BR/>",
	"<b>", "<B>", "</b>", "</B>",
	"<table", "<TABLE", "</table>", "</TABLE>",
	"<tbody", "<TBODY", "</tbody>", "</TBODY>",
	"<tr", "<TR", "</tr>", "</TR>",
	"<td", "<TD", "</td>", "</TD>",
	"<span", "<SPAN", "</span>", "</SPAN>",
)

// UppercaseTags rewrites a fixed set of tags to upper case for consumers
// that expect legacy markup. It is a text rewrite, applied after Reinsert.
func UppercaseTags(content string) string {
	return uppercaser.Replace(content)
}
