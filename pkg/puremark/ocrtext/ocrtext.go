// Package ocrtext turns OCR engine output into the plain text the zone
// segmenter expects.
package ocrtext

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var blocks = map[atom.Atom]bool{
	atom.P:          true,
	atom.Div:        true,
	atom.Br:         true,
	atom.Li:         true,
	atom.Tr:         true,
	atom.H1:         true,
	atom.H2:         true,
	atom.H3:         true,
	atom.H4:         true,
	atom.Table:      true,
	atom.Ul:         true,
	atom.Ol:         true,
	atom.Blockquote: true,
}

// FromHTML flattens HTML or hOCR markup into text. Block elements and hOCR
// lines become line breaks; scripts and styles are dropped.
func FromHTML(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			buf.WriteString(n.Data)
			return
		case html.ElementNode:
			if n.DataAtom == atom.Script || n.DataAtom == atom.Style || n.DataAtom == atom.Head {
				return
			}
		}
		brk := n.Type == html.ElementNode && (blocks[n.DataAtom] || isOCRLine(n))
		if brk {
			buf.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if brk {
			buf.WriteByte('\n')
		}
	}
	walk(doc)

	return Clean(buf.String()), nil
}

// isOCRLine reports hOCR line and word containers that carry no block
// semantics of their own.
func isOCRLine(n *html.Node) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			switch c {
			case "ocr_line", "ocrx_line", "ocr_caption", "ocr_textfloat", "ocr_header":
				return true
			}
		}
	}
	return false
}

// Clean trims every line, collapses runs of spaces inside a line and drops
// blank lines.
func Clean(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		l = strings.Join(strings.Fields(l), " ")
		if l == "" {
			continue
		}
		out = append(out, l)
	}
	return strings.Join(out, "\n")
}
