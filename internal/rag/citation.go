package rag

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const referencesHeader = "\n\n**References:**\n"

// linkGapPattern matches whitespace between a link's text and its destination.
var linkGapPattern = regexp.MustCompile(`\]\s+\(`)

// preservedURLChars are left as-is by EscapeURL in addition to unreserved characters.
const preservedURLChars = ":/?&=()%"

const upperHex = "0123456789ABCDEF"

// EscapeURL percent-encodes s byte by byte. ASCII letters, digits, "_.-~"
// and ":/?&=()%" pass through unchanged; existing escapes are not decoded.
func EscapeURL(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if shouldKeep(c) {
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(upperHex[c>>4])
		sb.WriteByte(upperHex[c&0x0F])
	}
	return sb.String()
}

func shouldKeep(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '_', c == '.', c == '-', c == '~':
		return true
	}
	return strings.IndexByte(preservedURLChars, c) >= 0
}

// FormatCitations appends a References section listing refs to reply and
// normalizes markdown links across the result. No section is added when refs
// is empty.
func FormatCitations(reply string, refs []DocumentReference) string {
	if len(refs) > 0 {
		var block strings.Builder
		block.WriteString(referencesHeader)
		for _, ref := range refs {
			block.WriteString(referenceLine(ref.Name, ref.Page, EscapeURL(ref.URL)))
			block.WriteString("\n")
		}
		reply += "\n" + block.String()
	}
	return NormalizeLinks(reply)
}

// NormalizeLinks removes whitespace between "]" and "(" so markdown links
// split by the model still render.
func NormalizeLinks(s string) string {
	return linkGapPattern.ReplaceAllString(s, "](")
}

var markdown = goldmark.New()

// ExtractLinks parses s as markdown and returns its inline links in order.
func ExtractLinks(s string) []Link {
	source := []byte(s)
	doc := markdown.Parser().Parse(text.NewReader(source))

	var links []Link
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if link, ok := n.(*ast.Link); ok {
			links = append(links, Link{
				Text:        linkText(link, source),
				Destination: string(link.Destination),
			})
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return links
}

func linkText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			sb.Write(v.Segment.Value(source))
		case *ast.String:
			sb.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
