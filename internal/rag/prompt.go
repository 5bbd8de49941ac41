package rag

import (
	"fmt"
	"strings"
)

// DefaultDomain is the knowledge area the model falls back to when no
// reference helps.
const DefaultDomain = "OSHA workplace safety"

// PromptBuilder renders the user prompt sent to the chat model.
type PromptBuilder struct {
	Domain string
}

// Build returns the prompt for question with refs listed as markdown links.
// Reference URLs are included unescaped.
func (b PromptBuilder) Build(question string, refs []DocumentReference) string {
	domain := b.Domain
	if domain == "" {
		domain = DefaultDomain
	}

	refText := "None found."
	if len(refs) > 0 {
		lines := make([]string, len(refs))
		for i, ref := range refs {
			lines[i] = referenceLine(ref.Name, ref.Page, ref.URL)
		}
		refText = strings.Join(lines, "\n")
	}

	var sb strings.Builder
	sb.WriteString("User Query: ")
	sb.WriteString(question)
	sb.WriteString("\n\nRelevant References:\n")
	sb.WriteString(refText)
	sb.WriteString("\n\nAnswer the question using the provided references when relevant. ")
	sb.WriteString("If the references are not helpful, answer concisely using ")
	sb.WriteString(domain)
	sb.WriteString(" knowledge.")
	return sb.String()
}

func referenceLine(name string, page int, url string) string {
	return fmt.Sprintf("- [%s, Page %d](%s)", name, page, url)
}
