package llm

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const blockElements = "p, div, li, h1, h2, h3, h4, h5, h6, blockquote, pre, tr"

// visibleText reduces rich-text editor output to the text a reader sees, so
// the prompt does not carry markup. Plain text is returned unchanged.
func visibleText(text string) string {
	if !strings.ContainsAny(text, "<&") {
		return text
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return text
	}

	doc.Find("script, style").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find(blockElements).AppendHtml("\n")

	lines := strings.Split(doc.Text(), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}

	if len(kept) == 0 {
		return text
	}
	return strings.Join(kept, "\n")
}
