// Package textproc owns the deterministic text preparation steps: cleaning
// raw article markup into plain normalized text and splitting it into
// sentence-aligned chunks for retrieval.
package textproc

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	xhtml "golang.org/x/net/html"
)

// Formatting/color tokens like #EAE6FF that Confluence leaves in exported
// storage markup.
var colorCodeRe = regexp.MustCompile(`#\S+`)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Normalize cleans raw article text: strips color/formatting codes, decodes
// entities and removes markup keeping only visible text, collapses
// whitespace, lowercases, and drops stopwords. It is total over any input
// (empty in, empty out) and idempotent.
func Normalize(raw string, stop StopwordSet) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	text := colorCodeRe.ReplaceAllString(raw, "")
	text = html.UnescapeString(text)
	text = StripMarkup(text)
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = strings.ToLower(strings.TrimSpace(text))

	if len(stop) == 0 {
		return text
	}
	words := strings.Fields(text)
	kept := words[:0]
	for _, w := range words {
		if !stop.Contains(w) {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// StripMarkup extracts the visible text of an HTML fragment, separating
// adjacent text nodes with a single space. Script, style and noscript
// bodies are dropped. Plain text passes through unchanged apart from the
// separator joins.
func StripMarkup(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	doc.Find("script,style,noscript").Remove()

	var parts []string
	var walk func(*xhtml.Node)
	walk = func(n *xhtml.Node) {
		if n.Type == xhtml.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}
	return strings.Join(parts, " ")
}
