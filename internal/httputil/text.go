package httputil

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PlainText converts a catalog text fragment to plain text. Markup is parsed
// as a DOM (never pattern-matched), entities are decoded and whitespace is collapsed.
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
