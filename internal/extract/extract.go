// Package extract holds the pure field-extraction heuristics applied to
// product detail pages. No I/O, no state: every function is a plain
// transformation over text or a parsed document.
package extract

import (
	"regexp"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"martminer/internal/types"
)

var (
	// Rupee-prefixed numeric token, digits optionally grouped with commas.
	// The match is kept verbatim; numeric normalization belongs to the ETL
	// stage.
	priceRe = regexp.MustCompile(`₹\s?\d[\d,]*`)

	// Closed list of recognized states. A fixed enumeration is more
	// reliable than free-text geocoding for this content style; unlisted
	// regions simply go unrecognized.
	locationRe = regexp.MustCompile(`Tamil Nadu|Kerala|Karnataka|Maharashtra|Delhi|Gujarat|Telangana|Andhra Pradesh|West Bengal|Uttar Pradesh|Rajasthan|Punjab|Haryana`)

	spaceRe = regexp.MustCompile(`\s+`)
)

// CleanText collapses runs of whitespace to single spaces and trims the
// result.
func CleanText(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// Price returns the first rupee-prefixed amount in text, or nil.
func Price(text string) *string {
	if m := priceRe.FindString(text); m != "" {
		return &m
	}
	return nil
}

// Location returns the first recognized state name in text, or nil.
func Location(text string) *string {
	if m := locationRe.FindString(text); m != "" {
		return &m
	}
	return nil
}

// Supplier reads the page's og:title meta content. Detail pages carry no
// dedicated supplier markup, so the social-preview title is the best
// available proxy.
func Supplier(doc *html.Node) *string {
	n := htmlquery.FindOne(doc, `//meta[@property="og:title"]`)
	if n == nil {
		return nil
	}
	if content := htmlquery.SelectAttr(n, "content"); content != "" {
		return &content
	}
	return nil
}

// Fields parses an HTML body and applies the three heuristics
// independently; a miss on one never affects the others.
func Fields(body []byte) types.EnrichmentFields {
	doc, err := htmlquery.Parse(strings.NewReader(string(body)))
	if err != nil {
		return types.EnrichmentFields{}
	}
	text := VisibleText(doc)
	return types.EnrichmentFields{
		Price:    Price(text),
		Supplier: Supplier(doc),
		Location: Location(text),
	}
}

// VisibleText walks the document and concatenates text nodes with single
// spaces, skipping script and style subtrees.
func VisibleText(doc *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style" || n.Data == "noscript") {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				b.WriteString(t)
				b.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return CleanText(b.String())
}
