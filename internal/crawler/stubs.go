package crawler

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"martminer/internal/extract"
	"martminer/internal/types"
)

// productAnchors matches detail links by class convention or href pattern.
const productAnchors = `a.titles, a[href*="/proddetail/"]`

// HarvestStubs extracts candidate product stubs from rendered listing HTML.
// At most limit anchors are examined (anchors with an empty name or href
// consume a slot but produce no stub, so a dense page yields at most limit
// stubs). Hrefs are resolved against pageURL; anchor order is preserved.
func HarvestStubs(html, pageURL, category string, limit int) []types.ListingStub {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	var stubs []types.ListingStub
	doc.Find(productAnchors).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if i >= limit {
			return false
		}

		name := extract.CleanText(sel.Text())
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if name == "" || href == "" {
			return true
		}

		parsed, err := url.Parse(href)
		if err != nil {
			return true
		}
		resolved := base.ResolveReference(parsed)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return true
		}

		stubs = append(stubs, types.ListingStub{
			Category:    category,
			ProductName: name,
			ProductURL:  resolved.String(),
		})
		return true
	})

	return stubs
}

// listingPageURL appends or replaces the page query parameter on a
// category listing URL.
func listingPageURL(listingURL string, pageNo int) string {
	u, err := url.Parse(listingURL)
	if err != nil {
		return listingURL
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(pageNo))
	u.RawQuery = q.Encode()
	return u.String()
}
