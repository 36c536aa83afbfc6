package scrape

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ParseBounded parses at most limit bytes of r as HTML. Landing pages
// are never read in full: the bound caps memory and latency on decoy
// pages that embed the artifact link near the top but carry megabytes
// of trailing markup. golang.org/x/net/html implements the HTML5
// recovery algorithm, so a truncated document still parses.
func ParseBounded(r io.Reader, limit int64) (*goquery.Document, error) {
	root, err := html.Parse(io.LimitReader(r, limit))
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromNode(root), nil
}

// CollapseText returns the selection's text with runs of whitespace
// collapsed to single spaces and the result trimmed. Search result
// titles frequently span nested elements with layout whitespace.
func CollapseText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}
