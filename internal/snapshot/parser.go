// Package snapshot turns the browser tool's semi-structured output into
// candidate links and scores page text against a query.
//
// The tool's snapshot format is loosely structured text, not a grammar; the
// matching rules here are best-effort heuristics isolated behind this
// package so they can change without touching orchestration.
package snapshot

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

// Link is one candidate extracted from a page.
type Link struct {
	// Ref is the tool's opaque handle for a later click command. Empty when
	// the link came from raw markup.
	Ref string `json:"ref,omitempty"`
	// Text is the display label, possibly empty.
	Text string `json:"text"`
	// URL is an absolute http/https URL.
	URL string `json:"url"`
}

// Strategy is a uniform link-extraction signature: input text plus the
// caller's result cap, returning candidates in input order.
type Strategy func(input string, maxResults int) []Link

var (
	refPattern    = regexp.MustCompile(`\[ref=([^\]]+)\]`)
	quotedPattern = regexp.MustCompile(`"([^"]*)"`)
	urlPattern    = regexp.MustCompile(`https?://[^\s"'\\)\]]+`)
)

// minURLLength rejects snapshot URLs that are too short to be a real
// destination (scheme-only fragments and bare hosts from truncated lines).
const minURLLength = 10

// Parser extracts candidate links from snapshots and raw markup.
type Parser struct {
	exclusions []string
}

// NewParser creates a parser. A nil or empty exclusion list selects
// DefaultExclusions.
func NewParser(exclusions []string) *Parser {
	if len(exclusions) == 0 {
		exclusions = DefaultExclusions()
	}
	lowered := make([]string, len(exclusions))
	for i, pattern := range exclusions {
		lowered[i] = strings.ToLower(pattern)
	}
	return &Parser{exclusions: lowered}
}

// ParseSnapshot extracts links from a line-oriented accessibility snapshot.
// A line is a candidate when it mentions a link element and carries a
// [ref=...] handle. Collection stops at 2×maxResults candidates, leaving
// headroom for per-link failures later in the pipeline.
func (p *Parser) ParseSnapshot(input string, maxResults int) []Link {
	limit := candidateCap(maxResults)
	seen := make(map[string]bool)
	var links []Link

	for _, line := range strings.Split(input, "\n") {
		if len(links) >= limit {
			break
		}
		if !strings.Contains(line, "link") {
			continue
		}
		refMatch := refPattern.FindStringSubmatch(line)
		if refMatch == nil {
			continue
		}

		url := urlPattern.FindString(line)
		if url == "" || len(url) <= minURLLength {
			continue
		}
		if p.excluded(url) || seen[url] {
			continue
		}

		text := ""
		if m := quotedPattern.FindStringSubmatch(line); m != nil {
			text = m[1]
		}

		seen[url] = true
		links = append(links, Link{Ref: refMatch[1], Text: text, URL: url})
	}

	return links
}

// ParseMarkup extracts absolute links from raw HTML markup. Used for pages
// without snapshot refs and for non-search browsing. Titles come from the
// anchor text, falling back to the URL itself.
func (p *Parser) ParseMarkup(input string, maxResults int) []Link {
	doc, err := LoadHTML(input)
	if err != nil {
		return nil
	}

	limit := candidateCap(maxResults)
	seen := make(map[string]bool)
	var links []Link

	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(links) >= limit {
			return false
		}
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if !strings.HasPrefix(href, "http") {
			return true
		}
		if p.excluded(href) || seen[href] {
			return true
		}

		text := NormalizeWhitespace(s.Text())
		if text == "" {
			text = href
		}

		seen[href] = true
		links = append(links, Link{Text: text, URL: href})
		return true
	})

	return links
}

// candidateCap gives the collection bound: twice the requested result count.
func candidateCap(maxResults int) int {
	if maxResults < 1 {
		maxResults = 1
	}
	return 2 * maxResults
}

// LoadHTML parses markup with charset detection, so pages that are not
// UTF-8 still yield readable link text.
func LoadHTML(markup string) (*goquery.Document, error) {
	data := []byte(markup)

	detected := "utf-8"
	if result, err := chardet.NewTextDetector().DetectBest(data); err == nil && result != nil {
		detected = strings.ToLower(result.Charset)
	}

	utf8Reader, err := charset.NewReader(bytes.NewReader(data), detected)
	if err != nil {
		return goquery.NewDocumentFromReader(strings.NewReader(markup))
	}
	return goquery.NewDocumentFromReader(utf8Reader)
}

// NormalizeWhitespace collapses runs of whitespace into single spaces.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate cuts s to at most n runes, trimmed.
func Truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n]))
}
