package snapshot

import "strings"

// DefaultExclusions lists URL patterns never admitted as search candidates:
// the search engine's own navigation/account/support/policy pages, its cache
// proxy, ad redirectors, and media properties that drown out article links.
func DefaultExclusions() []string {
	return []string{
		"google.com/search",
		"google.com/preferences",
		"google.com/advanced_search",
		"google.com/intl/",
		"accounts.google.com",
		"support.google.com",
		"policies.google.com",
		"maps.google.com",
		"play.google.com",
		"translate.google.com",
		"webcache.googleusercontent.com",
		"googleusercontent.com",
		"googleadservices.com",
		"gstatic.com",
		"/aclk?",
		"youtube.com/watch",
	}
}

// excluded reports whether url matches any exclusion pattern. Matching is a
// case-insensitive substring test so patterns can target hosts or paths.
func (p *Parser) excluded(url string) bool {
	lower := strings.ToLower(url)
	for _, pattern := range p.exclusions {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
