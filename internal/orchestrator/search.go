package orchestrator

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/iccyuan/search-browser/internal/driver"
	"github.com/iccyuan/search-browser/internal/shared/errs"
	"github.com/iccyuan/search-browser/internal/shared/id"
	"github.com/iccyuan/search-browser/internal/snapshot"
)

// SearchResult is one accepted page from the visit loop.
type SearchResult struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	Snippet       string `json:"snippet"`
	Relevance     string `json:"relevance,omitempty"`
	ContentLength int    `json:"contentLength"`
}

// SearchOutcome is the assembled result of one search operation.
type SearchOutcome struct {
	Query         string         `json:"query"`
	Results       []SearchResult `json:"results"`
	TotalFound    int            `json:"totalFound"`
	RelevantCount int            `json:"relevantCount"`
	Summary       string         `json:"summary"`
}

// Search runs the full pipeline: open the engine results page, wait for it to
// settle, extract candidate links, visit each, and keep the relevant ones.
func (o *Orchestrator) Search(ctx context.Context, query string, maxResults int) (*SearchOutcome, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errs.Validation("query is required")
	}
	if maxResults <= 0 {
		maxResults = o.cfg.DefaultMaxResults
	}

	ctx, cancel := o.withDeadline(ctx)
	defer cancel()

	outcome := &SearchOutcome{
		Query:   query,
		Results: make([]SearchResult, 0, maxResults),
	}

	err := o.sessions.WithSession(ctx, func(ctx context.Context, sid id.SessionID) error {
		searchURL := o.cfg.EngineURL + url.QueryEscape(query)
		if err := o.retry.Do(ctx, func(ctx context.Context) error {
			return o.client.Open(ctx, sid, searchURL)
		}); err != nil {
			return errs.Execution("failed to open search results page", err)
		}

		// Some pages never reach strict network idle. Extraction proceeds
		// regardless.
		if err := o.client.WaitIdle(ctx, sid); err != nil {
			o.logger.Debug("idle wait on results page failed, proceeding",
				zap.String("session_id", sid.String()), zap.Error(err))
		}

		candidates := o.extractCandidates(ctx, sid, maxResults)
		outcome.TotalFound = len(candidates)
		if len(candidates) == 0 {
			o.logger.Info("no candidate links extracted", zap.String("query", query))
			return nil
		}

		for _, candidate := range candidates {
			if len(outcome.Results) >= maxResults {
				break
			}
			if ctx.Err() != nil {
				return errs.Execution("search deadline exceeded", ctx.Err())
			}
			result, ok := o.visit(ctx, sid, query, candidate)
			if ok {
				outcome.Results = append(outcome.Results, result)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	outcome.RelevantCount = len(outcome.Results)
	outcome.Summary = o.summarize(outcome)
	return outcome, nil
}

// extractCandidates tries the strategies in widening order: interactive
// snapshot, compact snapshot, full snapshot, then a raw-markup href scan. A
// page with no links is a valid outcome, never an error.
func (o *Orchestrator) extractCandidates(ctx context.Context, sid id.SessionID, maxResults int) []snapshot.Link {
	type attempt struct {
		name     string
		fetch    func(context.Context) (string, error)
		strategy snapshot.Strategy
	}

	snapshotFetch := func(mode driver.SnapshotMode) func(context.Context) (string, error) {
		return func(ctx context.Context) (string, error) {
			return o.client.Snapshot(ctx, sid, mode)
		}
	}

	attempts := []attempt{
		{"snapshot_interactive", snapshotFetch(driver.SnapshotInteractive), o.parser.ParseSnapshot},
		{"snapshot_compact", snapshotFetch(driver.SnapshotCompact), o.parser.ParseSnapshot},
		{"snapshot_full", snapshotFetch(driver.SnapshotFull), o.parser.ParseSnapshot},
		{"markup", func(ctx context.Context) (string, error) {
			return o.client.HTML(ctx, sid, "body")
		}, o.parser.ParseMarkup},
	}

	for _, a := range attempts {
		input, err := a.fetch(ctx)
		if err != nil {
			o.logger.Debug("link extraction strategy failed",
				zap.String("strategy", a.name), zap.Error(err))
			continue
		}
		if links := a.strategy(input, maxResults); len(links) > 0 {
			o.logger.Debug("links extracted",
				zap.String("strategy", a.name), zap.Int("count", len(links)))
			return links
		}
	}
	return nil
}

// visit navigates to one candidate and scores its text. A false return means
// the candidate is skipped, either because a step failed or because the page
// was not relevant.
func (o *Orchestrator) visit(ctx context.Context, sid id.SessionID, query string, candidate snapshot.Link) (SearchResult, bool) {
	if err := o.navigate(ctx, sid, candidate); err != nil {
		o.logger.Warn("skipping candidate, navigation failed",
			zap.String("url", candidate.URL), zap.Error(err))
		return SearchResult{}, false
	}

	if err := o.client.WaitIdle(ctx, sid); err != nil {
		o.logger.Debug("idle wait on candidate page failed, proceeding",
			zap.String("url", candidate.URL), zap.Error(err))
	}

	title, err := o.client.Title(ctx, sid)
	if err != nil || title == "" {
		title = candidate.Text
		if title == "" {
			title = candidate.URL
		}
	}

	body, err := o.client.Text(ctx, sid, "body")
	if err != nil {
		o.logger.Warn("skipping candidate, text extraction failed",
			zap.String("url", candidate.URL), zap.Error(err))
		return SearchResult{}, false
	}
	body = strings.TrimSpace(body)

	if !o.scorer.Relevant(query, body) {
		o.logger.Debug("candidate not relevant", zap.String("url", candidate.URL))
		return SearchResult{}, false
	}

	return SearchResult{
		Title:         title,
		URL:           candidate.URL,
		Snippet:       snapshot.Truncate(body, o.cfg.SnippetLength),
		Relevance:     "high",
		ContentLength: utf8.RuneCountInString(body),
	}, true
}

// navigate prefers clicking the candidate's snapshot ref, which keeps any
// engine-side redirect handling, and falls back to opening the URL directly.
func (o *Orchestrator) navigate(ctx context.Context, sid id.SessionID, candidate snapshot.Link) error {
	if candidate.Ref != "" {
		err := o.client.Click(ctx, sid, candidate.Ref)
		if err == nil {
			return nil
		}
		o.logger.Debug("ref click failed, opening URL directly",
			zap.String("ref", candidate.Ref), zap.Error(err))
	}
	return o.client.Open(ctx, sid, candidate.URL)
}

// summarize renders the human-readable digest of a finished search.
func (o *Orchestrator) summarize(outcome *SearchOutcome) string {
	if len(outcome.Results) == 0 {
		return fmt.Sprintf("No relevant results found for %q.", outcome.Query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d relevant result(s) for %q:\n", len(outcome.Results), outcome.Query)
	for i, r := range outcome.Results {
		fmt.Fprintf(&b, "\n%d. %s\n   %s\n   Relevance: %s\n   %s\n",
			i+1, r.Title, r.URL, r.Relevance,
			snapshot.Truncate(r.Snippet, o.cfg.PreviewLength))
	}
	return b.String()
}
