package orchestrator

import (
	"context"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/iccyuan/search-browser/internal/shared/errs"
	"github.com/iccyuan/search-browser/internal/shared/id"
)

// Extraction modes for Browse.
const (
	ExtractText = "text"
	ExtractHTML = "html"
)

// BrowseOutcome is the extracted content of one page visit.
type BrowseOutcome struct {
	URL     string            `json:"url"`
	Content map[string]string `json:"content"`
}

// Browse opens a single page and extracts content at a selector. A selector
// beginning with "//" is evaluated as an XPath query against the page markup;
// anything else is passed to the tool as a CSS selector. HTML output is
// sanitized before it leaves the service.
func (o *Orchestrator) Browse(ctx context.Context, pageURL, selector, extract string) (*BrowseOutcome, error) {
	if err := validatePageURL(pageURL); err != nil {
		return nil, err
	}
	if selector == "" {
		selector = "body"
	}
	switch extract {
	case "":
		extract = ExtractText
	case ExtractText, ExtractHTML:
	default:
		return nil, errs.Validation("extract must be %q or %q, got %q", ExtractText, ExtractHTML, extract)
	}

	ctx, cancel := o.withDeadline(ctx)
	defer cancel()

	var content string
	err := o.sessions.WithSession(ctx, func(ctx context.Context, sid id.SessionID) error {
		if err := o.retry.Do(ctx, func(ctx context.Context) error {
			return o.client.Open(ctx, sid, pageURL)
		}); err != nil {
			return errs.Execution("failed to open page", err)
		}
		if err := o.client.WaitIdle(ctx, sid); err != nil {
			o.logger.Debug("idle wait failed, proceeding",
				zap.String("url", pageURL), zap.Error(err))
		}

		var err error
		if strings.HasPrefix(selector, "//") {
			content, err = o.extractXPath(ctx, sid, selector, extract)
		} else {
			content, err = o.extractSelector(ctx, sid, selector, extract)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	return &BrowseOutcome{
		URL:     pageURL,
		Content: map[string]string{extract: content},
	}, nil
}

// extractSelector pulls content at a CSS selector through the tool itself.
func (o *Orchestrator) extractSelector(ctx context.Context, sid id.SessionID, selector, extract string) (string, error) {
	if extract == ExtractText {
		text, err := o.client.Text(ctx, sid, selector)
		if err != nil {
			return "", errs.Execution("failed to extract text", err)
		}
		return strings.TrimSpace(text), nil
	}

	markup, err := o.client.HTML(ctx, sid, selector)
	if err != nil {
		return "", errs.Execution("failed to extract markup", err)
	}
	return sanitizeMarkup(markup), nil
}

// extractXPath fetches the page markup and evaluates the XPath locally; the
// tool only speaks CSS selectors.
func (o *Orchestrator) extractXPath(ctx context.Context, sid id.SessionID, expr, extract string) (string, error) {
	markup, err := o.client.HTML(ctx, sid, "html")
	if err != nil {
		return "", errs.Execution("failed to fetch page markup", err)
	}

	doc, err := htmlquery.Parse(strings.NewReader(markup))
	if err != nil {
		return "", errs.Execution("failed to parse page markup", err)
	}
	nodes, err := htmlquery.QueryAll(doc, expr)
	if err != nil {
		return "", errs.Validation("invalid XPath selector %q: %v", expr, err)
	}

	parts := make([]string, 0, len(nodes))
	for _, node := range nodes {
		if extract == ExtractText {
			if text := strings.TrimSpace(htmlquery.InnerText(node)); text != "" {
				parts = append(parts, text)
			}
			continue
		}
		parts = append(parts, htmlquery.OutputHTML(node, true))
	}

	joined := strings.Join(parts, "\n")
	if extract == ExtractHTML {
		joined = sanitizeMarkup(joined)
	}
	return joined, nil
}

var markupPolicy = bluemonday.UGCPolicy()

// sanitizeMarkup strips scripts and event handlers from markup so the façade
// never relays executable content from visited pages.
func sanitizeMarkup(markup string) string {
	return strings.TrimSpace(markupPolicy.Sanitize(markup))
}
