// Package orchestrator sequences browser-tool commands into the search,
// browse, and screenshot operations exposed over HTTP.
package orchestrator

import (
	"context"
	"net/url"

	"github.com/iccyuan/search-browser/internal/driver"
	"github.com/iccyuan/search-browser/internal/infrastructure/config"
	"github.com/iccyuan/search-browser/internal/infrastructure/logging"
	"github.com/iccyuan/search-browser/internal/infrastructure/resilience"
	"github.com/iccyuan/search-browser/internal/shared/errs"
	"github.com/iccyuan/search-browser/internal/snapshot"
)

// Orchestrator drives the browser CLI through complete logical operations.
// One operation runs at a time; the request queue upstream guarantees that.
type Orchestrator struct {
	client   *driver.Client
	sessions *driver.Sessions
	parser   *snapshot.Parser
	scorer   *snapshot.Scorer
	retry    resilience.Policy
	cfg      config.SearchConfig
	logger   *logging.Logger
}

// New wires an orchestrator from its collaborators.
func New(
	client *driver.Client,
	sessions *driver.Sessions,
	parser *snapshot.Parser,
	scorer *snapshot.Scorer,
	retry resilience.Policy,
	cfg config.SearchConfig,
	logger *logging.Logger,
) *Orchestrator {
	return &Orchestrator{
		client:   client,
		sessions: sessions,
		parser:   parser,
		scorer:   scorer,
		retry:    retry,
		cfg:      cfg,
		logger:   logger,
	}
}

// validatePageURL admits absolute http/https URLs only.
func validatePageURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return errs.Validation("Invalid URL: %q must be an absolute http or https URL", raw)
	}
	return nil
}

// withDeadline caps a whole operation, closing the gap left by per-command
// timeouts: a search visiting many links gets one aggregate deadline.
func (o *Orchestrator) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.cfg.OperationTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.cfg.OperationTimeout)
}
