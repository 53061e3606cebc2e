package driver

import (
	"context"
	"strings"

	"github.com/iccyuan/search-browser/internal/infrastructure/config"
	"github.com/iccyuan/search-browser/internal/shared/id"
)

// SnapshotMode selects how much of the accessibility tree the tool dumps.
type SnapshotMode string

const (
	// SnapshotInteractive dumps interactive elements only.
	SnapshotInteractive SnapshotMode = "-i"
	// SnapshotCompact dumps a compacted tree.
	SnapshotCompact SnapshotMode = "-c"
	// SnapshotFull dumps the unfiltered tree.
	SnapshotFull SnapshotMode = ""
)

// Client issues session-scoped subcommands to the browser CLI.
type Client struct {
	runner Runner
	cfg    config.ToolConfig
}

// NewClient creates a client over the given runner.
func NewClient(runner Runner, cfg config.ToolConfig) *Client {
	return &Client{runner: runner, cfg: cfg}
}

func (c *Client) args(sid id.SessionID, rest ...string) []string {
	return append([]string{"--session", sid.String()}, rest...)
}

// Open navigates the session to a URL.
func (c *Client) Open(ctx context.Context, sid id.SessionID, url string) error {
	_, err := c.runner.Run(ctx, c.args(sid, "open", url), c.cfg.OpenTimeout)
	return err
}

// WaitIdle blocks until the page reports no in-flight network activity for
// its stability window. Some pages never reach strict idle; callers treat a
// failure here as advisory.
func (c *Client) WaitIdle(ctx context.Context, sid id.SessionID) error {
	_, err := c.runner.Run(ctx, c.args(sid, "wait", "--load", "networkidle"), c.cfg.WaitTimeout)
	return err
}

// Snapshot dumps the page's accessibility tree as text.
func (c *Client) Snapshot(ctx context.Context, sid id.SessionID, mode SnapshotMode) (string, error) {
	rest := []string{"snapshot"}
	if mode != SnapshotFull {
		rest = append(rest, string(mode))
	}
	return c.runner.Run(ctx, c.args(sid, rest...), c.cfg.ExtractTimeout)
}

// Title returns the page title.
func (c *Client) Title(ctx context.Context, sid id.SessionID) (string, error) {
	out, err := c.runner.Run(ctx, c.args(sid, "get", "title"), c.cfg.ExtractTimeout)
	return strings.TrimSpace(out), err
}

// Text returns the text content at a CSS selector.
func (c *Client) Text(ctx context.Context, sid id.SessionID, selector string) (string, error) {
	return c.runner.Run(ctx, c.args(sid, "get", "text", selector), c.cfg.ExtractTimeout)
}

// HTML returns the markup at a CSS selector.
func (c *Client) HTML(ctx context.Context, sid id.SessionID, selector string) (string, error) {
	return c.runner.Run(ctx, c.args(sid, "get", "html", selector), c.cfg.ExtractTimeout)
}

// Click activates the element behind a snapshot ref handle.
func (c *Client) Click(ctx context.Context, sid id.SessionID, ref string) error {
	_, err := c.runner.Run(ctx, c.args(sid, "click", "@"+ref), c.cfg.CommandTimeout)
	return err
}

// Screenshot captures the page to the given file path.
func (c *Client) Screenshot(ctx context.Context, sid id.SessionID, path string) error {
	_, err := c.runner.Run(ctx, c.args(sid, "screenshot", path), c.cfg.ScreenshotTimeout)
	return err
}

// Close tears down the session.
func (c *Client) Close(ctx context.Context, sid id.SessionID) error {
	_, err := c.runner.Run(ctx, c.args(sid, "close"), c.cfg.CloseTimeout)
	return err
}
