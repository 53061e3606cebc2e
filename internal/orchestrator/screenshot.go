package orchestrator

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iccyuan/search-browser/internal/shared/errs"
	"github.com/iccyuan/search-browser/internal/shared/id"
)

// ScreenshotOutcome is one captured page image.
type ScreenshotOutcome struct {
	URL string `json:"url"`
	// Data is the base64-encoded image bytes.
	Data string `json:"screenshot"`
	// Format is the sniffed image type, e.g. "png".
	Format string `json:"format"`
	// Size is the raw byte count before encoding.
	Size int `json:"size"`
}

// Screenshot opens a page, captures it to a temp file, and returns the image
// base64-encoded. The temp file is always removed; a removal failure is
// logged only.
func (o *Orchestrator) Screenshot(ctx context.Context, pageURL string) (*ScreenshotOutcome, error) {
	if err := validatePageURL(pageURL); err != nil {
		return nil, err
	}

	ctx, cancel := o.withDeadline(ctx)
	defer cancel()

	path := filepath.Join(os.TempDir(), "screenshot_"+uuid.NewString()+".png")
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			o.logger.Warn("failed to remove temp screenshot", zap.String("path", path), zap.Error(err))
		}
	}()

	var data []byte
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

		if err := o.retry.Do(ctx, func(ctx context.Context) error {
			return o.client.Screenshot(ctx, sid, path)
		}); err != nil {
			return errs.Execution("failed to capture screenshot", err)
		}

		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return errs.Execution("failed to read captured screenshot", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &ScreenshotOutcome{
		URL:    pageURL,
		Data:   base64.StdEncoding.EncodeToString(data),
		Format: strings.TrimPrefix(mimetype.Detect(data).Extension(), "."),
		Size:   len(data),
	}, nil
}
