package capture

import (
	"context"
	"log/slog"
	"time"

	"github.com/bazaarlens/bazaarlens/internal/common"
)

// Service combines the plain-HTTP fetcher with the browser. The browser
// visit always happens because the pipeline needs a screenshot, but when
// it comes back with thin or blocked DOM text the cheap fetch often still
// has the server-rendered product page.
type Service struct {
	browser *Browser
	fetcher *DOMFetcher
	logger  *slog.Logger
}

func NewService(cfg common.CaptureConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		browser: NewBrowser(cfg, logger),
		fetcher: NewDOMFetcher(cfg.NavTimeout+10*time.Second, logger),
		logger:  logger,
	}
}

// Capture returns the best snapshot it can assemble for pageURL.
func (s *Service) Capture(ctx context.Context, pageURL string) (*Snapshot, error) {
	snap, err := s.browser.Capture(ctx, pageURL)
	if err != nil {
		// No screenshot means no OCR stage, but plain-HTTP text can still
		// feed the DOM stage.
		text, ferr := s.fetcher.FetchText(ctx, pageURL)
		if ferr != nil {
			return nil, err
		}
		s.logger.Info("capture.http_only", "url", pageURL, "chars", len(text))
		return &Snapshot{DOMText: text, RatingHint: RatingFromText(text), Strategy: "http"}, nil
	}

	if len(snap.DOMText) < 200 {
		if text, ferr := s.fetcher.FetchText(ctx, pageURL); ferr == nil && len(text) > len(snap.DOMText) {
			s.logger.Info("capture.http_supplement", "url", pageURL, "chars", len(text))
			snap.DOMText = text
			if snap.RatingHint == "" {
				snap.RatingHint = RatingFromText(text)
			}
		}
	}
	return snap, nil
}
