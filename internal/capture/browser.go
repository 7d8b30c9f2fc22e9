package capture

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"

	"github.com/bazaarlens/bazaarlens/internal/common"
)

// stealthScript masks the automation fingerprints e-commerce sites check.
const stealthScript = `
	Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
	Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
	Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
	Object.defineProperty(navigator, 'platform', { get: () => 'Win32' });
	window.chrome = { runtime: {} };
`

// Snapshot is everything one browser visit yields.
type Snapshot struct {
	ScreenshotPath string
	DOMText        string
	RatingHint     string // e.g. "4.2", empty when no site selector matched
	Strategy       string
}

// Browser captures page snapshots, falling through its strategy list until
// one produces a page that does not look blocked.
type Browser struct {
	cfg        common.CaptureConfig
	strategies []Strategy
	logger     *slog.Logger
}

func NewBrowser(cfg common.CaptureConfig, logger *slog.Logger) *Browser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Browser{cfg: cfg, strategies: DefaultStrategies(cfg), logger: logger}
}

// Capture navigates to pageURL and returns the screenshot, DOM text, and
// rating hint. Strategies are tried in order; a strategy whose page text
// looks like an access-denied interstitial is treated as a failure.
func (b *Browser) Capture(ctx context.Context, pageURL string) (*Snapshot, error) {
	var lastErr error
	for _, strat := range b.strategies {
		snap, err := b.captureWith(ctx, strat, pageURL)
		if err != nil {
			b.logger.Warn("capture.strategy.failed", "strategy", strat.Name, "url", pageURL, "error", err)
			lastErr = err
			continue
		}
		if LooksBlocked(snap.DOMText) {
			b.logger.Warn("capture.strategy.blocked", "strategy", strat.Name, "url", pageURL)
			lastErr = common.ErrAccessDenied
			continue
		}
		b.logger.Info("capture.ok",
			"strategy", strat.Name,
			"url", pageURL,
			"dom_chars", len(snap.DOMText),
			"rating_hint", snap.RatingHint,
		)
		return snap, nil
	}
	if lastErr == nil {
		lastErr = common.ErrCaptureFailed
	}
	return nil, common.WrapError(common.ErrCaptureFailed, lastErr.Error())
}

func (b *Browser) captureWith(ctx context.Context, strat Strategy, pageURL string) (*Snapshot, error) {
	l := launcher.New().Headless(true).NoSandbox(true).Leakless(false)
	if strat.Bin != "" {
		l = l.Bin(strat.Bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	defer func() {
		if cerr := browser.Close(); cerr != nil {
			b.logger.Warn("capture.browser.close_error", "error", cerr)
		}
	}()

	snap := &Snapshot{Strategy: strat.Name}
	err = rod.Try(func() {
		page := browser.MustPage()
		page.MustSetViewport(strat.ViewportWidth, strat.ViewportHeight, 1.0, false)
		if strat.UserAgent != "" {
			page.MustSetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: strat.UserAgent})
		}
		if strat.Stealth {
			page.MustEvalOnNewDocument(stealthScript)
		}

		// Landing on the homepage first picks up the session cookies most
		// storefronts require before serving a product page.
		if strat.HomepageFirst {
			if home := homepageOf(pageURL); home != "" {
				page.Timeout(b.cfg.NavTimeout).MustNavigate(home).MustWaitLoad()
			}
		}

		page.Timeout(b.cfg.NavTimeout).MustNavigate(pageURL).MustWaitLoad()
		time.Sleep(b.cfg.SettleDelay)
		page.MustWaitStable()

		snap.DOMText = page.MustEval(`() => document.body.innerText`).Str()
		snap.RatingHint = RatingFromPage(page)

		shot := page.MustScreenshotFullPage()
		path, werr := b.writeScreenshot(shot)
		if werr != nil {
			panic(werr)
		}
		snap.ScreenshotPath = path
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (b *Browser) writeScreenshot(data []byte) (string, error) {
	dir := b.cfg.ScreenshotDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("screenshot dir: %w", err)
	}
	path := filepath.Join(dir, uuid.New().String()+".png")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write screenshot: %w", err)
	}
	return path, nil
}

// homepageOf returns the scheme://host root of a product URL.
func homepageOf(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
