// Package capture acquires page material for extraction: a full-page
// screenshot, the rendered DOM text, and a rating hint probed from known
// site markup. Browser strategies are plain data tried in order, so adding
// a profile for a stubborn site means adding a struct, not code.
package capture

import "github.com/bazaarlens/bazaarlens/internal/common"

const desktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Strategy describes one way to drive a browser at a page.
type Strategy struct {
	Name           string
	Bin            string // browser binary, empty for auto-detect
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	Stealth        bool // install the webdriver-masking init script
	HomepageFirst  bool // visit the site root before the product URL
}

// DefaultStrategies returns the attempt order: a stealth Chromium profile
// that mimics an organic visit, then a plain profile for sites that choke
// on the init script. A Firefox binary, when configured, is the last try.
func DefaultStrategies(cfg common.CaptureConfig) []Strategy {
	strategies := []Strategy{
		{
			Name:           "chromium-stealth",
			Bin:            cfg.ChromiumBin,
			UserAgent:      desktopUA,
			ViewportWidth:  cfg.ViewportWidth,
			ViewportHeight: cfg.ViewportHeight,
			Stealth:        true,
			HomepageFirst:  true,
		},
		{
			Name:           "chromium-plain",
			Bin:            cfg.ChromiumBin,
			UserAgent:      desktopUA,
			ViewportWidth:  cfg.ViewportWidth,
			ViewportHeight: cfg.ViewportHeight,
		},
	}
	if cfg.FirefoxBin != "" {
		strategies = append(strategies, Strategy{
			Name:           "firefox",
			Bin:            cfg.FirefoxBin,
			ViewportWidth:  cfg.ViewportWidth,
			ViewportHeight: cfg.ViewportHeight,
			HomepageFirst:  true,
		})
	}
	return strategies
}
