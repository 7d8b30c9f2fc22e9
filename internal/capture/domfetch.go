package capture

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/bazaarlens/bazaarlens/internal/common"
)

// browserHeaders make the plain HTTP fetch indistinguishable from a first
// page load in a desktop browser.
var browserHeaders = map[string]string{
	"User-Agent":                desktopUA,
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.9",
	"Accept-Encoding":           "gzip",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "none",
}

var blockMarkers = []string{
	"access denied",
	"access to this page has been denied",
	"verify you are a human",
	"are you a robot",
	"unusual traffic",
	"captcha",
	"request blocked",
	"pardon our interruption",
}

// DOMFetcher pulls page text over plain HTTP, no browser involved. It is
// the cheap first attempt; sites that render client-side or block
// non-browser traffic fall through to the browser path.
type DOMFetcher struct {
	client *http.Client
	logger *slog.Logger
}

func NewDOMFetcher(timeout time.Duration, logger *slog.Logger) *DOMFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	jar, _ := cookiejar.New(nil)
	return &DOMFetcher{
		client: &http.Client{Timeout: timeout, Jar: jar},
		logger: logger,
	}
}

// FetchText returns the visible text of pageURL. The site root is visited
// first so the session carries whatever cookies the storefront set there.
func (f *DOMFetcher) FetchText(ctx context.Context, pageURL string) (string, error) {
	if home := homepageOf(pageURL); home != "" {
		if err := f.touch(ctx, home); err != nil {
			f.logger.Warn("capture.dom.homepage_failed", "url", home, "error", err)
		}
	}

	body, err := f.get(ctx, pageURL)
	if err != nil {
		return "", err
	}

	text := ExtractVisibleText(body)
	if LooksBlocked(text) {
		f.logger.Warn("capture.dom.blocked", "url", pageURL, "chars", len(text))
		return "", common.ErrAccessDenied
	}

	f.logger.Info("capture.dom.ok", "url", pageURL, "chars", len(text))
	return text, nil
}

func (f *DOMFetcher) touch(ctx context.Context, url string) error {
	_, err := f.get(ctx, url)
	return err
}

func (f *DOMFetcher) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			f.logger.Warn("capture.dom.body_close_error", "error", cerr)
		}
	}()

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
		return "", common.ErrAccessDenied
	}
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	// Setting Accept-Encoding ourselves disables the transport's transparent
	// decompression, so a gzip response arrives compressed.
	var body io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return "", fmt.Errorf("gzip body: %w", err)
		}
		defer func() { _ = gz.Close() }()
		body = gz
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(raw), nil
}

// ExtractVisibleText strips markup, scripts, and styles from an HTML
// document, keeping line structure roughly intact.
func ExtractVisibleText(rawHTML string) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "template", "head":
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				b.WriteString(t)
				b.WriteByte('\n')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.TrimSpace(b.String())
}

// LooksBlocked reports whether page text reads like a bot-detection
// interstitial rather than a product page. Blank pages count as blocked.
func LooksBlocked(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return true
	}
	// Interstitials are short; a full product page mentioning "captcha" in
	// a review should not trip this.
	if len(trimmed) > 2000 {
		return false
	}
	lower := strings.ToLower(trimmed)
	for _, marker := range blockMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
