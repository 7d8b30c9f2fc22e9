// Package pipeline orchestrates one extraction end to end: capture the
// page, try DOM text, fall back to OCR on the screenshot, then ask the
// model and recover a structured result. Every stage failure degrades to
// the next stage or to an explicit error result; the pipeline itself never
// returns a partial answer with missing keys.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/bazaarlens/bazaarlens/constants"
	"github.com/bazaarlens/bazaarlens/internal/capture"
	"github.com/bazaarlens/bazaarlens/internal/common"
	"github.com/bazaarlens/bazaarlens/internal/fallback"
	"github.com/bazaarlens/bazaarlens/internal/fields"
	"github.com/bazaarlens/bazaarlens/internal/llm"
	"github.com/bazaarlens/bazaarlens/internal/prompt"
	"github.com/bazaarlens/bazaarlens/internal/recovery"
)

// ErrInsufficientText is the user-visible message when neither the DOM nor
// OCR produced enough text to bother the model with.
const ErrInsufficientText = "Insufficient text extracted"

// Capturer acquires a page snapshot for a URL.
type Capturer interface {
	Capture(ctx context.Context, pageURL string) (*capture.Snapshot, error)
}

// TextExtractor turns a screenshot into reconstructed text.
type TextExtractor interface {
	ExtractText(ctx context.Context, imagePath string) (string, error)
}

// Request names one extraction job.
type Request struct {
	URL    string
	Fields []string
}

// Processor wires the capture, OCR, and model stages together.
type Processor struct {
	cfg      common.PipelineConfig
	capturer Capturer
	ocr      TextExtractor
	client   llm.Client
	logger   *slog.Logger
}

func NewProcessor(cfg common.PipelineConfig, capturer Capturer, ocr TextExtractor, client llm.Client, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{cfg: cfg, capturer: capturer, ocr: ocr, client: client, logger: logger}
}

// ProcessURL runs the full cascade for one product URL. The screenshot is
// captured up front so OCR never needs a second page visit.
func (p *Processor) ProcessURL(ctx context.Context, req Request) recovery.Result {
	start := time.Now()
	requested := fields.NormalizeAll(req.Fields)
	ctx = common.WithSourceURL(ctx, req.URL)

	snap, err := p.capturer.Capture(ctx, req.URL)
	if err != nil {
		p.logger.Error("pipeline.capture.failed", "url", req.URL, "error", err)
		r := recovery.NullResult(requested, constants.SourceUnknown, err.Error())
		r.URL = req.URL
		return r
	}

	text, source := p.gatherText(ctx, snap, req.URL)

	if len(text) < p.cfg.MinFinalTextLen {
		p.logger.Warn("pipeline.text.insufficient",
			"url", req.URL,
			"chars", len(text),
			"min", p.cfg.MinFinalTextLen,
		)
		r := recovery.NullResult(requested, source, ErrInsufficientText)
		r.URL = req.URL
		return r
	}

	result := p.extract(ctx, text, requested, source)
	result.URL = req.URL

	p.logger.Info("pipeline.done",
		"url", req.URL,
		"source", result.Source,
		"text_chars", len(text),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result
}

// ProcessImage extracts from an already-captured image, as used by uploads.
func (p *Processor) ProcessImage(ctx context.Context, imagePath string, names []string) recovery.Result {
	requested := fields.NormalizeAll(names)

	text, err := p.ocr.ExtractText(ctx, imagePath)
	if err != nil {
		p.logger.Error("pipeline.ocr.failed", "image", imagePath, "error", err)
		return recovery.NullResult(requested, constants.SourceUpload, err.Error())
	}
	if len(text) < p.cfg.MinFinalTextLen {
		return recovery.NullResult(requested, constants.SourceUpload, ErrInsufficientText)
	}
	return p.extract(ctx, text, requested, constants.SourceUpload)
}

// gatherText applies the DOM-first, OCR-fallback cascade to a snapshot.
func (p *Processor) gatherText(ctx context.Context, snap *capture.Snapshot, pageURL string) (string, constants.Source) {
	var text string

	if p.cfg.UseDOMFirst {
		text = snap.DOMText
		if snap.RatingHint != "" {
			text = "Rating: " + snap.RatingHint + " stars\n" + text
		}
		if len(text) >= p.cfg.MinDOMTextLen {
			p.logger.Info("pipeline.dom.ok", "url", pageURL, "chars", len(text))
			return text, constants.SourceDOM
		}
		p.logger.Info("pipeline.dom.thin",
			"url", pageURL,
			"chars", len(text),
			"min", p.cfg.MinDOMTextLen,
		)
	}

	// The disable flag is advisory: text too short to extract from at all
	// still goes to OCR rather than straight to a terminal error.
	if !p.cfg.UseOCRFallback && len(text) >= p.cfg.MinFinalTextLen {
		p.logger.Info("pipeline.ocr.disabled", "url", pageURL, "chars", len(text))
		return text, constants.SourceDOM
	}

	ocrText, err := p.ocr.ExtractText(ctx, snap.ScreenshotPath)
	if err != nil {
		p.logger.Warn("pipeline.ocr.failed", "url", pageURL, "error", err)
		return text, constants.SourceDOM
	}
	if snap.RatingHint != "" {
		ocrText = "Rating: " + snap.RatingHint + " stars\n" + ocrText
	}
	return ocrText, constants.SourceOCR
}

// extract runs the model stage and recovers a structured result.
func (p *Processor) extract(ctx context.Context, text string, requested []string, source constants.Source) recovery.Result {
	compiled := prompt.Compile(requested)
	candidates := fallback.Extract(text)

	output, err := p.client.Complete(ctx, compiled.Fill(text))
	if err != nil {
		p.logger.Error("pipeline.model.failed", "provider", p.client.Name(), "error", err)
		// Model unreachable: regex candidates are all we have.
		return recovery.BuildResult("", recovery.Options{
			Fields:    requested,
			Source:    source,
			FullText:  text,
			Fallbacks: candidates,
			Logger:    p.logger,
		})
	}

	return recovery.BuildResult(output, recovery.Options{
		Fields:    requested,
		Source:    source,
		FullText:  text,
		Fallbacks: candidates,
		Logger:    p.logger,
	})
}
