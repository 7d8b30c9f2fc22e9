package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Extractor runs every configured engine over a screenshot and merges the
// reconstructed text. Engine failures are tolerated as long as at least one
// engine produces output.
type Extractor struct {
	engines       []Engine
	minConfidence float64
	logger        *slog.Logger
}

func NewExtractor(engines []Engine, minConfidence float64, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{engines: engines, minConfidence: minConfidence, logger: logger}
}

// ExtractText recognizes and reconstructs text with each engine, then merges
// the results with the longer text as base.
func (e *Extractor) ExtractText(ctx context.Context, imagePath string) (string, error) {
	start := time.Now()

	var merged string
	var succeeded int
	var lastErr error

	for _, engine := range e.engines {
		boxes, err := engine.Recognize(ctx, imagePath)
		if err != nil {
			e.logger.Warn("ocr.engine.failed", "engine", engine.Name(), "error", err)
			lastErr = err
			continue
		}
		text := ReconstructLines(boxes, e.minConfidence)
		e.logger.Info("ocr.engine.ok",
			"engine", engine.Name(),
			"boxes", len(boxes),
			"chars", len(text),
		)
		succeeded++
		if merged == "" {
			merged = text
		} else {
			merged = MergeTexts(merged, text)
		}
	}

	if succeeded == 0 {
		if lastErr != nil {
			return "", fmt.Errorf("all ocr engines failed: %w", lastErr)
		}
		return "", fmt.Errorf("no ocr engines configured")
	}

	e.logger.Info("ocr.extract.ok",
		"engines", succeeded,
		"chars", len(merged),
		"lines", strings.Count(merged, "\n")+1,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return merged, nil
}
