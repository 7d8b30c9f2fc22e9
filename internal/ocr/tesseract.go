package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// TesseractConfig configures the tesseract engine.
type TesseractConfig struct {
	Binary     string // binary name or absolute path; if empty -> "tesseract"
	Lang       string // default "eng"
	PSM        int    // 6 = single uniform block, good for product pages
	Preprocess bool
}

// Tesseract shells out to the tesseract binary in TSV mode so word boxes
// keep their page coordinates.
type Tesseract struct {
	cfg    TesseractConfig
	runner Runner
	logger *slog.Logger
}

func NewTesseract(cfg TesseractConfig, logger *slog.Logger) *Tesseract {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Binary == "" {
		cfg.Binary = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	if cfg.PSM <= 0 {
		cfg.PSM = 6
	}
	return &Tesseract{cfg: cfg, runner: execRunner{}, logger: logger}
}

func (t *Tesseract) Name() string { return "tesseract" }

func (t *Tesseract) Recognize(ctx context.Context, imagePath string) ([]Box, error) {
	start := time.Now()

	path := imagePath
	if t.cfg.Preprocess {
		pre, err := PreprocessImage(imagePath)
		if err != nil {
			t.logger.Warn("ocr.tesseract.preprocess_failed", "path", imagePath, "error", err)
		} else {
			path = pre
			defer os.Remove(pre)
		}
	}

	args := []string{
		path, "stdout",
		"-l", t.cfg.Lang,
		"--psm", strconv.Itoa(t.cfg.PSM),
		"tsv",
	}
	stdout, _, err := t.runner.Run(ctx, t.cfg.Binary, args...)
	if err != nil {
		return nil, fmt.Errorf("tesseract run: %w", err)
	}

	boxes := parseTSV(string(stdout))
	t.logger.Debug("ocr.tesseract.ok",
		"path", imagePath,
		"boxes", len(boxes),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return boxes, nil
}

// parseTSV reads tesseract TSV output. Word rows carry 12 columns with the
// confidence in column 11 and the text last; rows with conf -1 are layout
// markers, not words.
func parseTSV(out string) []Box {
	var boxes []Box
	lines := strings.Split(out, "\n")
	for i, line := range lines {
		if i == 0 || strings.TrimSpace(line) == "" {
			continue // header
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 12 {
			continue
		}
		conf, err := strconv.ParseFloat(cols[10], 64)
		if err != nil || conf < 0 {
			continue
		}
		text := strings.TrimSpace(cols[11])
		if text == "" {
			continue
		}
		left, _ := strconv.ParseFloat(cols[6], 64)
		top, _ := strconv.ParseFloat(cols[7], 64)
		width, _ := strconv.ParseFloat(cols[8], 64)
		height, _ := strconv.ParseFloat(cols[9], 64)
		boxes = append(boxes, Box{
			Left:       left,
			Top:        top,
			Width:      width,
			Height:     height,
			Confidence: conf,
			Text:       text,
		})
	}
	return boxes
}
