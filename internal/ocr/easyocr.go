package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// EasyOCRConfig configures the EasyOCR sidecar client.
type EasyOCRConfig struct {
	BaseURL    string // e.g. http://localhost:8501
	Timeout    time.Duration
	Preprocess bool
}

// EasyOCR talks to an EasyOCR HTTP sidecar. The sidecar accepts a multipart
// image upload on /ocr and returns detections with quad bounding boxes.
type EasyOCR struct {
	cfg    EasyOCRConfig
	client *http.Client
	logger *slog.Logger
}

func NewEasyOCR(cfg EasyOCRConfig, logger *slog.Logger) *EasyOCR {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8501"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &EasyOCR{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

func (e *EasyOCR) Name() string { return "easyocr" }

// detection mirrors the sidecar's response: bbox is the four corner points
// of the detected text region, clockwise from top-left.
type detection struct {
	BBox       [4][2]float64 `json:"bbox"`
	Text       string        `json:"text"`
	Confidence float64       `json:"confidence"`
}

type easyOCRResponse struct {
	Results []detection `json:"results"`
	Error   string      `json:"error"`
}

func (e *EasyOCR) Recognize(ctx context.Context, imagePath string) ([]Box, error) {
	start := time.Now()

	path := imagePath
	if e.cfg.Preprocess {
		pre, err := PreprocessImage(imagePath)
		if err != nil {
			e.logger.Warn("ocr.easyocr.preprocess_failed", "path", imagePath, "error", err)
		} else {
			path = pre
			defer os.Remove(pre)
		}
	}

	body, contentType, err := multipartImage(path)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.BaseURL+"/ocr", body)
	if err != nil {
		return nil, fmt.Errorf("build easyocr request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("easyocr request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("easyocr status %d: %s", resp.StatusCode, truncate(string(raw), 512))
	}

	var parsed easyOCRResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode easyocr response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("easyocr: %s", parsed.Error)
	}

	boxes := make([]Box, 0, len(parsed.Results))
	for _, d := range parsed.Results {
		topLeft, topRight, bottomLeft := d.BBox[0], d.BBox[1], d.BBox[3]
		boxes = append(boxes, Box{
			Left:       topLeft[0],
			Top:        topLeft[1],
			Width:      topRight[0] - topLeft[0],
			Height:     bottomLeft[1] - topLeft[1],
			Confidence: d.Confidence,
			Text:       d.Text,
		})
	}

	e.logger.Debug("ocr.easyocr.ok",
		"path", imagePath,
		"boxes", len(boxes),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return boxes, nil
}

func multipartImage(path string) (io.Reader, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", filepath.Base(path))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("copy image: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
