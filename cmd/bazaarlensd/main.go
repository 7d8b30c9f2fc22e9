// bazaarlensd is the extraction daemon: it serves the HTTP API and runs
// extractions on a bounded worker pool.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bazaarlens/bazaarlens/internal/async"
	"github.com/bazaarlens/bazaarlens/internal/capture"
	"github.com/bazaarlens/bazaarlens/internal/common"
	"github.com/bazaarlens/bazaarlens/internal/llm"
	"github.com/bazaarlens/bazaarlens/internal/ocr"
	"github.com/bazaarlens/bazaarlens/internal/pipeline"
	"github.com/bazaarlens/bazaarlens/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("config invalid", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := llm.NewFromConfig(cfg.LLM, logger)
	if err != nil {
		if !errors.Is(err, common.ErrNoCredentials) {
			logger.Error("model client", "error", err)
			os.Exit(1)
		}
		// Serve anyway; extractions report the missing credential per item.
		logger.Warn("no model credentials, extractions will return errors")
		client = llm.Disabled()
	}

	engines := buildEngines(cfg.OCR, logger)
	extractor := ocr.NewExtractor(engines, cfg.OCR.MinConfidence, logger)
	capturer := capture.NewService(cfg.Capture, logger)
	processor := pipeline.NewProcessor(cfg.Pipeline, capturer, extractor, client, logger)

	pool := async.NewPool(cfg.Server.Workers, cfg.Server.QueueDepth, logger)
	srv := server.New(cfg.Server, processor, pool, logger).HTTPServer()

	go func() {
		logger.Info("http serving", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	pool.Shutdown(shutdownCtx)
	logger.Info("stopped")
}

// buildEngines wires the recycled tesseract engine plus the EasyOCR
// sidecar when one is configured.
func buildEngines(cfg common.OCRConfig, logger *slog.Logger) []ocr.Engine {
	engines := []ocr.Engine{
		ocr.NewRecycler(func() ocr.Engine {
			return ocr.NewTesseract(ocr.TesseractConfig{
				Binary:     cfg.Tesseract,
				Lang:       cfg.TesseractLang,
				PSM:        cfg.PSM,
				Preprocess: true,
			}, logger)
		}, cfg.MaxEngineUses, logger),
	}
	if cfg.EasyOCRURL != "" {
		engines = append(engines, ocr.NewEasyOCR(ocr.EasyOCRConfig{
			BaseURL:    cfg.EasyOCRURL,
			Preprocess: true,
		}, logger))
	}
	return engines
}
