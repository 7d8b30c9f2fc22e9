// bazaarlens is the one-shot CLI: extract attributes for a single product
// URL or an already-captured screenshot and print the result as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/bazaarlens/bazaarlens/internal/capture"
	"github.com/bazaarlens/bazaarlens/internal/common"
	"github.com/bazaarlens/bazaarlens/internal/llm"
	"github.com/bazaarlens/bazaarlens/internal/ocr"
	"github.com/bazaarlens/bazaarlens/internal/pipeline"
	"github.com/bazaarlens/bazaarlens/internal/recovery"
)

func main() {
	fieldsFlag := flag.String("fields", "", "comma-separated field names (default: rating,review)")
	imageFlag := flag.String("image", "", "extract from a local screenshot instead of a URL")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if *imageFlag == "" && flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: bazaarlens [-fields rating,price] <product-url>")
		fmt.Fprintln(os.Stderr, "       bazaarlens [-fields rating,price] -image <screenshot.png>")
		os.Exit(2)
	}

	var names []string
	if *fieldsFlag != "" {
		for _, f := range strings.Split(*fieldsFlag, ",") {
			if f = strings.TrimSpace(f); f != "" {
				names = append(names, f)
			}
		}
	}

	cfg := common.LoadConfig()
	ctx, cancel := common.WithTimeout(context.Background(), cfg.Server.RequestTimeout)
	defer cancel()

	client, err := llm.NewFromConfig(cfg.LLM, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	engines := []ocr.Engine{
		ocr.NewRecycler(func() ocr.Engine {
			return ocr.NewTesseract(ocr.TesseractConfig{
				Binary:     cfg.OCR.Tesseract,
				Lang:       cfg.OCR.TesseractLang,
				PSM:        cfg.OCR.PSM,
				Preprocess: true,
			}, logger)
		}, cfg.OCR.MaxEngineUses, logger),
	}
	if cfg.OCR.EasyOCRURL != "" {
		engines = append(engines, ocr.NewEasyOCR(ocr.EasyOCRConfig{BaseURL: cfg.OCR.EasyOCRURL, Preprocess: true}, logger))
	}
	extractor := ocr.NewExtractor(engines, cfg.OCR.MinConfidence, logger)
	capturer := capture.NewService(cfg.Capture, logger)
	processor := pipeline.NewProcessor(cfg.Pipeline, capturer, extractor, client, logger)

	var result recovery.Result
	if *imageFlag != "" {
		result = processor.ProcessImage(ctx, *imageFlag, names)
	} else {
		result = processor.ProcessURL(ctx, pipeline.Request{URL: flag.Arg(0), Fields: names})
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	fmt.Println(string(out))

	if result.Error != "" {
		os.Exit(1)
	}
}
