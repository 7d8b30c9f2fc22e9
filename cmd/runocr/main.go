// runocr runs the OCR engines over a screenshot and prints the
// reconstructed text. Useful for tuning preprocessing and line grouping
// without the rest of the pipeline.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/bazaarlens/bazaarlens/internal/common"
	"github.com/bazaarlens/bazaarlens/internal/ocr"
)

func main() {
	minConf := flag.Float64("min-confidence", 0, "drop boxes below this confidence")
	noPreprocess := flag.Bool("raw", false, "skip image preprocessing")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: runocr [-min-confidence N] [-raw] <image>")
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg := common.LoadConfig()

	engines := []ocr.Engine{
		ocr.NewTesseract(ocr.TesseractConfig{
			Binary:     cfg.OCR.Tesseract,
			Lang:       cfg.OCR.TesseractLang,
			PSM:        cfg.OCR.PSM,
			Preprocess: !*noPreprocess,
		}, logger),
	}
	if cfg.OCR.EasyOCRURL != "" {
		engines = append(engines, ocr.NewEasyOCR(ocr.EasyOCRConfig{
			BaseURL:    cfg.OCR.EasyOCRURL,
			Preprocess: !*noPreprocess,
		}, logger))
	}

	extractor := ocr.NewExtractor(engines, *minConf, logger)
	text, err := extractor.ExtractText(context.Background(), flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	fmt.Println(text)
}
