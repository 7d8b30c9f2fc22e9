package ocr

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// PreprocessImage prepares a screenshot for recognition: grayscale, a
// contrast and sharpness boost tuned for digits, and an upscale for small
// captures. The result is written next to the temp dir and the caller owns
// the returned path.
func PreprocessImage(imagePath string) (string, error) {
	img, err := imaging.Open(imagePath)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}

	img = imaging.Grayscale(img)
	img = imaging.AdjustContrast(img, 50)
	img = imaging.Sharpen(img, 1.3)

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < 800 || h < 600 {
		scale := max(800.0/float64(w), 600.0/float64(h))
		img = imaging.Resize(img, int(float64(w)*scale), int(float64(h)*scale), imaging.Lanczos)
	}

	out := filepath.Join(os.TempDir(), "bazaarlens-ocr-"+uuid.New().String()+".png")
	if err := imaging.Save(img, out); err != nil {
		return "", fmt.Errorf("save preprocessed image: %w", err)
	}
	return out, nil
}
