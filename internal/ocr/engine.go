// Package ocr recognizes text boxes in page screenshots and reassembles
// them into reading order. Two engines are supported: a local tesseract
// binary and an EasyOCR HTTP sidecar.
package ocr

import (
	"context"
	"log/slog"
	"sync"
)

// Box is one recognized text fragment with its page position.
type Box struct {
	Left       float64
	Top        float64
	Width      float64
	Height     float64
	Confidence float64
	Text       string
}

// Engine recognizes text boxes in an image file.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, imagePath string) ([]Box, error)
}

// Recycler serializes access to an engine and rebuilds it after a fixed
// number of uses. Long-lived recognizer state degrades and leaks memory,
// so the process-wide instance is dropped and lazily re-created.
type Recycler struct {
	factory func() Engine
	maxUses int
	logger  *slog.Logger

	mu     sync.Mutex
	engine Engine
	uses   int
}

// NewRecycler wraps an engine factory. maxUses <= 0 falls back to 50.
func NewRecycler(factory func() Engine, maxUses int, logger *slog.Logger) *Recycler {
	if logger == nil {
		logger = slog.Default()
	}
	if maxUses <= 0 {
		maxUses = 50
	}
	return &Recycler{factory: factory, maxUses: maxUses, logger: logger}
}

// Name reports the wrapped engine's name.
func (r *Recycler) Name() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.engine == nil {
		r.engine = r.factory()
	}
	return r.engine.Name()
}

// Recognize runs the wrapped engine, recycling it first when the use budget
// is spent. Calls are serialized; the underlying engines are not safe for
// concurrent recognition.
func (r *Recycler) Recognize(ctx context.Context, imagePath string) ([]Box, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.engine != nil && r.uses >= r.maxUses {
		r.logger.Info("ocr.engine.recycled", "engine", r.engine.Name(), "uses", r.uses)
		r.engine = nil
		r.uses = 0
	}
	if r.engine == nil {
		r.engine = r.factory()
	}

	r.uses++
	return r.engine.Recognize(ctx, imagePath)
}

// Reset drops the current engine so the next call builds a fresh one.
func (r *Recycler) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engine = nil
	r.uses = 0
}
