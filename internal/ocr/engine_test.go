package ocr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEngine struct {
	id    int
	calls int
}

func (c *countingEngine) Name() string { return "counting" }

func (c *countingEngine) Recognize(context.Context, string) ([]Box, error) {
	c.calls++
	return []Box{{Text: "x", Confidence: 1}}, nil
}

func TestRecyclerLazyInit(t *testing.T) {
	built := 0
	r := NewRecycler(func() Engine {
		built++
		return &countingEngine{id: built}
	}, 10, nil)

	assert.Equal(t, 0, built)
	_, err := r.Recognize(context.Background(), "img.png")
	require.NoError(t, err)
	assert.Equal(t, 1, built)
}

func TestRecyclerRebuildsAfterMaxUses(t *testing.T) {
	built := 0
	r := NewRecycler(func() Engine {
		built++
		return &countingEngine{id: built}
	}, 3, nil)

	for i := 0; i < 7; i++ {
		_, err := r.Recognize(context.Background(), "img.png")
		require.NoError(t, err)
	}
	// Uses 1-3 on the first instance, 4-6 on the second, 7 on the third.
	assert.Equal(t, 3, built)
}

func TestRecyclerReset(t *testing.T) {
	built := 0
	r := NewRecycler(func() Engine {
		built++
		return &countingEngine{id: built}
	}, 50, nil)

	_, _ = r.Recognize(context.Background(), "img.png")
	r.Reset()
	_, _ = r.Recognize(context.Background(), "img.png")
	assert.Equal(t, 2, built)
}

func TestRecyclerDefaultMaxUses(t *testing.T) {
	r := NewRecycler(func() Engine { return &countingEngine{} }, 0, nil)
	assert.Equal(t, 50, r.maxUses)
}

func TestExtractorMergesEngines(t *testing.T) {
	a := &staticEngine{name: "a", boxes: []Box{
		{Left: 0, Top: 0, Confidence: 1, Text: "Special"},
		{Left: 60, Top: 0, Confidence: 1, Text: "price: ₹592"},
	}}
	b := &staticEngine{name: "b", boxes: []Box{
		{Left: 0, Top: 0, Confidence: 1, Text: "2,82,519 ratings"},
	}}

	ex := NewExtractor([]Engine{a, b}, 0, nil)
	text, err := ex.ExtractText(context.Background(), "img.png")
	require.NoError(t, err)
	assert.Contains(t, text, "Special price: ₹592")
	assert.Contains(t, text, "2,82,519 ratings")
}

func TestExtractorToleratesOneFailure(t *testing.T) {
	ok := &staticEngine{name: "ok", boxes: []Box{{Confidence: 1, Text: "hello"}}}
	bad := &staticEngine{name: "bad", err: assert.AnError}

	ex := NewExtractor([]Engine{bad, ok}, 0, nil)
	text, err := ex.ExtractText(context.Background(), "img.png")
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestExtractorAllFail(t *testing.T) {
	bad := &staticEngine{name: "bad", err: assert.AnError}
	ex := NewExtractor([]Engine{bad}, 0, nil)
	_, err := ex.ExtractText(context.Background(), "img.png")
	assert.Error(t, err)
}

type staticEngine struct {
	name  string
	boxes []Box
	err   error
}

func (s *staticEngine) Name() string { return s.name }

func (s *staticEngine) Recognize(context.Context, string) ([]Box, error) {
	return s.boxes, s.err
}
