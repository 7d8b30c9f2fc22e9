package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bazaarlens/bazaarlens/constants"
	"github.com/bazaarlens/bazaarlens/internal/capture"
	"github.com/bazaarlens/bazaarlens/internal/common"
)

type stubCapturer struct {
	snap *capture.Snapshot
	err  error
}

func (s *stubCapturer) Capture(ctx context.Context, pageURL string) (*capture.Snapshot, error) {
	return s.snap, s.err
}

type stubOCR struct {
	text  string
	err   error
	calls int
}

func (s *stubOCR) ExtractText(ctx context.Context, imagePath string) (string, error) {
	s.calls++
	return s.text, s.err
}

type stubClient struct {
	output string
	err    error
	calls  int
	prompt string
}

func (s *stubClient) Name() string { return "stub" }

func (s *stubClient) Complete(ctx context.Context, prompt string) (string, error) {
	s.calls++
	s.prompt = prompt
	return s.output, s.err
}

func testConfig() common.PipelineConfig {
	return common.PipelineConfig{
		MinDOMTextLen:   50,
		MinFinalTextLen: 10,
		UseDOMFirst:     true,
		UseOCRFallback:  true,
	}
}

const flipkartOCRText = "Special price: ₹592\n₹1,302\n54% off\n4.2★\n2,82,519 ratings"

func TestProcessURLRichDOMSkipsOCR(t *testing.T) {
	domText := "Acme Phone 5G\nSpecial price: ₹592\nRated 4.2 out of 5 stars by 2,82,519 buyers"
	ocr := &stubOCR{text: "should not be used"}
	client := &stubClient{output: `{"rating": 4.2, "review": "Great phone"}`}
	p := NewProcessor(testConfig(),
		&stubCapturer{snap: &capture.Snapshot{DOMText: domText, ScreenshotPath: "/tmp/s.png"}},
		ocr, client, nil)

	r := p.ProcessURL(context.Background(), Request{URL: "https://example.com/p/1"})

	assert.Equal(t, constants.SourceDOM, r.Source)
	assert.Equal(t, 4.2, r.Fields["rating"])
	assert.Equal(t, "Great phone", r.Fields["review"])
	assert.Zero(t, ocr.calls)
	assert.Contains(t, client.prompt, domText)
}

func TestProcessURLThinDOMFallsToOCR(t *testing.T) {
	ocr := &stubOCR{text: flipkartOCRText}
	client := &stubClient{output: `{"price": "₹592", "mrp": "₹1,302", "rating": 4.2}`}
	p := NewProcessor(testConfig(),
		&stubCapturer{snap: &capture.Snapshot{DOMText: "thin", ScreenshotPath: "/tmp/s.png"}},
		ocr, client, nil)

	r := p.ProcessURL(context.Background(), Request{
		URL:    "https://example.com/p/1",
		Fields: []string{"price", "mrp", "rating"},
	})

	assert.Equal(t, constants.SourceOCR, r.Source)
	assert.Equal(t, "₹592", r.Fields["price"])
	assert.Equal(t, "₹1,302", r.Fields["mrp"])
	assert.Equal(t, 4.2, r.Fields["rating"])
	assert.Equal(t, 1, ocr.calls)
}

func TestProcessURLOCRFallbackDisabled(t *testing.T) {
	ocr := &stubOCR{text: flipkartOCRText}
	client := &stubClient{output: `{"rating": null, "review": null}`}
	cfg := testConfig()
	cfg.UseOCRFallback = false
	p := NewProcessor(cfg,
		&stubCapturer{snap: &capture.Snapshot{DOMText: "thin but usable", ScreenshotPath: "/tmp/s.png"}},
		ocr, client, nil)

	r := p.ProcessURL(context.Background(), Request{URL: "https://example.com/p/1"})

	assert.Equal(t, constants.SourceDOM, r.Source)
	assert.Zero(t, ocr.calls)
	assert.Equal(t, 1, client.calls)
}

func TestProcessURLOCRFallbackDisabledStillRunsOnTinyText(t *testing.T) {
	ocr := &stubOCR{text: flipkartOCRText}
	client := &stubClient{output: `{"rating": 4.2, "review": null}`}
	cfg := testConfig()
	cfg.UseOCRFallback = false
	p := NewProcessor(cfg,
		&stubCapturer{snap: &capture.Snapshot{DOMText: "tiny", ScreenshotPath: "/tmp/s.png"}},
		ocr, client, nil)

	r := p.ProcessURL(context.Background(), Request{URL: "https://example.com/p/1"})

	assert.Equal(t, constants.SourceOCR, r.Source)
	assert.Equal(t, 1, ocr.calls)
	assert.Equal(t, 4.2, r.Fields["rating"])
}

func TestProcessURLInsufficientTextNeverCallsModel(t *testing.T) {
	ocr := &stubOCR{text: ""}
	client := &stubClient{output: `{"rating": 4.2}`}
	p := NewProcessor(testConfig(),
		&stubCapturer{snap: &capture.Snapshot{DOMText: "", ScreenshotPath: "/tmp/s.png"}},
		ocr, client, nil)

	r := p.ProcessURL(context.Background(), Request{URL: "https://example.com/p/1"})

	assert.Equal(t, ErrInsufficientText, r.Error)
	assert.Nil(t, r.Fields["rating"])
	assert.Nil(t, r.Fields["review"])
	assert.Zero(t, client.calls, "model must not be called without text")
}

func TestProcessURLRatingHintPrepended(t *testing.T) {
	client := &stubClient{output: `{"rating": 4.3, "review": null}`}
	p := NewProcessor(testConfig(),
		&stubCapturer{snap: &capture.Snapshot{
			DOMText:    "Acme Phone 5G with a long enough description to pass the threshold",
			RatingHint: "4.3",
		}},
		&stubOCR{}, client, nil)

	p.ProcessURL(context.Background(), Request{URL: "https://example.com/p/1"})
	assert.Contains(t, client.prompt, "Rating: 4.3 stars\n")
}

func TestProcessURLCaptureFailure(t *testing.T) {
	client := &stubClient{}
	p := NewProcessor(testConfig(),
		&stubCapturer{err: common.ErrAccessDenied},
		&stubOCR{}, client, nil)

	r := p.ProcessURL(context.Background(), Request{URL: "https://example.com/p/1"})

	assert.NotEmpty(t, r.Error)
	assert.Zero(t, client.calls)
	assert.Equal(t, "https://example.com/p/1", r.URL)
}

func TestProcessURLModelFailureUsesFallbacks(t *testing.T) {
	ocr := &stubOCR{text: flipkartOCRText}
	client := &stubClient{err: errors.New("model down")}
	p := NewProcessor(testConfig(),
		&stubCapturer{snap: &capture.Snapshot{DOMText: "", ScreenshotPath: "/tmp/s.png"}},
		ocr, client, nil)

	r := p.ProcessURL(context.Background(), Request{
		URL:    "https://example.com/p/1",
		Fields: []string{"rating", "ratings_count"},
	})

	assert.Equal(t, 4.2, r.Fields["rating"])
	assert.Equal(t, 282519, r.Fields["ratings_count"])
	assert.NotEmpty(t, r.Note)
}

func TestProcessURLDefaultFields(t *testing.T) {
	client := &stubClient{output: `{"rating": 4.0, "review": "ok"}`}
	p := NewProcessor(testConfig(),
		&stubCapturer{snap: &capture.Snapshot{DOMText: "a perfectly long product description over fifty characters"}},
		&stubOCR{}, client, nil)

	r := p.ProcessURL(context.Background(), Request{URL: "https://example.com/p/1"})

	_, hasRating := r.Fields["rating"]
	_, hasReview := r.Fields["review"]
	assert.True(t, hasRating)
	assert.True(t, hasReview)
	assert.Len(t, r.Fields, 2)
}

func TestProcessImage(t *testing.T) {
	ocr := &stubOCR{text: flipkartOCRText}
	client := &stubClient{output: `{"rating": 4.2, "review": null}`}
	p := NewProcessor(testConfig(), &stubCapturer{}, ocr, client, nil)

	r := p.ProcessImage(context.Background(), "/tmp/upload.png", nil)

	assert.Equal(t, constants.SourceUpload, r.Source)
	assert.Equal(t, 4.2, r.Fields["rating"])
}

func TestProcessImageOCRError(t *testing.T) {
	ocr := &stubOCR{err: errors.New("no engines")}
	p := NewProcessor(testConfig(), &stubCapturer{}, ocr, &stubClient{}, nil)

	r := p.ProcessImage(context.Background(), "/tmp/upload.png", []string{"rating"})
	assert.NotEmpty(t, r.Error)
	assert.Nil(t, r.Fields["rating"])
}
