package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazaarlens/bazaarlens/internal/common"
)

func newTestMistral(t *testing.T, handler http.HandlerFunc) (*Mistral, *[]time.Duration) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	m := NewMistral(MistralConfig{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		MaxRetries: 3,
	}, nil)

	var slept []time.Duration
	m.retrier.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return m, &slept
}

func TestMistralComplete(t *testing.T) {
	var gotBody map[string]any
	m, _ := newTestMistral(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":" {\"rating\": 4.2} "}}]}`))
	})

	out, err := m.Complete(context.Background(), "extract the fields")
	require.NoError(t, err)
	assert.Equal(t, `{"rating": 4.2}`, out)

	assert.Equal(t, "mistral-medium", gotBody["model"])
	assert.Equal(t, float64(0), gotBody["temperature"])
	assert.Equal(t, float64(4096), gotBody["max_tokens"])
}

func TestMistralRetriesServerErrors(t *testing.T) {
	var calls int
	m, slept := newTestMistral(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	})

	out, err := m.Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, *slept)
}

func TestMistralGivesUpAfterMaxRetries(t *testing.T) {
	var calls int
	m, _ := newTestMistral(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := m.Complete(context.Background(), "p")
	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestMistralRateLimitHonorsRetryAfterWithFloor(t *testing.T) {
	var calls int
	m, slept := newTestMistral(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "5")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	})

	_, err := m.Complete(context.Background(), "p")
	require.NoError(t, err)
	// A claimed 5s wait is still floored to a minute.
	assert.Equal(t, []time.Duration{rateLimitFloor}, *slept)
}

func TestRetrierCancelledContextCutsBackoffShort(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls int
	r := newRetrier(3, nil)
	start := time.Now()
	err := r.do(ctx, func() (int, string, error) {
		calls++
		cancel()
		// A 429 would otherwise block for the full rate-limit floor.
		return http.StatusTooManyRequests, "", assert.AnError
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDisabledClient(t *testing.T) {
	c := Disabled()
	assert.Equal(t, "none", c.Name())
	_, err := c.Complete(context.Background(), "p")
	assert.ErrorIs(t, err, common.ErrNoCredentials)
}

func TestRetrierDelayForLongRetryAfter(t *testing.T) {
	r := newRetrier(3, nil)
	assert.Equal(t, 90*time.Second, r.delayFor(http.StatusTooManyRequests, "90", 0))
	assert.Equal(t, rateLimitFloor, r.delayFor(http.StatusTooManyRequests, "", 0))
	assert.Equal(t, 4*time.Second, r.delayFor(http.StatusInternalServerError, "", 2))
}

func TestHuggingFaceComplete(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`[{"generated_text":"{\"rating\": null}"}]`))
	}))
	defer srv.Close()

	h := NewHuggingFace(HFConfig{Token: "hf_abc", BaseURL: srv.URL, Model: "org/model"}, nil)
	out, err := h.Complete(context.Background(), "prompt text")
	require.NoError(t, err)
	assert.Equal(t, `{"rating": null}`, out)
	assert.Equal(t, "/org/model", gotPath)
	assert.Equal(t, "prompt text", gotBody["inputs"])
}

func TestFactoryRouting(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	hf, err := NewFromConfig(common.LLMConfig{APIKey: "hf_token123"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "huggingface", hf.Name())

	mistral, err := NewFromConfig(common.LLMConfig{APIKey: "sk-mistral"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "mistral", mistral.Name())

	_, err = NewFromConfig(common.LLMConfig{}, nil)
	assert.ErrorIs(t, err, common.ErrNoCredentials)

	t.Setenv("GEMINI_API_KEY", "g-key")
	gem, err := NewFromConfig(common.LLMConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "gemini", gem.Name())
}
