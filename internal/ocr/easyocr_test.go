package ocr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "page.png")
	require.NoError(t, os.WriteFile(path, []byte("not-a-real-png"), 0o644))
	return path
}

func TestEasyOCRRecognize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ocr", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(10<<20))
		_, _, err := r.FormFile("image")
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"bbox":[[10,10],[90,10],[90,30],[10,30]],"text":"Special","confidence":0.97},
			{"bbox":[[100,10],[160,10],[160,30],[100,30]],"text":"price:","confidence":0.95}
		]}`))
	}))
	defer srv.Close()

	eng := NewEasyOCR(EasyOCRConfig{BaseURL: srv.URL}, nil)
	boxes, err := eng.Recognize(context.Background(), writeTempImage(t))
	require.NoError(t, err)
	require.Len(t, boxes, 2)

	assert.Equal(t, "Special", boxes[0].Text)
	assert.Equal(t, 10.0, boxes[0].Left)
	assert.Equal(t, 10.0, boxes[0].Top)
	assert.Equal(t, 80.0, boxes[0].Width)
	assert.Equal(t, 20.0, boxes[0].Height)
	assert.InDelta(t, 0.97, boxes[0].Confidence, 0.001)
}

func TestEasyOCRSidecarError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[],"error":"model not loaded"}`))
	}))
	defer srv.Close()

	eng := NewEasyOCR(EasyOCRConfig{BaseURL: srv.URL}, nil)
	_, err := eng.Recognize(context.Background(), writeTempImage(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestEasyOCRHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	eng := NewEasyOCR(EasyOCRConfig{BaseURL: srv.URL}, nil)
	_, err := eng.Recognize(context.Background(), writeTempImage(t))
	assert.Error(t, err)
}
