package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bazaarlens/bazaarlens/constants"
	"github.com/bazaarlens/bazaarlens/internal/async"
	"github.com/bazaarlens/bazaarlens/internal/common"
	"github.com/bazaarlens/bazaarlens/internal/export"
	"github.com/bazaarlens/bazaarlens/internal/fields"
	"github.com/bazaarlens/bazaarlens/internal/ingest"
	"github.com/bazaarlens/bazaarlens/internal/pipeline"
	"github.com/bazaarlens/bazaarlens/internal/recovery"
)

// FieldList accepts either a JSON array of field names or a single
// comma-separated string, so `"fields": "rating,price"` and
// `"fields": ["rating", "price"]` both work.
type FieldList []string

func (f *FieldList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*f = nil
		for _, part := range strings.Split(single, ",") {
			if part = strings.TrimSpace(part); part != "" {
				*f = append(*f, part)
			}
		}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*f = list
	return nil
}

type extractRequest struct {
	URL    string    `json:"url"`
	URLs   []string  `json:"urls"`
	Fields FieldList `json:"fields"`
}

type batchRequest struct {
	URLs   []string  `json:"urls"`
	Fields FieldList `json:"fields"`
}

type imageURLsRequest struct {
	ImageURLs []string  `json:"image_urls"`
	Fields    FieldList `json:"fields"`
}

func (s *Server) handleExtract(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	if len(req.URLs) > 0 {
		results, ok := s.runBatch(c, req.URLs, req.Fields)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": results, "count": len(results)})
		return
	}

	v := common.NewValidator()
	v.Field("url", req.URL, common.Required, common.HTTPURL)
	if v.HasErrors() {
		c.JSON(http.StatusBadRequest, gin.H{"error": v.ErrorMessage()})
		return
	}

	result, ok := s.runOne(c, pipeline.Request{URL: req.URL, Fields: req.Fields})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}

func (s *Server) handleExtractBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if len(req.URLs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "urls is required"})
		return
	}

	results, ok := s.runBatch(c, req.URLs, req.Fields)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

func (s *Server) handleUploadCSV(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	defer func() { _ = file.Close() }()

	urls, stats, err := parseURLUpload(file, header.Filename, s)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(urls) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no valid urls in upload", "skipped": stats.Skipped})
		return
	}

	names := c.PostFormArray("fields")
	results, ok := s.runBatch(c, urls, names)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"count":   len(results),
		"skipped": stats.Skipped,
	})
}

func parseURLUpload(file io.Reader, filename string, s *Server) ([]string, ingest.Stats, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return ingest.FromCSV(file, s.logger)
	case ".xlsx":
		return ingest.FromXLSX(file, s.logger)
	default:
		return nil, ingest.Stats{}, fmt.Errorf("unsupported upload type %q, want .csv or .xlsx", filepath.Ext(filename))
	}
}

func (s *Server) handleUploadImage(c *gin.Context) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image is required"})
		return
	}
	defer func() { _ = file.Close() }()

	path, err := s.saveTemp(file, filepath.Ext(header.Filename))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store upload: " + err.Error()})
		return
	}
	defer func() { _ = os.Remove(path) }()

	names := c.PostFormArray("fields")
	result, ok := s.submitWait(c, func() recovery.Result {
		return s.processor.ProcessImage(c.Request.Context(), path, names)
	})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleProcessImageURLs(c *gin.Context) {
	var req imageURLsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if len(req.ImageURLs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image_urls is required"})
		return
	}

	results := make([]recovery.Result, len(req.ImageURLs))
	for i, imageURL := range req.ImageURLs {
		if !ingest.IsHTTPURL(imageURL) {
			r := recovery.NullResult(fields.NormalizeAll(req.Fields), constants.SourceUpload, "invalid image url")
			r.URL = imageURL
			results[i] = r
			continue
		}
		path, err := s.downloadImage(c, imageURL)
		if err != nil {
			r := recovery.NullResult(fields.NormalizeAll(req.Fields), constants.SourceUpload, err.Error())
			r.URL = imageURL
			results[i] = r
			continue
		}
		result, ok := s.submitWait(c, func() recovery.Result {
			return s.processor.ProcessImage(c.Request.Context(), path, req.Fields)
		})
		_ = os.Remove(path)
		if !ok {
			return
		}
		result.URL = imageURL
		results[i] = result
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

func (s *Server) handleExport(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if len(req.URLs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "urls is required"})
		return
	}

	results, ok := s.runBatch(c, req.URLs, req.Fields)
	if !ok {
		return
	}

	requested := fields.NormalizeAll(req.Fields)
	data, err := export.ResultsXLSX(results, requested, s.logger)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "build workbook: " + err.Error()})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="products.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (s *Server) handleFields(c *gin.Context) {
	defs := fields.All()
	out := make([]gin.H, 0, len(defs))
	for _, d := range defs {
		out = append(out, gin.H{
			"name":        d.Name,
			"type":        d.Type,
			"description": d.Description,
			"example":     d.Example,
		})
	}
	c.JSON(http.StatusOK, gin.H{"fields": out, "defaults": fields.NormalizeAll(nil)})
}

// runOne executes one URL extraction through the pool, shedding with 503
// when saturated.
func (s *Server) runOne(c *gin.Context, req pipeline.Request) (recovery.Result, bool) {
	return s.submitWait(c, func() recovery.Result {
		return s.processor.ProcessURL(c.Request.Context(), req)
	})
}

// runBatch fans URLs through the pool. Per-item failures become error
// results; only pool saturation aborts the request.
func (s *Server) runBatch(c *gin.Context, urls []string, names []string) ([]recovery.Result, bool) {
	results := make([]recovery.Result, len(urls))
	var wg sync.WaitGroup

	for i, u := range urls {
		if !ingest.IsHTTPURL(u) {
			r := recovery.NullResult(fields.NormalizeAll(names), constants.SourceUnknown, "invalid url")
			r.URL = u
			results[i] = r
			continue
		}

		i, u := i, u
		wg.Add(1)
		_, err := s.pool.Submit(c.Request.Context(), func(ctx context.Context) {
			defer wg.Done()
			results[i] = s.processor.ProcessURL(c.Request.Context(), pipeline.Request{URL: u, Fields: names})
		})
		if err != nil {
			wg.Done()
			r := recovery.NullResult(fields.NormalizeAll(names), constants.SourceUnknown, err.Error())
			r.URL = u
			results[i] = r
		}
	}
	wg.Wait()
	return results, true
}

// submitWait runs fn on the pool and blocks for its result.
func (s *Server) submitWait(c *gin.Context, fn func() recovery.Result) (recovery.Result, bool) {
	done := make(chan recovery.Result, 1)
	_, err := s.pool.TrySubmit(func(ctx context.Context) {
		done <- fn()
	})
	if err != nil {
		if err == async.ErrSaturated {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "server busy, try again later"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return recovery.Result{}, false
	}

	select {
	case result := <-done:
		return result, true
	case <-c.Request.Context().Done():
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "request cancelled"})
		return recovery.Result{}, false
	}
}

func (s *Server) saveTemp(r io.Reader, ext string) (string, error) {
	if ext == "" {
		ext = ".png"
	}
	path := filepath.Join(os.TempDir(), uuid.New().String()+ext)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	if _, err := io.Copy(f, r); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}

func (s *Server) downloadImage(c *gin.Context, imageURL string) (string, error) {
	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, imageURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("download image: status %d", resp.StatusCode)
	}
	return s.saveTemp(resp.Body, filepath.Ext(imageURL))
}
