package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menupix/menupix/internal/markdown"
	"github.com/menupix/menupix/internal/service"
)

// stubVision is a canned vision.MenuAnalyzer.
type stubVision struct {
	isMenu bool
	dishes []string
}

func (s *stubVision) ClassifyMenu(_ context.Context, _ io.Reader, _ string) (bool, error) {
	return s.isMenu, nil
}

func (s *stubVision) ExtractDishes(_ context.Context, _ io.Reader, _ string) ([]string, error) {
	return s.dishes, nil
}

// stubSearcher records queries and serves canned URLs per dish name.
type stubSearcher struct {
	urls    map[string]string
	queries []string
}

func (s *stubSearcher) FirstImage(_ context.Context, query string) (string, error) {
	s.queries = append(s.queries, query)
	return s.urls[query], nil
}

func newTestServer(vision *stubVision, searcher *stubSearcher) *Server {
	svc := service.NewMenuService(vision, searcher, slog.Default())
	return NewServer(svc, slog.Default())
}

// multipartImage builds a multipart body with a minimal JPEG in the "image" field.
func multipartImage(t *testing.T, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "menu.jpg")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}

func postScan(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartImage(t, jpegBytes)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestScanEndpointFullMarkdown(t *testing.T) {
	searcher := &stubSearcher{urls: map[string]string{
		"Miso Soup": "https://img.example.com/miso.jpg",
	}}
	srv := newTestServer(&stubVision{isMenu: true, dishes: []string{"Miso Soup", "Tempura Mixta"}}, searcher)

	rec := postScan(t, srv, "/scan")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/markdown")

	want := "Found 2 dishes on the menu:\n\n" +
		"### Miso Soup\n\n" +
		"[![Miso Soup](https://img.example.com/miso.jpg)](https://img.example.com/miso.jpg)\n\n" +
		"### Tempura Mixta\n\n" +
		"_No image found._\n\n"
	assert.Equal(t, want, rec.Body.String())
	assert.Equal(t, []string{"Miso Soup", "Tempura Mixta"}, searcher.queries)
}

func TestScanEndpointIdempotent(t *testing.T) {
	newSrv := func() *Server {
		return newTestServer(
			&stubVision{isMenu: true, dishes: []string{"Miso Soup", "Tempura Mixta"}},
			&stubSearcher{urls: map[string]string{"Miso Soup": "https://img.example.com/miso.jpg"}},
		)
	}

	first := postScan(t, newSrv(), "/scan")
	second := postScan(t, newSrv(), "/scan")
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())
}

func TestScanEndpointNotMenu(t *testing.T) {
	searcher := &stubSearcher{}
	srv := newTestServer(&stubVision{isMenu: false}, searcher)

	rec := postScan(t, srv, "/scan")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, markdown.MsgNotMenu+"\n", rec.Body.String())
	// A rejected image must trigger zero search calls.
	assert.Empty(t, searcher.queries)
}

func TestScanEndpointNoDishes(t *testing.T) {
	srv := newTestServer(&stubVision{isMenu: true}, &stubSearcher{})

	rec := postScan(t, srv, "/scan")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, markdown.MsgNoDishes+"\n", rec.Body.String())
}

// sseMarkdown decodes the markdown payloads from an SSE body, in order, and
// reports whether a done event terminated the stream.
func sseMarkdown(t *testing.T, body string) (segments []string, done bool) {
	t.Helper()
	for _, line := range strings.Split(body, "\n") {
		if line == "event: done" {
			done = true
			continue
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := line[6:]
		if data == "{}" {
			continue
		}
		var payload struct {
			Markdown string `json:"markdown"`
		}
		require.NoError(t, json.Unmarshal([]byte(data), &payload))
		segments = append(segments, payload.Markdown)
	}
	return segments, done
}

func TestScanStreamEndpoint(t *testing.T) {
	searcher := &stubSearcher{urls: map[string]string{
		"Miso Soup": "https://img.example.com/miso.jpg",
	}}
	srv := newTestServer(&stubVision{isMenu: true, dishes: []string{"Miso Soup", "Tempura Mixta"}}, searcher)

	rec := postScan(t, srv, "/scan/stream")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	segments, done := sseMarkdown(t, rec.Body.String())
	require.Len(t, segments, 3) // header + two dish blocks
	assert.Equal(t, "Found 2 dishes on the menu:\n\n", segments[0])
	assert.Contains(t, segments[1], "[![Miso Soup](https://img.example.com/miso.jpg)]")
	assert.Contains(t, segments[2], markdown.NoImagePlaceholder)
	assert.True(t, done)
}

func TestScanStreamEndpointNotMenu(t *testing.T) {
	searcher := &stubSearcher{}
	srv := newTestServer(&stubVision{isMenu: false}, searcher)

	rec := postScan(t, srv, "/scan/stream")
	require.Equal(t, http.StatusOK, rec.Code)

	segments, done := sseMarkdown(t, rec.Body.String())
	require.Len(t, segments, 1)
	assert.Equal(t, markdown.MsgNotMenu, segments[0])
	assert.True(t, done)
	assert.Empty(t, searcher.queries)
}

func TestScanEndpointMissingImage(t *testing.T) {
	srv := newTestServer(&stubVision{isMenu: true}, &stubSearcher{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/scan", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScanEndpointRejectsNonImage(t *testing.T) {
	srv := newTestServer(&stubVision{isMenu: true}, &stubSearcher{})

	body, contentType := multipartImage(t, []byte("%PDF-1.4 not an image"))
	req := httptest.NewRequest(http.MethodPost, "/scan", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(&stubVision{}, &stubSearcher{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}
