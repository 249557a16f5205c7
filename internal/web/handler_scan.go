package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/menupix/menupix/internal/markdown"
	"github.com/menupix/menupix/internal/service"
)

const maxPhotoSize = 50 * 1024 * 1024 // 50 MB

// allowedImageTypes is the set of MIME types accepted for uploaded photos.
// net/http.DetectContentType handles JPEG, PNG, and GIF via magic-byte
// sniffing. WebP is detected separately because the WHATWG sniff spec (and
// therefore the stdlib) does not include a WebP signature.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// isWebP reports whether data is a WebP image (RIFF container with "WEBP" at
// offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// allowedImageMIME returns the detected MIME type and true if the data is an
// accepted image format, or ("", false) otherwise.
func allowedImageMIME(data []byte) (string, bool) {
	if isWebP(data) {
		return "image/webp", true
	}
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

// readUploadedImage extracts and validates the multipart "image" field.
// On failure it writes the HTTP error itself and returns ok=false.
func (s *Server) readUploadedImage(w http.ResponseWriter, r *http.Request) (data []byte, mimeType string, ok bool) {
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return nil, "", false
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "image file required", http.StatusBadRequest)
		return nil, "", false
	}
	defer closeWithLog(file, "upload file", s.logger)

	data, err = io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read file", http.StatusInternalServerError)
		s.logger.Error("read upload failed", "error", err)
		return nil, "", false
	}

	mimeType, valid := allowedImageMIME(data)
	if !valid {
		http.Error(w, "unsupported image format", http.StatusBadRequest)
		return nil, "", false
	}
	return data, mimeType, true
}

// scanMessage maps a pipeline error to the user-visible chat message. The
// pipeline's terminal conditions are part of the conversation, not HTTP
// failures, so they render as Markdown like any other response.
func (s *Server) scanMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrNotMenu):
		return markdown.MsgNotMenu
	case errors.Is(err, service.ErrNoDishes):
		return markdown.MsgNoDishes
	default:
		s.logger.Error("scan failed", "error", err)
		return markdown.MsgAnalyzeFailed
	}
}

// handleScan runs the pipeline to completion and responds with the full
// Markdown document in one shot.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	imageData, mimeType, ok := s.readUploadedImage(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")

	dishes, results, err := s.service.Scan(r.Context(), imageData, mimeType)
	if err != nil {
		_, _ = io.WriteString(w, s.scanMessage(err)+"\n")
		return
	}

	if _, err := io.WriteString(w, markdown.Header(len(dishes))); err != nil {
		return
	}
	for res := range results {
		if _, err := io.WriteString(w, markdown.DishBlock(res)); err != nil {
			return
		}
	}
}

// handleScanStream is the streaming flow. It accepts the same multipart form
// as handleScan but responds with an SSE stream: one event per Markdown
// segment, JSON-wrapped as {"markdown":"..."}, terminated by a "done" event.
func (s *Server) handleScanStream(w http.ResponseWriter, r *http.Request) {
	imageData, mimeType, ok := s.readUploadedImage(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, canFlush := w.(http.Flusher)
	enc := json.NewEncoder(w)

	emit := func(md string) bool {
		if _, err := w.Write([]byte("data: ")); err != nil {
			return false
		}
		if err := enc.Encode(map[string]string{"markdown": md}); err != nil {
			return false
		}
		if _, err := w.Write([]byte("\n")); err != nil {
			return false
		}
		if canFlush {
			flusher.Flush()
		}
		return true
	}

	done := func() {
		if _, err := w.Write([]byte("event: done\ndata: {}\n\n")); err != nil {
			s.logger.Error("write done event failed", "error", err)
		}
		if canFlush {
			flusher.Flush()
		}
	}

	// Use a detached context so the scan runs to completion even if the
	// client navigates away and the request context is cancelled.
	dishes, results, err := s.service.Scan(context.WithoutCancel(r.Context()), imageData, mimeType)
	if err != nil {
		emit(s.scanMessage(err))
		done()
		return
	}

	if !emit(markdown.Header(len(dishes))) {
		return
	}
	for res := range results {
		if r.Context().Err() != nil {
			return
		}
		if !emit(markdown.DishBlock(res)) {
			return
		}
	}
	done()
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
