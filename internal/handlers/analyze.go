package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"tubedigest-backend/internal/models"
	"tubedigest-backend/internal/scheduler"
	"tubedigest-backend/internal/services"
)

type AnalysisHandler struct {
	analyzer     *services.AnalyzerService
	summarizer   services.Summarizer
	daemon       *scheduler.Daemon
	channelLimit int
}

func NewAnalysisHandler(analyzer *services.AnalyzerService, summarizer services.Summarizer, daemon *scheduler.Daemon, channelLimit int) *AnalysisHandler {
	return &AnalysisHandler{
		analyzer:     analyzer,
		summarizer:   summarizer,
		daemon:       daemon,
		channelLimit: channelLimit,
	}
}

// AnalyzeVideo runs the single-video pipeline and returns the result as one
// JSON document, discarding intermediate progress.
func (h *AnalysisHandler) AnalyzeVideo(w http.ResponseWriter, r *http.Request) {
	var req models.AnalyzeVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "url is required", r))
		return
	}

	result, err := h.analyzer.AnalyzeVideo(r.Context(), req.URL, func(models.ProgressEvent) {})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// AnalyzeVideoStream runs the single-video pipeline over SSE.
func (h *AnalysisHandler) AnalyzeVideoStream(w http.ResponseWriter, r *http.Request) {
	var req models.AnalyzeVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "url is required", r))
		return
	}

	stream, ok := newEventStream(w)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Streaming is not supported", r))
		return
	}

	h.analyzer.AnalyzeVideo(r.Context(), req.URL, stream.emit)
}

// AnalyzeChannel runs the channel pipeline and returns all results at once.
func (h *AnalysisHandler) AnalyzeChannel(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeChannelRequest(w, r)
	if !ok {
		return
	}

	results, err := h.analyzer.AnalyzeChannel(r.Context(), req.URL, req.Limit, func(models.ProgressEvent) {})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}

// AnalyzeChannelStream runs the channel pipeline over SSE.
func (h *AnalysisHandler) AnalyzeChannelStream(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeChannelRequest(w, r)
	if !ok {
		return
	}

	stream, ok := newEventStream(w)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Streaming is not supported", r))
		return
	}

	h.analyzer.AnalyzeChannel(r.Context(), req.URL, req.Limit, stream.emit)
}

func (h *AnalysisHandler) decodeChannelRequest(w http.ResponseWriter, r *http.Request) (models.AnalyzeChannelRequest, bool) {
	var req models.AnalyzeChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return req, false
	}
	if strings.TrimSpace(req.URL) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "url is required", r))
		return req, false
	}
	if !services.IsChannelURL(req.URL) {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "url is not a channel URL", r))
		return req, false
	}
	if req.Limit == 0 {
		req.Limit = h.channelLimit
	}
	return req, true
}

// LLMService reports which backend is active and whether it is reachable.
func (h *AnalysisHandler) LLMService(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	writeJSON(w, http.StatusOK, h.summarizer.CheckConnection(ctx))
}

// CheckSubscriptions triggers one scheduler tick out of band. The tick runs in
// the background; it serializes with cron ticks through the daemon's lock.
func (h *AnalysisHandler) CheckSubscriptions(w http.ResponseWriter, r *http.Request) {
	go func() {
		if err := h.daemon.RunOnce(context.Background()); err != nil {
			log.Printf("Manual subscription check failed: %v", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"message": "Subscription check started"})
}

// TestStream emits a short synthetic event sequence so clients can verify
// their SSE plumbing without spending an analysis.
func (h *AnalysisHandler) TestStream(w http.ResponseWriter, r *http.Request) {
	stream, ok := newEventStream(w)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Streaming is not supported", r))
		return
	}

	const total = 5
	for step := 1; step <= total; step++ {
		select {
		case <-r.Context().Done():
			return
		case <-time.After(500 * time.Millisecond):
		}
		stream.emit(models.NewProgress(fmt.Sprintf("Test step %d of %d", step, total), step, total))
	}
	stream.emit(models.ProgressEvent{Type: models.EventResult, Data: map[string]string{"message": "Stream test complete"}})
}

// eventStream writes SSE frames: each event is one "data: <json>" line
// followed by a blank line, flushed immediately.
type eventStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newEventStream(w http.ResponseWriter) (*eventStream, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &eventStream{w: w, flusher: flusher}, true
}

func (s *eventStream) emit(event models.ProgressEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal stream event: %v", err)
		return
	}
	fmt.Fprintf(s.w, "data: %s\n\n", payload)
	s.flusher.Flush()
}
