package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tubedigest-backend/internal/models"
)

// OllamaSummarizer is the local backend, talking to an Ollama server over its
// HTTP API.
type OllamaSummarizer struct {
	host   string
	model  string
	client *http.Client
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
}

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatResponse struct {
	Message ollamaChatMessage `json:"message"`
	Done    bool              `json:"done"`
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

func NewOllamaSummarizer(host, model string) *OllamaSummarizer {
	return &OllamaSummarizer{
		host:  strings.TrimSuffix(host, "/"),
		model: model,
		// Local generation on modest hardware can take minutes
		client: &http.Client{Timeout: 5 * time.Minute},
	}
}

func (s *OllamaSummarizer) Name() string { return "ollama" }

func (s *OllamaSummarizer) GenerateSummary(ctx context.Context, video models.VideoRef, transcript string) (string, error) {
	reqBody := ollamaChatRequest{
		Model: s.model,
		Messages: []ollamaChatMessage{
			{Role: "user", Content: buildSummaryPrompt(video, transcript)},
		},
		Stream: false,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", &SummarizationError{VideoID: video.ID, Err: fmt.Errorf("marshaling request: %w", err)}
	}

	url := fmt.Sprintf("%s/api/chat", s.host)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", &SummarizationError{VideoID: video.ID, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", &SummarizationError{VideoID: video.ID, Err: fmt.Errorf("sending request to Ollama: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &SummarizationError{VideoID: video.ID, Err: fmt.Errorf("Ollama API error (status %d): %s", resp.StatusCode, string(body))}
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", &SummarizationError{VideoID: video.ID, Err: fmt.Errorf("decoding response: %w", err)}
	}

	text := strings.TrimSpace(chatResp.Message.Content)
	if text == "" {
		return "", &SummarizationError{VideoID: video.ID, Err: fmt.Errorf("Ollama returned empty text")}
	}

	return text, nil
}

// CheckConnection probes the Ollama server's tag list and reports whether the
// configured model is pulled.
func (s *OllamaSummarizer) CheckConnection(ctx context.Context) ConnectionStatus {
	status := ConnectionStatus{Service: "ollama", Model: s.model}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/api/tags", s.host), nil)
	if err != nil {
		status.State = StateError
		status.Detail = err.Error()
		return status
	}

	resp, err := s.client.Do(req)
	if err != nil {
		status.State = StateDisconnected
		status.Detail = fmt.Sprintf("Ollama unreachable at %s: %v", s.host, err)
		return status
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		status.State = StateError
		status.Detail = fmt.Sprintf("Ollama returned status %d", resp.StatusCode)
		return status
	}

	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		status.State = StateError
		status.Detail = fmt.Sprintf("decoding tags response: %v", err)
		return status
	}

	for _, m := range tags.Models {
		if m.Name == s.model || strings.HasPrefix(m.Name, s.model+":") {
			status.State = StateConnected
			return status
		}
	}

	status.State = StateError
	status.Detail = fmt.Sprintf("model %q is not pulled on the Ollama server", s.model)
	return status
}
