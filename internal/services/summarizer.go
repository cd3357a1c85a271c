package services

import (
	"context"
	"fmt"
	"strings"

	"tubedigest-backend/internal/config"
	"tubedigest-backend/internal/models"
)

// Connection states reported by a summarizer backend.
const (
	StateConnected    = "connected"
	StateDisconnected = "disconnected"
	StateError        = "error"
)

// ConnectionStatus is the result of probing a backend's reachability.
type ConnectionStatus struct {
	Service string `json:"service"`
	Model   string `json:"model"`
	State   string `json:"status"`
	Detail  string `json:"detail,omitempty"`
}

// Summarizer generates a markdown summary for one video. Implementations are
// selected once at startup and never switched mid-process.
type Summarizer interface {
	GenerateSummary(ctx context.Context, video models.VideoRef, transcript string) (string, error)
	CheckConnection(ctx context.Context) ConnectionStatus
	Name() string
}

// NewSummarizer builds the backend named in the configuration.
func NewSummarizer(cfg *config.Config) (Summarizer, error) {
	switch cfg.LLMService {
	case "gemini":
		return NewGeminiSummarizer(cfg.GeminiAPIKey, cfg.GeminiModel)
	case "ollama":
		return NewOllamaSummarizer(cfg.OllamaHost, cfg.OllamaModel), nil
	default:
		return nil, fmt.Errorf("unknown LLM service %q (want \"ollama\" or \"gemini\")", cfg.LLMService)
	}
}

// buildSummaryPrompt assembles the shared prompt used by every backend. With a
// transcript the model summarizes actual content; without one it works from
// title and description alone and is told so.
func buildSummaryPrompt(video models.VideoRef, transcript string) string {
	var b strings.Builder

	b.WriteString("You are an expert video content analyst. Create a structured markdown summary of the following YouTube video.\n\n")
	b.WriteString("Respond with exactly these four markdown sections:\n")
	b.WriteString("## Summary\n## Key Topics\n## Target Audience\n## Key Takeaways\n\n")
	b.WriteString("Keep the whole response under 500 words. Use bullet points in Key Topics and Key Takeaways.\n\n")

	b.WriteString(fmt.Sprintf("Title: %s\n", video.Title))
	b.WriteString(fmt.Sprintf("Duration: %s\n", video.DurationDisplay()))
	if video.Description != "" {
		b.WriteString(fmt.Sprintf("Description: %s\n", video.Description))
	}

	if transcript != "" {
		b.WriteString("\n---TRANSCRIPT START---\n")
		b.WriteString(transcript)
		b.WriteString("\n---TRANSCRIPT END---\n")
	} else {
		b.WriteString("\nNo transcript is available. Base the summary on the title and description only, and say in the Summary section that it is based on metadata rather than the video's spoken content.\n")
	}

	return b.String()
}

// BasicInfoSummary is the text used for videos outside the AI budget or whose
// summarization failed. It carries no LLM output.
func BasicInfoSummary(video models.VideoRef) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("**%s** (%s)\n\n", video.Title, video.DurationDisplay()))
	if video.Description != "" {
		b.WriteString(video.Description)
		b.WriteString("\n\n")
	}
	b.WriteString(fmt.Sprintf("Watch: %s", video.URL))
	return b.String()
}
