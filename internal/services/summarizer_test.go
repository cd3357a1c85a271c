package services

import (
	"strings"
	"testing"

	"tubedigest-backend/internal/config"
	"tubedigest-backend/internal/models"
)

func TestBuildSummaryPrompt(t *testing.T) {
	video := models.VideoRef{
		ID:          "abc",
		Title:       "How Compilers Work",
		Description: "A deep dive.",
		Duration:    600,
	}

	t.Run("with transcript", func(t *testing.T) {
		prompt := buildSummaryPrompt(video, "lorem ipsum transcript")
		if !strings.Contains(prompt, "How Compilers Work") {
			t.Error("Prompt must include the title")
		}
		if !strings.Contains(prompt, "---TRANSCRIPT START---") {
			t.Error("Prompt must delimit the transcript")
		}
		if strings.Contains(prompt, "No transcript is available") {
			t.Error("Prompt must not claim the transcript is missing")
		}
	})

	t.Run("without transcript", func(t *testing.T) {
		prompt := buildSummaryPrompt(video, "")
		if strings.Contains(prompt, "---TRANSCRIPT START---") {
			t.Error("Prompt must not contain a transcript block")
		}
		if !strings.Contains(prompt, "No transcript is available") {
			t.Error("Prompt must flag the missing transcript")
		}
	})
}

func TestBasicInfoSummary(t *testing.T) {
	video := models.VideoRef{
		Title:       "Some Video",
		Description: "About things.",
		Duration:    90,
		URL:         "https://www.youtube.com/watch?v=abc12345678",
	}

	text := BasicInfoSummary(video)
	for _, want := range []string{"Some Video", "1:30", "About things.", video.URL} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in basic info summary", want)
		}
	}
}

func TestNewSummarizer(t *testing.T) {
	t.Run("ollama", func(t *testing.T) {
		cfg := &config.Config{LLMService: "ollama", OllamaHost: "http://localhost:11434", OllamaModel: "llama3.2"}
		s, err := NewSummarizer(cfg)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if s.Name() != "ollama" {
			t.Errorf("Expected ollama backend, got %q", s.Name())
		}
	})

	t.Run("unknown service", func(t *testing.T) {
		cfg := &config.Config{LLMService: "bard"}
		if _, err := NewSummarizer(cfg); err == nil {
			t.Error("Expected error for unknown service")
		}
	})
}
