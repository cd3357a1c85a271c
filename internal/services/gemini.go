package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"tubedigest-backend/internal/models"
)

// GeminiSummarizer is the cloud backend, talking to the Gemini API.
type GeminiSummarizer struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
}

func NewGeminiSummarizer(apiKey, modelName string) (*GeminiSummarizer, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.3)
	model.SetTopP(0.95)

	return &GeminiSummarizer{
		client:    client,
		model:     model,
		modelName: modelName,
	}, nil
}

func (s *GeminiSummarizer) Name() string { return "gemini" }

func (s *GeminiSummarizer) Close() {
	s.client.Close()
}

func (s *GeminiSummarizer) GenerateSummary(ctx context.Context, video models.VideoRef, transcript string) (string, error) {
	prompt := buildSummaryPrompt(video, transcript)

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", &SummarizationError{VideoID: video.ID, Err: fmt.Errorf("Gemini API error: %w", err)}
	}

	text := strings.TrimSpace(extractText(resp))
	if text == "" {
		return "", &SummarizationError{VideoID: video.ID, Err: fmt.Errorf("Gemini returned empty text")}
	}

	return text, nil
}

// CheckConnection issues a minimal generation call to verify the API key and
// model are usable.
func (s *GeminiSummarizer) CheckConnection(ctx context.Context) ConnectionStatus {
	status := ConnectionStatus{Service: "gemini", Model: s.modelName}

	resp, err := s.model.GenerateContent(ctx, genai.Text("Reply with the single word: ok"))
	if err != nil {
		status.State = StateError
		status.Detail = err.Error()
		return status
	}
	if extractText(resp) == "" {
		status.State = StateError
		status.Detail = "empty response from model"
		return status
	}

	status.State = StateConnected
	return status
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
