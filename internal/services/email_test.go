package services

import (
	"strings"
	"testing"
	"time"

	"tubedigest-backend/internal/models"
)

func TestDigestTemplate(t *testing.T) {
	batch := models.NotificationBatch{
		SubscriberEmail: "alice@example.com",
		GeneratedAt:     time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC),
		Channels: []models.ChannelUpdate{
			{
				ChannelName: "Tech Channel",
				ChannelURL:  "https://www.youtube.com/@tech",
				Results: []models.AnalysisResult{
					{
						Video: models.VideoRef{
							Title:       "New Release <Deep Dive>",
							URL:         "https://www.youtube.com/watch?v=abc12345678",
							Duration:    750,
							PublishedAt: time.Date(2026, 8, 30, 8, 0, 0, 0, time.UTC),
						},
						Summary:        "## Summary\nGood stuff.",
						UsedTranscript: true,
						Tier:           models.TierFullAI,
					},
					{
						Video: models.VideoRef{
							Title:       "Older Video",
							URL:         "https://www.youtube.com/watch?v=def12345678",
							Duration:    60,
							PublishedAt: time.Date(2026, 8, 30, 7, 0, 0, 0, time.UTC),
						},
						Summary: "Basic details.",
						Tier:    models.TierBasicInfo,
					},
				},
			},
		},
	}

	var body strings.Builder
	if err := digestTemplate.Execute(&body, batch); err != nil {
		t.Fatalf("Template failed: %v", err)
	}
	html := body.String()

	for _, want := range []string{
		"Tech Channel",
		"2 new videos",
		"12:30",
		"AI summary",
		"transcript",
		"basic info",
		"https://www.youtube.com/watch?v=abc12345678",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("Expected %q in rendered digest", want)
		}
	}

	// HTML in titles must be escaped
	if strings.Contains(html, "<Deep Dive>") {
		t.Error("Title was not HTML-escaped")
	}
	if !strings.Contains(html, "&lt;Deep Dive&gt;") {
		t.Error("Expected escaped title")
	}
}

func TestSendDigest_DevMode(t *testing.T) {
	// No SMTP host configured: delivery succeeds by logging only.
	s := NewEmailService("", "", "", "", "")
	batch := models.NotificationBatch{
		SubscriberEmail: "alice@example.com",
		GeneratedAt:     time.Now(),
		Channels: []models.ChannelUpdate{
			{ChannelName: "C", Results: []models.AnalysisResult{{Tier: models.TierBasicInfo}}},
		},
	}

	if err := s.SendDigest(batch); err != nil {
		t.Fatalf("Dev mode delivery must not fail: %v", err)
	}
}
