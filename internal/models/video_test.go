package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestDurationDisplay(t *testing.T) {
	tests := []struct {
		name     string
		seconds  int
		expected string
	}{
		{"zero", 0, "0:00"},
		{"under a minute", 45, "0:45"},
		{"minutes and seconds", 754, "12:34"},
		{"over an hour", 3930, "1:05:30"},
		{"negative clamps to zero", -5, "0:00"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := VideoRef{Duration: tc.seconds}
			if got := v.DurationDisplay(); got != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestNewProgress(t *testing.T) {
	tests := []struct {
		name            string
		step, total     int
		expectedPercent int
	}{
		{"first of three", 1, 3, 33},
		{"last of three", 3, 3, 100},
		{"half", 1, 2, 50},
		{"zero total", 0, 0, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := NewProgress("msg", tc.step, tc.total)
			if e.Type != EventProgress {
				t.Errorf("Expected type %q, got %q", EventProgress, e.Type)
			}
			if e.Percent != tc.expectedPercent {
				t.Errorf("Expected %d%%, got %d%%", tc.expectedPercent, e.Percent)
			}
			if e.Terminal() {
				t.Error("Progress events must not be terminal")
			}
		})
	}
}

func TestProgressEventWireFields(t *testing.T) {
	// A step-0 preamble event must still carry its numeric fields on the wire.
	data, err := json.Marshal(NewProgress("Resolving channel", 0, 1))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for _, field := range []string{`"step":0`, `"total":1`, `"progress":0`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("Expected %s in %s", field, data)
		}
	}
}

func TestTerminal(t *testing.T) {
	if !(ProgressEvent{Type: EventResult}).Terminal() {
		t.Error("result events are terminal")
	}
	if !(ProgressEvent{Type: EventError}).Terminal() {
		t.Error("error events are terminal")
	}
	if (ProgressEvent{Type: EventProgress}).Terminal() {
		t.Error("progress events are not terminal")
	}
}

func TestNotificationBatchCounts(t *testing.T) {
	batch := NotificationBatch{
		SubscriberEmail: "alice@example.com",
		GeneratedAt:     time.Now(),
		Channels: []ChannelUpdate{
			{
				ChannelName: "Channel A",
				Results: []AnalysisResult{
					{Tier: TierFullAI},
					{Tier: TierFullAI},
					{Tier: TierBasicInfo},
				},
			},
			{
				ChannelName: "Channel B",
				Results: []AnalysisResult{
					{Tier: TierFullAI},
				},
			},
		},
	}

	if got := batch.TotalVideos(); got != 4 {
		t.Errorf("Expected 4 videos, got %d", got)
	}
	if got := batch.AISummaryCount(); got != 3 {
		t.Errorf("Expected 3 AI summaries, got %d", got)
	}
}
