package models

import (
	"fmt"
	"time"
)

// Processing tiers for a single video within a batch.
const (
	TierFullAI    = "full-ai"
	TierBasicInfo = "basic-info"
)

// VideoRef identifies one extracted video. Immutable once built;
// PublishedAt is always normalized to UTC.
type VideoRef struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Duration    int       `json:"duration_seconds"`
	Thumbnail   string    `json:"thumbnail"`
	PublishedAt time.Time `json:"published_at"`
}

// DurationDisplay renders the duration as H:MM:SS, or M:SS under an hour.
func (v VideoRef) DurationDisplay() string {
	if v.Duration <= 0 {
		return "0:00"
	}
	h := v.Duration / 3600
	m := (v.Duration % 3600) / 60
	s := v.Duration % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// AnalysisResult is the outcome of processing one video.
type AnalysisResult struct {
	Video          VideoRef `json:"video"`
	Summary        string   `json:"summary,omitempty"`
	UsedTranscript bool     `json:"used_transcript"`
	Tier           string   `json:"tier"`
}

// Progress event kinds as they appear on the wire.
const (
	EventProgress = "progress"
	EventResult   = "result"
	EventError    = "error"
)

// ProgressEvent is one element of an analysis event sequence: zero or more
// progress events followed by exactly one terminal result or error event.
// The numeric fields are always serialized so a step-0 progress event still
// carries step/total/progress on the wire.
type ProgressEvent struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Step    int    `json:"step"`
	Total   int    `json:"total"`
	Percent int    `json:"progress"`
	Data    any    `json:"data,omitempty"`
}

// Terminal reports whether no further events may follow this one.
func (e ProgressEvent) Terminal() bool {
	return e.Type == EventResult || e.Type == EventError
}

// NewProgress builds a progress event with percent derived from step/total.
func NewProgress(message string, step, total int) ProgressEvent {
	percent := 0
	if total > 0 {
		percent = int(float64(step)/float64(total)*100 + 0.5)
	}
	return ProgressEvent{
		Type:    EventProgress,
		Message: message,
		Step:    step,
		Total:   total,
		Percent: percent,
	}
}

// ChannelUpdate groups one channel's new results inside a notification batch.
type ChannelUpdate struct {
	ChannelName    string           `json:"channel_name"`
	ChannelURL     string           `json:"channel_url"`
	SubscriptionID string           `json:"subscription_id"`
	Results        []AnalysisResult `json:"results"`
}

// NotificationBatch is the transient per-subscriber payload assembled during
// one scheduler tick. It is never persisted.
type NotificationBatch struct {
	SubscriberEmail string          `json:"subscriber_email"`
	Channels        []ChannelUpdate `json:"channels"`
	GeneratedAt     time.Time       `json:"generated_at"`
}

// TotalVideos counts results across all channels in the batch.
func (b NotificationBatch) TotalVideos() int {
	n := 0
	for _, ch := range b.Channels {
		n += len(ch.Results)
	}
	return n
}

// AISummaryCount counts results that received full AI treatment.
func (b NotificationBatch) AISummaryCount() int {
	n := 0
	for _, ch := range b.Channels {
		for _, r := range ch.Results {
			if r.Tier == TierFullAI {
				n++
			}
		}
	}
	return n
}
