package models

import "time"

// Subscription is one persisted (subscriber, channel) pairing. No two active
// subscriptions may share the same (user_email, channel_url) pair.
type Subscription struct {
	ID          string     `json:"id"`
	ChannelURL  string     `json:"channel_url"`
	ChannelName string     `json:"channel_name"`
	UserEmail   string     `json:"user_email"`
	CreatedAt   time.Time  `json:"created_at"`
	LastChecked *time.Time `json:"last_checked"`
	Active      bool       `json:"active"`
}

type CreateSubscriptionRequest struct {
	ChannelURL  string `json:"channel_url"`
	ChannelName string `json:"channel_name"`
	UserEmail   string `json:"user_email"`
}

type AnalyzeVideoRequest struct {
	URL string `json:"url"`
}

type AnalyzeChannelRequest struct {
	URL   string `json:"url"`
	Limit int    `json:"limit"`
}

// API Error response
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
