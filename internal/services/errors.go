package services

import "fmt"

// NotFoundError means a URL did not resolve to any video or channel. It is
// fatal to the request that supplied the URL.
type NotFoundError struct {
	URL    string
	Reason string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("could not resolve %s: %s", e.URL, e.Reason)
}

// ExtractionError covers a single video failing to extract inside a channel
// batch. Callers skip the video and continue.
type ExtractionError struct {
	VideoID string
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract video %s: %v", e.VideoID, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// SummarizationError covers LLM generation or connection failures. The
// orchestrator absorbs it by demoting the video to the basic-info tier.
type SummarizationError struct {
	VideoID string
	Err     error
}

func (e *SummarizationError) Error() string {
	return fmt.Sprintf("failed to summarize video %s: %v", e.VideoID, e.Err)
}

func (e *SummarizationError) Unwrap() error { return e.Err }

// DeliveryError means a composed notification could not be handed to the mail
// transport. The scheduler leaves that subscriber's cursors untouched.
type DeliveryError struct {
	Email string
	Err   error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("failed to deliver notification to %s: %v", e.Email, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
