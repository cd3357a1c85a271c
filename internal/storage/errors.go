package storage

import "fmt"

// DuplicateError means an active subscription already exists for the same
// (email, channel) pair.
type DuplicateError struct {
	Email      string
	ChannelURL string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("subscription already exists for %s on %s", e.Email, e.ChannelURL)
}

// CorruptionError means the persisted snapshot could not be parsed. The store
// refuses to overwrite the file so the damaged state stays inspectable.
type CorruptionError struct {
	Path string
	Err  error
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("subscription store %s is corrupted: %v", e.Path, e.Err)
}

func (e *CorruptionError) Unwrap() error { return e.Err }
