package core

import (
	"fmt"
	"strings"
)

// ConfigurationError reports required settings that are absent. It is fatal
// and raised before any network call.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return "missing required environment variables: " + strings.Join(e.Missing, ", ")
}

// EnhancementError wraps any failure of the prompt reflection call.
// The run recovers from it by falling back to the original prompt.
type EnhancementError struct {
	Err error
}

func (e *EnhancementError) Error() string {
	return fmt.Sprintf("error during prompt enhancement: %v", e.Err)
}

func (e *EnhancementError) Unwrap() error {
	return e.Err
}

// DownloadError is a per-image failure; it never affects other images.
type DownloadError struct {
	Index int
	URL   string
	Err   error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("downloading image %d: %v", e.Index, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// GenerationError is returned when the image-generation call itself fails.
// It is the only run-time error that makes the process exit non-zero.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("error during image generation: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
