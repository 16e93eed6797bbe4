package storage

import (
	"context"
	"time"
)

// ImageEntry is the outcome for one generated image. LocalPath is empty when
// the download failed.
type ImageEntry struct {
	Index         int    `json:"index" bson:"index"`
	URL           string `json:"url" bson:"url"`
	LocalPath     string `json:"local_path,omitempty" bson:"local_path,omitempty"`
	DownloadError string `json:"download_error,omitempty" bson:"download_error,omitempty"`
}

// RunRecord is the single log entry written per invocation.
type RunRecord struct {
	RunID                  string       `json:"run_id" bson:"run_id"`
	Timestamp              time.Time    `json:"timestamp" bson:"timestamp"`
	OriginalPrompt         string       `json:"original_prompt" bson:"original_prompt"`
	Model                  string       `json:"model" bson:"model"`
	ImageModel             string       `json:"image_model" bson:"image_model"`
	Size                   string       `json:"size" bson:"size"`
	Quality                string       `json:"quality" bson:"quality"`
	NImages                int          `json:"n_images" bson:"n_images"`
	UseReflection          bool         `json:"use_reflection" bson:"use_reflection"`
	ImprovedPrompt         string       `json:"improved_prompt,omitempty" bson:"improved_prompt,omitempty"`
	PromptEnhancementError string       `json:"prompt_enhancement_error,omitempty" bson:"prompt_enhancement_error,omitempty"`
	GeneratedImages        []ImageEntry `json:"generated_images" bson:"generated_images"`
	GenerationError        string       `json:"generation_error,omitempty" bson:"generation_error,omitempty"`
	ExecutionTimeSeconds   float64      `json:"execution_time_seconds" bson:"execution_time_seconds"`
}

// SavedImages returns entries that have a local file.
func (r *RunRecord) SavedImages() []ImageEntry {
	var saved []ImageEntry
	for _, img := range r.GeneratedImages {
		if img.LocalPath != "" {
			saved = append(saved, img)
		}
	}
	return saved
}

// RecordStore persists run records. Implementations only ever append.
type RecordStore interface {
	AppendRecord(ctx context.Context, record *RunRecord) error
	Close() error
}
