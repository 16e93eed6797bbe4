package core

import (
	"context"
	"time"

	"Painter/storage"
)

// PromptEnhancer rewrites a user prompt through a chat-completion model.
type PromptEnhancer interface {
	Enhance(ctx context.Context, userPrompt, modelName, systemPrompt string) (string, error)
}

// ImageGenerator requests images and returns their URLs in provider order.
type ImageGenerator interface {
	Generate(ctx context.Context, req GenerationRequest) ([]string, error)
}

// ImageSaver downloads one image and returns the local path.
type ImageSaver interface {
	Save(ctx context.Context, url string, index int, prompt string) (string, error)
}

// RunNotifier publishes a finished run record somewhere outside the process.
type RunNotifier interface {
	Notify(ctx context.Context, record *storage.RunRecord) error
}

// Enhancement outcomes reported to a RunObserver.
const (
	EnhancementSkipped  = "skipped"
	EnhancementSuccess  = "success"
	EnhancementFallback = "fallback"
)

// RunObserver receives counters for a run; Flush persists them.
type RunObserver interface {
	ObserveEnhancement(outcome string)
	ObserveImage(saved bool)
	ObserveGenerationError()
	ObserveRun(elapsed time.Duration)
	Flush() error
}

type noopObserver struct{}

func (noopObserver) ObserveEnhancement(string) {}
func (noopObserver) ObserveImage(bool)         {}
func (noopObserver) ObserveGenerationError()   {}
func (noopObserver) ObserveRun(time.Duration)  {}
func (noopObserver) Flush() error              { return nil }
