package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"Painter/holder"
	"Painter/lib/sl"
	"Painter/storage"

	"github.com/google/uuid"
)

const defaultImageModel = "dall-e-3"

// Runner sequences one invocation: optional enhancement, generation,
// downloads, then the run record and summary.
type Runner struct {
	enhancer     PromptEnhancer
	generator    ImageGenerator
	saver        ImageSaver
	notifier     RunNotifier
	observer     RunObserver
	systemPrompt string
	imageModel   string
	out          io.Writer
	log          *slog.Logger
}

// RunnerOption configures optional collaborators of a Runner.
type RunnerOption func(*Runner)

// WithNotifier publishes every flushed record.
func WithNotifier(n RunNotifier) RunnerOption {
	return func(r *Runner) {
		r.notifier = n
	}
}

// WithObserver reports run counters, e.g. to Prometheus.
func WithObserver(o RunObserver) RunnerOption {
	return func(r *Runner) {
		if o != nil {
			r.observer = o
		}
	}
}

// WithOutput sets where user-facing progress and the summary are printed.
func WithOutput(w io.Writer) RunnerOption {
	return func(r *Runner) {
		r.out = w
	}
}

// WithSystemPrompt sets the instruction sent to the enhancement model.
func WithSystemPrompt(prompt string) RunnerOption {
	return func(r *Runner) {
		r.systemPrompt = prompt
	}
}

// WithImageModel records which image model the generator uses.
func WithImageModel(model string) RunnerOption {
	return func(r *Runner) {
		if model != "" {
			r.imageModel = model
		}
	}
}

func NewRunner(enhancer PromptEnhancer, generator ImageGenerator, saver ImageSaver, log *slog.Logger, options ...RunnerOption) *Runner {
	r := &Runner{
		enhancer:   enhancer,
		generator:  generator,
		saver:      saver,
		observer:   noopObserver{},
		imageModel: defaultImageModel,
		out:        os.Stdout,
		log:        log.With(sl.Module("runner")),
	}
	for _, option := range options {
		option(r)
	}
	return r
}

// Run executes one invocation. The run record is appended to primary (and
// mirrors) on every path once validation has passed, including when
// generation fails. The returned error is a *GenerationError, a validation
// error, or a failure to write the run record.
func (r *Runner) Run(ctx context.Context, opts RunOptions, primary storage.RecordStore, mirrors ...storage.RecordStore) (record storage.RunRecord, err error) {
	if err = opts.Validate(); err != nil {
		return record, err
	}

	h := holder.NewRunHolder(storage.RunRecord{
		RunID:          uuid.New().String(),
		Timestamp:      time.Now(),
		OriginalPrompt: opts.Prompt,
		Model:          opts.Model,
		ImageModel:     r.imageModel,
		Size:           opts.Size,
		Quality:        opts.Quality,
		NImages:        opts.Count,
		UseReflection:  opts.UseReflection,
	}, r.log, primary, mirrors...)
	started := time.Now()
	finalPrompt := opts.Prompt

	defer func() {
		if flushErr := h.Flush(context.WithoutCancel(ctx)); flushErr != nil && err == nil {
			err = fmt.Errorf("saving run log: %w", flushErr)
		}
		record = h.Record()
		r.observer.ObserveRun(time.Since(started))
		r.printSummary(opts, finalPrompt, &record)
		r.publish(ctx, &record)
	}()

	if opts.UseReflection {
		var enhanced bool
		finalPrompt, enhanced = r.reflect(ctx, opts, h)
		if opts.ShowImprovedPrompt {
			fmt.Fprintf(r.out, "Original prompt: %s\n", opts.Prompt)
			if enhanced {
				fmt.Fprintf(r.out, "Improved prompt: %s\n", finalPrompt)
			} else {
				fmt.Fprintf(r.out, "Final prompt: %s\n", finalPrompt)
			}
		}
	} else {
		r.observer.ObserveEnhancement(EnhancementSkipped)
		if opts.ShowImprovedPrompt {
			fmt.Fprintf(r.out, "Original prompt: %s\nFinal prompt: %s\n", opts.Prompt, finalPrompt)
		}
	}

	log := r.log.With(slog.String("run", h.Record().RunID))
	log.Info("requesting images",
		sl.Excerpt("prompt", finalPrompt),
		slog.String("size", opts.Size),
		slog.String("quality", opts.Quality),
		slog.Int("n", opts.Count),
	)

	urls, genErr := r.generator.Generate(ctx, GenerationRequest{
		Prompt:  finalPrompt,
		Size:    opts.Size,
		Quality: opts.Quality,
		N:       opts.Count,
	})
	if genErr != nil {
		log.Error("image generation failed", sl.Err(genErr))
		fmt.Fprintf(r.out, "Error during image generation: %v\n", genErr)
		h.SetGenerationError(genErr.Error())
		r.observer.ObserveGenerationError()
		return record, &GenerationError{Err: genErr}
	}

	for i, url := range urls {
		index := i + 1
		fmt.Fprintf(r.out, "Image %d URL: %s\n", index, url)

		entry := storage.ImageEntry{Index: index, URL: url}
		path, saveErr := r.saver.Save(ctx, url, index, finalPrompt)
		if saveErr != nil {
			log.Warn("image download failed", slog.Int("index", index), sl.Err(saveErr))
			fmt.Fprintf(r.out, "Failed to download image %d\n", index)
			entry.DownloadError = saveErr.Error()
		} else {
			fmt.Fprintf(r.out, "Image %d saved to: %s\n", index, path)
			entry.LocalPath = path
		}
		r.observer.ObserveImage(saveErr == nil)
		h.AddImage(entry)
	}

	return record, nil
}

// reflect runs the enhancer and returns the prompt to generate with and
// whether it is the enhanced one. Any failure falls back to the original
// prompt and is kept in the record.
func (r *Runner) reflect(ctx context.Context, opts RunOptions, h *holder.RunHolder) (string, bool) {
	improved, err := r.enhancer.Enhance(ctx, opts.Prompt, opts.Model, r.systemPrompt)
	if err == nil {
		h.SetImprovedPrompt(improved)
		r.observer.ObserveEnhancement(EnhancementSuccess)
		r.log.Info("prompt enhanced", slog.String("model", opts.Model), sl.Excerpt("prompt", improved))
		return improved, true
	}

	var confErr *ConfigurationError
	var enhErr *EnhancementError
	switch {
	case errors.As(err, &confErr):
		r.log.Warn("prompt enhancement is not configured, using original prompt",
			slog.Any("missing", confErr.Missing))
	case errors.As(err, &enhErr):
		// a bad model name looks the same as a transient failure here
		r.log.Warn("prompt enhancement failed, using original prompt",
			slog.String("model", opts.Model), sl.Err(enhErr.Err))
	default:
		r.log.Warn("unexpected prompt enhancement failure, using original prompt", sl.Err(err))
	}
	fmt.Fprintf(r.out, "WARNING: %v\nProceeding with original prompt...\n", err)

	h.SetEnhancementError(err.Error())
	r.observer.ObserveEnhancement(EnhancementFallback)
	return opts.Prompt, false
}

func (r *Runner) printSummary(opts RunOptions, finalPrompt string, record *storage.RunRecord) {
	fmt.Fprintln(r.out, "\nGeneration Summary:")
	fmt.Fprintf(r.out, "Time taken: %.2f seconds\n", record.ExecutionTimeSeconds)
	fmt.Fprintf(r.out, "Original prompt: %s\n", opts.Prompt)
	if opts.UseReflection {
		fmt.Fprintf(r.out, "Final prompt: %s\n", finalPrompt)
	}
	fmt.Fprintf(r.out, "Images generated: %d\n", len(record.SavedImages()))
	fmt.Fprintf(r.out, "Log saved to: %s\n", opts.LogFile)
}

func (r *Runner) publish(ctx context.Context, record *storage.RunRecord) {
	if err := r.observer.Flush(); err != nil {
		r.log.Warn("writing metrics", sl.Err(err))
	}
	if r.notifier == nil {
		return
	}
	if err := r.notifier.Notify(context.WithoutCancel(ctx), record); err != nil {
		r.log.Warn("sending run notification", sl.Err(err))
	}
}
