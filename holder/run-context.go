package holder

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"Painter/lib/sl"
	"Painter/storage"
)

// RunHolder owns the run record while stages fill it in and appends it to
// the stores exactly once.
type RunHolder struct {
	record  storage.RunRecord
	started time.Time
	primary storage.RecordStore
	mirrors []storage.RecordStore
	log     *slog.Logger

	mutex    sync.Mutex
	once     sync.Once
	flushErr error
}

// NewRunHolder starts the clock for the run. Failures of the primary store are
// returned by Flush; mirror failures are only logged.
func NewRunHolder(record storage.RunRecord, log *slog.Logger, primary storage.RecordStore, mirrors ...storage.RecordStore) *RunHolder {
	if record.GeneratedImages == nil {
		record.GeneratedImages = []storage.ImageEntry{}
	}
	return &RunHolder{
		record:  record,
		started: time.Now(),
		primary: primary,
		mirrors: mirrors,
		log:     log.With(sl.Module("run-holder")),
	}
}

// Record returns a snapshot of the current state.
func (h *RunHolder) Record() storage.RunRecord {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	cc := h.record
	cc.GeneratedImages = append([]storage.ImageEntry{}, h.record.GeneratedImages...)
	return cc
}

func (h *RunHolder) SetImprovedPrompt(prompt string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.record.ImprovedPrompt = prompt
}

func (h *RunHolder) SetEnhancementError(msg string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.record.PromptEnhancementError = msg
}

func (h *RunHolder) AddImage(entry storage.ImageEntry) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.record.GeneratedImages = append(h.record.GeneratedImages, entry)
}

func (h *RunHolder) SetGenerationError(msg string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.record.GenerationError = msg
}

// Flush stamps the execution time and appends the record. Only the first call
// writes; later calls return the first result.
func (h *RunHolder) Flush(ctx context.Context) error {
	h.once.Do(func() {
		h.mutex.Lock()
		h.record.ExecutionTimeSeconds = math.Round(time.Since(h.started).Seconds()*100) / 100
		record := h.record
		h.mutex.Unlock()

		if err := h.primary.AppendRecord(ctx, &record); err != nil {
			h.log.Error("writing run record", sl.Err(err), slog.String("run", record.RunID))
			h.flushErr = err
		}
		for _, mirror := range h.mirrors {
			if err := mirror.AppendRecord(ctx, &record); err != nil {
				h.log.Warn("mirroring run record", sl.Err(err), slog.String("run", record.RunID))
			}
		}
	})
	return h.flushErr
}
