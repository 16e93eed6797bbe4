package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"Painter/lib/sl"
	"Painter/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
)

// Notifier posts a summary of each run, and the saved images, to a chat.
type Notifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
	log    *slog.Logger
}

func NewNotifier(token string, chatID int64, log *slog.Logger) (*Notifier, error) {
	return NewNotifierWithClient(token, chatID, &http.Client{}, log)
}

func NewNotifierWithClient(token string, chatID int64, client *http.Client, log *slog.Logger) (*Notifier, error) {
	if chatID == 0 {
		return nil, errors.New("telegram chat id is not set")
	}
	api, err := tgbotapi.NewBotAPIWithClient(token, client)
	if err != nil {
		return nil, fmt.Errorf("creating telegram api: %w", err)
	}
	return &Notifier{
		api:    api,
		chatID: chatID,
		log:    log.With(sl.Module("telegram"), slog.String("bot", api.Self.UserName)),
	}, nil
}

func (n *Notifier) Notify(ctx context.Context, record *storage.RunRecord) error {
	if _, err := n.api.Send(tgbotapi.NewMessage(n.chatID, composeSummary(record))); err != nil {
		return fmt.Errorf("sending summary: %w", err)
	}

	var errs []error
	for _, img := range record.SavedImages() {
		if err := ctx.Err(); err != nil {
			return err
		}
		photo := tgbotapi.NewPhotoUpload(n.chatID, img.LocalPath)
		photo.Caption = fmt.Sprintf("Image %d", img.Index)
		if _, err := n.api.Send(photo); err != nil {
			n.log.Warn("sending photo", slog.Int("index", img.Index), sl.Err(err))
			errs = append(errs, fmt.Errorf("sending image %d: %w", img.Index, err))
		}
	}
	return errors.Join(errs...)
}

func composeSummary(record *storage.RunRecord) string {
	var b strings.Builder
	b.WriteString("Generation Summary\n")
	fmt.Fprintf(&b, "Time taken: %.2f seconds\n", record.ExecutionTimeSeconds)
	fmt.Fprintf(&b, "Original prompt: %s\n", record.OriginalPrompt)
	if record.ImprovedPrompt != "" {
		fmt.Fprintf(&b, "Improved prompt: %s\n", record.ImprovedPrompt)
	}
	if record.PromptEnhancementError != "" {
		fmt.Fprintf(&b, "Enhancement failed: %s\n", record.PromptEnhancementError)
	}
	if record.GenerationError != "" {
		fmt.Fprintf(&b, "Generation failed: %s\n", record.GenerationError)
	}
	fmt.Fprintf(&b, "Images generated: %d of %d", len(record.SavedImages()), record.NImages)
	return b.String()
}
