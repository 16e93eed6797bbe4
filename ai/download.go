package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"Painter/core"
	"Painter/lib/sl"
)

const (
	promptExcerptLen = 30
	imageExt         = ".png"
)

// Saver downloads generated images into a local directory.
type Saver struct {
	dir        string
	httpClient *http.Client
	now        func() time.Time
	log        *slog.Logger
}

func NewSaver(dir string, log *slog.Logger) *Saver {
	return &Saver{
		dir:        dir,
		httpClient: &http.Client{},
		now:        time.Now,
		log:        log.With(sl.Module("download")),
	}
}

// Save writes the image at url under the output directory and returns its
// path. Failures are returned as *core.DownloadError.
func (s *Saver) Save(ctx context.Context, url string, index int, prompt string) (string, error) {
	path, err := s.save(ctx, url, index, prompt)
	if err != nil {
		return "", &core.DownloadError{Index: index, URL: url, Err: err}
	}
	return path, nil
}

func (s *Saver) save(ctx context.Context, url string, index int, prompt string) (string, error) {
	if url == "" {
		return "", errors.New("empty image url")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("making request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("getting image: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			s.log.Warn("closing response body", sl.Err(err))
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading image: %w", err)
	}

	name := ImageFileName(s.now(), prompt, index)
	finalPath := filepath.Join(s.dir, name)
	tmpPath := filepath.Join(s.dir, ".tmp-"+name+"-"+strconv.FormatInt(time.Now().UnixNano(), 10))
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("renaming image: %w", err)
	}

	s.log.Debug("image saved", slog.Int("index", index), slog.String("path", finalPath), slog.Int("bytes", len(data)))
	return finalPath, nil
}

// ImageFileName builds <YYYYmmdd_HHMMSS>_<clean prompt>_<index>.png.
func ImageFileName(ts time.Time, prompt string, index int) string {
	return fmt.Sprintf("%s_%s_%d%s", ts.Format("20060102_150405"), CleanPrompt(prompt), index, imageExt)
}

// CleanPrompt keeps letters, digits and spaces and truncates to 30 runes.
// Other whitespace becomes a plain space.
func CleanPrompt(prompt string) string {
	var b strings.Builder
	n := 0
	for _, r := range prompt {
		if n == promptExcerptLen {
			break
		}
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		default:
			continue
		}
		n++
	}
	return b.String()
}
