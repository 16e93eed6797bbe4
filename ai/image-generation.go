package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"Painter/core"
	"Painter/lib/sl"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ImageClient calls <base_url>/images/generations with a bearer credential.
type ImageClient struct {
	client openai.Client
	model  string
	log    *slog.Logger
}

func NewImageClient(creds core.Credentials, model string, log *slog.Logger) *ImageClient {
	return &ImageClient{
		client: openai.NewClient(
			option.WithAPIKey(creds.APIKey),
			option.WithBaseURL(creds.BaseURL),
			option.WithHTTPClient(&http.Client{}),
			// one attempt per run, the user decides whether to retry
			option.WithMaxRetries(0),
		),
		model: model,
		log:   log.With(sl.Module("image-generation")),
	}
}

// Generate returns the image URLs in the order the provider listed them.
func (c *ImageClient) Generate(ctx context.Context, gen core.GenerationRequest) ([]string, error) {
	params := openai.ImageGenerateParams{
		Model:   openai.ImageModel(c.model),
		Prompt:  gen.Prompt,
		N:       openai.Int(int64(gen.N)),
		Size:    openai.ImageGenerateParamsSize(gen.Size),
		Quality: openai.ImageGenerateParamsQuality(gen.Quality),
	}

	resp, err := c.client.Images.Generate(ctx, params)
	if err != nil {
		return nil, providerError(err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("images API returned no images")
	}

	urls := make([]string, 0, len(resp.Data))
	for _, image := range resp.Data {
		urls = append(urls, image.URL)
	}
	c.log.Info("images generated", slog.String("model", c.model), slog.Int("count", len(urls)))
	return urls, nil
}

// providerError keeps the provider's own message when the response carried one.
func providerError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("getting response: %w", err)
	}
	message := apiErr.Message
	if message == "" {
		message = strings.TrimSpace(apiErr.RawJSON())
	}
	if message == "" {
		message = http.StatusText(apiErr.StatusCode)
	}
	return fmt.Errorf("images API status %d: %s", apiErr.StatusCode, message)
}
