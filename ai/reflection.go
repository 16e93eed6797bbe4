package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"Painter/core"
	"Painter/lib/sl"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ChatModelFactory builds the chat model used for one enhancement call.
type ChatModelFactory func(ctx context.Context, creds core.Credentials, modelName string) (model.BaseChatModel, error)

// Reflection improves image prompts through an OpenAI-compatible chat model.
type Reflection struct {
	creds        core.Credentials
	log          *slog.Logger
	newChatModel ChatModelFactory
}

type ReflectionOption func(*Reflection)

// WithChatModelFactory replaces the eino OpenAI chat model, mainly in tests.
func WithChatModelFactory(f ChatModelFactory) ReflectionOption {
	return func(r *Reflection) {
		r.newChatModel = f
	}
}

func NewReflection(creds core.Credentials, log *slog.Logger, options ...ReflectionOption) *Reflection {
	r := &Reflection{
		creds:        creds,
		log:          log.With(sl.Module("reflection")),
		newChatModel: newOpenAIChatModel,
	}
	for _, option := range options {
		option(r)
	}
	return r
}

// Enhance sends systemPrompt and userPrompt verbatim as a system/user pair and
// returns the trimmed reply. Missing credentials yield a
// *core.ConfigurationError before any network call; every other failure is
// a *core.EnhancementError carrying the cause.
func (r *Reflection) Enhance(ctx context.Context, userPrompt, modelName, systemPrompt string) (string, error) {
	if missing := r.creds.Missing(); len(missing) > 0 {
		return "", &core.ConfigurationError{Missing: missing}
	}

	chatModel, err := r.newChatModel(ctx, r.creds, modelName)
	if err != nil {
		return "", &core.EnhancementError{Err: fmt.Errorf("creating chat model: %w", err)}
	}

	r.log.Debug("enhancing prompt",
		slog.String("model", modelName),
		sl.Excerpt("prompt", userPrompt),
	)
	resp, err := chatModel.Generate(ctx, []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(userPrompt),
	})
	if err != nil {
		return "", &core.EnhancementError{Err: err}
	}
	if resp == nil {
		return "", &core.EnhancementError{Err: errors.New("empty response")}
	}

	improved := strings.TrimSpace(resp.Content)
	if improved == "" {
		return "", &core.EnhancementError{Err: errors.New("empty response content")}
	}
	return improved, nil
}

// no temperature or token limit: the service defaults apply
func newOpenAIChatModel(ctx context.Context, creds core.Credentials, modelName string) (model.BaseChatModel, error) {
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  creds.APIKey,
		BaseURL: creds.BaseURL,
		Model:   modelName,
	})
	if err != nil {
		return nil, err
	}
	return chatModel, nil
}
