package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"Painter/core"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatModel struct {
	reply    *schema.Message
	err      error
	received []*schema.Message
}

func (m *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.received = input
	return m.reply, m.err
}

func (m *fakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not supported")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testCreds = core.Credentials{APIKey: "k-test", BaseURL: "http://provider.invalid/v1"}

func reflectionWith(m *fakeChatModel, creds core.Credentials, calls *int) *Reflection {
	return NewReflection(creds, testLogger(), WithChatModelFactory(
		func(context.Context, core.Credentials, string) (model.BaseChatModel, error) {
			*calls++
			return m, nil
		}))
}

func TestEnhanceSendsSystemAndUserMessagesVerbatim(t *testing.T) {
	m := &fakeChatModel{reply: schema.AssistantMessage("  a vivid red bicycle, studio light \n", nil)}
	calls := 0
	r := reflectionWith(m, testCreds, &calls)

	improved, err := r.Enhance(context.Background(), "a red bicycle ", "gpt-4", SystemPromptImage)
	require.NoError(t, err)
	assert.Equal(t, "a vivid red bicycle, studio light", improved)
	assert.Equal(t, 1, calls)

	require.Len(t, m.received, 2)
	assert.Equal(t, schema.System, m.received[0].Role)
	assert.Equal(t, SystemPromptImage, m.received[0].Content)
	assert.Equal(t, schema.User, m.received[1].Role)
	assert.Equal(t, "a red bicycle ", m.received[1].Content)
}

func TestEnhanceRejectsEmptyReply(t *testing.T) {
	calls := 0
	r := reflectionWith(&fakeChatModel{reply: schema.AssistantMessage(" \n\t", nil)}, testCreds, &calls)

	_, err := r.Enhance(context.Background(), "a cat", "gpt-4", "sys")
	var enhErr *core.EnhancementError
	require.True(t, errors.As(err, &enhErr))
	assert.Contains(t, err.Error(), "empty response content")

	_, err = reflectionWith(&fakeChatModel{}, testCreds, &calls).Enhance(context.Background(), "a cat", "gpt-4", "sys")
	require.True(t, errors.As(err, &enhErr))
}

func TestEnhanceWrapsModelError(t *testing.T) {
	cause := errors.New("model_not_found")
	calls := 0
	r := reflectionWith(&fakeChatModel{err: cause}, testCreds, &calls)

	_, err := r.Enhance(context.Background(), "a cat", "gpt-unknown", "sys")
	var enhErr *core.EnhancementError
	require.True(t, errors.As(err, &enhErr))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "error during prompt enhancement: model_not_found", err.Error())
}

func TestEnhanceWithoutCredentialsMakesNoCall(t *testing.T) {
	calls := 0
	r := reflectionWith(&fakeChatModel{}, core.Credentials{}, &calls)

	_, err := r.Enhance(context.Background(), "a cat", "gpt-4", "sys")
	var confErr *core.ConfigurationError
	require.True(t, errors.As(err, &confErr))
	assert.Equal(t, []string{core.EnvAPIKey, core.EnvBaseURL}, confErr.Missing)
	assert.Equal(t, 0, calls)
}

func TestEnhanceThroughOpenAICompatibleServer(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer k-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "  a red bicycle at dawn  "}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`)
	}))
	defer srv.Close()

	r := NewReflection(core.Credentials{APIKey: "k-test", BaseURL: srv.URL}, testLogger())
	improved, err := r.Enhance(context.Background(), "a red bicycle", "gpt-4", "be vivid")
	require.NoError(t, err)
	assert.Equal(t, "a red bicycle at dawn", improved)

	assert.Equal(t, "gpt-4", body["model"])
	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "be vivid", messages[0].(map[string]any)["content"])
	assert.Equal(t, "user", messages[1].(map[string]any)["role"])
	assert.Equal(t, "a red bicycle", messages[1].(map[string]any)["content"])
}

func TestEnhanceServerErrorIsEnhancementError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":{"message":"upstream exploded","type":"server_error"}}`)
	}))
	defer srv.Close()

	r := NewReflection(core.Credentials{APIKey: "k-test", BaseURL: srv.URL}, testLogger())
	_, err := r.Enhance(context.Background(), "a red bicycle", "gpt-4", "be vivid")
	var enhErr *core.EnhancementError
	require.True(t, errors.As(err, &enhErr))
}
