package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient creates an sdkClient pointing at a local test server.
func newTestClient(baseURL string) *sdkClient {
	return &sdkClient{
		client: sdk.NewClient(
			option.WithAPIKey("test-key"),
			option.WithBaseURL(baseURL),
		),
	}
}

func TestComplete(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "/messages")

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"id":   "msg_test_001",
			"type": "message",
			"role": "assistant",
			"content": []map[string]any{
				{"type": "text", "text": "229.99"},
			},
			"model":       "claude-haiku-4-5-20251001",
			"stop_reason": "end_turn",
			"usage": map[string]any{
				"input_tokens":  120,
				"output_tokens": 6,
			},
		})
	}))
	defer ts.Close()

	client := newTestClient(ts.URL)
	resp, err := client.Complete(context.Background(), CompletionRequest{
		Model:     "claude-haiku-4-5-20251001",
		MaxTokens: 64,
		System:    "You are a price analyst.",
		Prompt:    "Extract the monthly price.",
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, "msg_test_001", resp.ID)
	assert.Equal(t, "229.99", resp.Text)
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, int64(120), resp.Usage.InputTokens)
	assert.Equal(t, int64(6), resp.Usage.OutputTokens)
}

func TestComplete_JoinsTextBlocks(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"id":   "msg_test_002",
			"type": "message",
			"role": "assistant",
			"content": []map[string]any{
				{"type": "text", "text": "199"},
				{"type": "text", "text": ".90"},
			},
			"model":       "claude-haiku-4-5-20251001",
			"stop_reason": "end_turn",
			"usage":       map[string]any{"input_tokens": 1, "output_tokens": 1},
		})
	}))
	defer ts.Close()

	client := newTestClient(ts.URL)
	resp, err := client.Complete(context.Background(), CompletionRequest{
		Model:     "claude-haiku-4-5-20251001",
		MaxTokens: 64,
		Prompt:    "price?",
	})
	require.NoError(t, err)
	assert.Equal(t, "199.90", resp.Text)
}

func TestComplete_APIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"type": "api_error", "message": "overloaded"}}`))
	}))
	defer ts.Close()

	client := newTestClient(ts.URL)
	resp, err := client.Complete(context.Background(), CompletionRequest{
		Model:     "claude-haiku-4-5-20251001",
		MaxTokens: 64,
		Prompt:    "price?",
	})
	assert.Error(t, err)
	assert.Nil(t, resp)
}

func TestTokenUsage_EstimateCost(t *testing.T) {
	u := TokenUsage{InputTokens: 1_000_000, OutputTokens: 500_000}

	cost := u.EstimateCost("claude-haiku-4-5-20251001")
	assert.InDelta(t, 0.80+2.00, cost, 0.0001)

	assert.Zero(t, u.EstimateCost("unknown-model"))
}
