package ai

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCompleteRoundTrip(t *testing.T) {
	var gotAuth string
	var gotBody chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": `{"location": "Haifa"}`}},
			},
			"usage": map[string]any{"prompt_tokens": 120, "completion_tokens": 8, "total_tokens": 128},
		})
	}))
	defer srv.Close()

	c := NewOpenAIClient(srv.URL, "sk-test", "gpt-4o-mini", http.DefaultClient, testLogger())
	res, err := c.Complete(context.Background(), Request{System: "sys", User: "usr"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "gpt-4o-mini", gotBody.Model)
	require.Len(t, gotBody.Messages, 2)
	assert.Equal(t, "system", gotBody.Messages[0].Role)
	assert.Equal(t, `{"location": "Haifa"}`, res.Content)
	assert.Equal(t, 128, res.Usage.TotalTokens)
}

func TestCompleteHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "rate limited"}}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(srv.URL, "sk-test", "gpt-4o-mini", http.DefaultClient, testLogger())
	_, err := c.Complete(context.Background(), Request{User: "usr"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestCompleteAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "invalid key", "type": "invalid_request_error"},
		})
	}))
	defer srv.Close()

	c := NewOpenAIClient(srv.URL, "sk-bad", "gpt-4o-mini", http.DefaultClient, testLogger())
	_, err := c.Complete(context.Background(), Request{User: "usr"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid key")
}

func TestCompleteNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	c := NewOpenAIClient(srv.URL, "sk-test", "gpt-4o-mini", http.DefaultClient, testLogger())
	_, err := c.Complete(context.Background(), Request{User: "usr"})
	assert.Error(t, err)
}

func TestParseJSONObject(t *testing.T) {
	m, err := ParseJSONObject("```json\n{\"title\": \"Engineer\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "Engineer", m["title"])

	m, err = ParseJSONObject(`{"a": 1}`)
	require.NoError(t, err)
	assert.Equal(t, float64(1), m["a"])

	_, err = ParseJSONObject("not json at all")
	assert.Error(t, err)
}

func TestIsYes(t *testing.T) {
	assert.True(t, IsYes("yes"))
	assert.True(t, IsYes("Yes."))
	assert.True(t, IsYes("  YES  "))
	assert.False(t, IsYes("no"))
	assert.False(t, IsYes("probably"))
}

func TestExtractFieldsRequestHints(t *testing.T) {
	r := ExtractFieldsRequest([]string{"title", "requirements"}, "<html>x</html>", 12000)
	assert.Contains(t, r.User, "title, requirements")
	assert.Contains(t, r.User, "Are you a good fit?")
	assert.NotContains(t, r.User, "day-to-day")
}

func TestExtractFieldsRequestTruncatesHTML(t *testing.T) {
	big := make([]byte, 20000)
	for i := range big {
		big[i] = 'a'
	}
	r := ExtractFieldsRequest([]string{"title"}, string(big), 1000)
	assert.Less(t, len(r.User), 2000)
}
