package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionResponse(content string) string {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	return string(body)
}

func TestClassifyViolation(t *testing.T) {
	var gotAuth string
	var gotReq map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionResponse(`{"violation": true, "reason": "spam promosi"}`)))
	}))
	defer server.Close()

	c := NewOpenAI("test-key", server.URL, "test-model")
	verdict, err := c.Classify(context.Background(), "beli followers murah")
	require.NoError(t, err)

	assert.True(t, verdict.Violation)
	assert.Equal(t, "spam promosi", verdict.Reason)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "test-model", gotReq["model"])

	messages, ok := gotReq["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	user := messages[1].(map[string]any)
	assert.Equal(t, "user", user["role"])
	assert.Equal(t, "beli followers murah", user["content"])
}

func TestClassifyClean(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionResponse(`{"violation": false, "reason": ""}`)))
	}))
	defer server.Close()

	c := NewOpenAI("test-key", server.URL, "")
	verdict, err := c.Classify(context.Background(), "halo apa kabar")
	require.NoError(t, err)
	assert.False(t, verdict.Violation)
}

func TestClassifyErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "non-200 status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "rate limited", http.StatusTooManyRequests)
			},
		},
		{
			name: "empty choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"choices": []}`))
			},
		},
		{
			name: "verdict is not json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(completionResponse("maybe?")))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			c := NewOpenAI("test-key", server.URL, "")
			_, err := c.Classify(context.Background(), "teks apa saja")
			assert.Error(t, err)
		})
	}
}

func TestNewOpenAIDefaults(t *testing.T) {
	c := NewOpenAI("key", "", "")
	assert.Equal(t, "https://api.openai.com/v1", c.baseURL)
	assert.Equal(t, "gpt-5-nano", c.model)

	c = NewOpenAI("key", "https://proxy.example.com/v1/", "custom")
	assert.Equal(t, "https://proxy.example.com/v1", c.baseURL)
}
