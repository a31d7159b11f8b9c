// Package classifier implements the content classifier behind the AI
// moderator filter as a client of an OpenAI-compatible chat completions
// API. The model is instructed to answer with a JSON verdict.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"telegram-moderation-bot/moderation"
)

const systemPrompt = `Kamu adalah moderator grup Telegram. Analisis pesan berikut dan tentukan apakah pesan tersebut melanggar aturan.

Pesan dianggap MELANGGAR jika mengandung:
- Ujaran kebencian, SARA, rasisme
- Ancaman kekerasan atau intimidasi
- Pelecehan seksual atau konten tidak senonoh
- Penipuan, scam, atau phishing
- Spam promosi berlebihan
- Kata-kata kasar yang sangat vulgar dan menyerang

Pesan dianggap AMAN jika:
- Percakapan normal biasa
- Kritik sopan atau debat sehat
- Humor ringan tanpa menyerang
- Informasi atau pertanyaan umum
- Kata-kata slang yang umum dan tidak menyerang

Jawab HANYA dengan format JSON:
{"violation": true/false, "reason": "alasan singkat dalam bahasa Indonesia"}`

// OpenAI calls an OpenAI-compatible /chat/completions endpoint.
type OpenAI struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
}

// NewOpenAI creates a classifier client. baseURL defaults to the public
// OpenAI endpoint and model to gpt-5-nano when empty.
func NewOpenAI(apiKey, baseURL, model string) *OpenAI {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "gpt-5-nano"
	}
	return &OpenAI{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		apiKey:     apiKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      model,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model               string          `json:"model"`
	Messages            []chatMessage   `json:"messages"`
	MaxCompletionTokens int             `json:"max_completion_tokens"`
	ResponseFormat      json.RawMessage `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Classify asks the model for a verdict on text. Any transport, status or
// parse failure is returned as an error; the caller treats errors as a pass.
func (c *OpenAI) Classify(ctx context.Context, text string) (moderation.Verdict, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: text},
		},
		MaxCompletionTokens: 100,
		ResponseFormat:      json.RawMessage(`{"type":"json_object"}`),
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return moderation.Verdict{}, fmt.Errorf("failed to encode classifier request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return moderation.Verdict{}, fmt.Errorf("failed to build classifier request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return moderation.Verdict{}, fmt.Errorf("classifier request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return moderation.Verdict{}, fmt.Errorf("failed to read classifier response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		slog.Debug("classifier: Non-OK response", "status", resp.StatusCode, "body", string(body))
		return moderation.Verdict{}, fmt.Errorf("classifier returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return moderation.Verdict{}, fmt.Errorf("failed to decode classifier response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return moderation.Verdict{}, fmt.Errorf("classifier returned no content")
	}

	var verdict moderation.Verdict
	if err := json.Unmarshal([]byte(parsed.Choices[0].Message.Content), &verdict); err != nil {
		return moderation.Verdict{}, fmt.Errorf("failed to decode classifier verdict: %w", err)
	}
	return verdict, nil
}
