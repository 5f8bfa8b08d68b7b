package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
)

// AIModel wraps one OpenAI-compatible chat-completions endpoint as a
// debate participant. The display name doubles as the transcript role
// for this model's turns.
type AIModel struct {
	Name                string
	ModelName           string
	BaseURL             string
	MaxCompletionTokens int
	ExtraBody           map[string]interface{}

	apiKey string
	client *http.Client
}

// NewAIModel builds an adapter from a descriptor and a resolved API key.
func NewAIModel(cfg ModelConfig, apiKey string) *AIModel {
	tokens := cfg.MaxCompletionTokens
	if tokens <= 0 {
		tokens = DefaultMaxCompletionTokens
	}

	return &AIModel{
		Name:                cfg.Name,
		ModelName:           cfg.ModelName,
		BaseURL:             cfg.BaseURL,
		MaxCompletionTokens: tokens,
		ExtraBody:           cfg.ExtraBody,
		apiKey:              apiKey,
		client:              &http.Client{Timeout: ModelQueryTimeout},
	}
}

// endpoint returns the chat-completions URL for this model.
func (m *AIModel) endpoint() string {
	if m.BaseURL == "" {
		return ChatAPIURL
	}
	return strings.TrimRight(m.BaseURL, "/") + "/chat/completions"
}

// TransformMessages rewrites a debate transcript into this model's view
// of the conversation: system messages pass through, this model's own
// turns become assistant messages, and everything else (user input or
// other models' turns) becomes a user message with the source role
// prefixed onto the content. Prefixing is idempotent - content that
// already starts with "<role>:" is not prefixed again.
func (m *AIModel) TransformMessages(messages []Message) []ChatMessage {
	api := make([]ChatMessage, 0, len(messages))

	for _, msg := range messages {
		switch {
		case msg.IsSystem():
			api = append(api, ChatMessage{Role: "system", Content: msg.Content})
		case msg.Role == m.Name:
			api = append(api, ChatMessage{Role: "assistant", Content: msg.Content})
		default:
			content := msg.Content
			if !strings.HasPrefix(content, msg.Role+":") {
				content = msg.Role + ": " + content
			}
			api = append(api, ChatMessage{Role: "user", Content: content})
		}
	}

	return api
}

// GenerateResponse generates this model's next turn from the message
// history. Failures never escape as errors: the returned text is either
// the model's response or a sentinel error string embedding the failure
// reason, so the debate continues with the failure visible in the
// transcript rather than silently dropped.
func (m *AIModel) GenerateResponse(ctx context.Context, messages []Message) string {
	text, err := m.complete(ctx, m.TransformMessages(messages))
	if err != nil {
		log.Printf("Error generating response from %s: %v", m.Name, err)
		return fmt.Sprintf("[Error] Failed to generate response: %v", err)
	}
	return text
}

// complete performs one chat-completions call.
func (m *AIModel) complete(ctx context.Context, messages []ChatMessage) (string, error) {
	// Build request payload as a map so backend-specific extra
	// parameters merge into the top-level body
	payload := map[string]interface{}{
		"model":                 m.ModelName,
		"messages":              messages,
		"max_completion_tokens": m.MaxCompletionTokens,
	}
	for k, v := range m.ExtraBody {
		payload[k] = v
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", m.endpoint(), bytes.NewBuffer(payloadBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResponse ChatAPIResponse
	if err := json.Unmarshal(bodyBytes, &apiResponse); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(apiResponse.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return apiResponse.Choices[0].Message.Content, nil
}
