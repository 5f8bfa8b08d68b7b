package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

// TestHelper provides utilities for tests
type TestHelper struct {
	t       *testing.T
	tempDir string
}

// NewTestHelper creates a new test helper
func NewTestHelper(t *testing.T) *TestHelper {
	return &TestHelper{t: t}
}

// CreateTempDir creates a temporary directory for testing
func (h *TestHelper) CreateTempDir() string {
	tempDir, err := os.MkdirTemp("", "ai-debate-test-*")
	if err != nil {
		h.t.Fatalf("Failed to create temp dir: %v", err)
	}
	h.tempDir = tempDir
	return tempDir
}

// Cleanup removes the temporary directory
func (h *TestHelper) Cleanup() {
	if h.tempDir != "" {
		os.RemoveAll(h.tempDir)
	}
}

// WriteSessionFile writes a session file into a session directory under
// the temp dir, creating the directory as needed. Returns the file path.
func (h *TestHelper) WriteSessionFile(sessionID, filename string, data SessionData) string {
	if h.tempDir == "" {
		h.CreateTempDir()
	}

	sessionDir := filepath.Join(h.tempDir, sessionID)
	if err := os.MkdirAll(sessionDir, 0755); err != nil {
		h.t.Fatalf("Failed to create session dir: %v", err)
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		h.t.Fatalf("Failed to marshal JSON: %v", err)
	}

	path := filepath.Join(sessionDir, filename)
	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		h.t.Fatalf("Failed to write file: %v", err)
	}

	return path
}

// ReadJSONFile reads and unmarshals JSON from a file
func (h *TestHelper) ReadJSONFile(path string, v interface{}) {
	data, err := os.ReadFile(path)
	if err != nil {
		h.t.Fatalf("Failed to read file: %v", err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		h.t.Fatalf("Failed to unmarshal JSON: %v", err)
	}
}

// AssertEqual checks if two values are equal
func (h *TestHelper) AssertEqual(got, want interface{}, message string) {
	if got != want {
		h.t.Errorf("%s: got %v, want %v", message, got, want)
	}
}

// AssertNoError checks if an error is nil
func (h *TestHelper) AssertNoError(err error, message string) {
	if err != nil {
		h.t.Errorf("%s: unexpected error: %v", message, err)
	}
}

// AssertError checks if an error is not nil
func (h *TestHelper) AssertError(err error, message string) {
	if err == nil {
		h.t.Errorf("%s: expected error, got nil", message)
	}
}

// MockChatServer creates a mock chat-completions server that always
// returns the given content
func MockChatServer(t *testing.T, content string) *httptest.Server {
	return httptest.NewServer(CreateMockChatHandler(t, content))
}

// CreateMockChatHandler creates a handler that returns successful
// chat-completions responses
func CreateMockChatHandler(t *testing.T, content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Verify headers
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Expected Content-Type application/json, got %s", r.Header.Get("Content-Type"))
		}
		if r.Header.Get("Authorization") == "" {
			t.Errorf("Missing Authorization header")
		}

		writeChatResponse(w, content)
	}
}

// CreateMockChatErrorHandler creates a handler that returns errors
func CreateMockChatErrorHandler(statusCode int, errorMsg string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		w.Write([]byte(errorMsg))
	}
}

// writeChatResponse writes a well-formed chat-completions response body
func writeChatResponse(w http.ResponseWriter, content string) {
	response := map[string]interface{}{
		"choices": []map[string]interface{}{
			{
				"message": map[string]interface{}{
					"content": content,
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// newTestModel creates an adapter pointed at a mock server
func newTestModel(name string, serverURL string) *AIModel {
	return NewAIModel(ModelConfig{
		Name:      name,
		ModelName: "test/" + name,
		BaseURL:   serverURL,
	}, "test-key")
}

// identityShuffle returns 0..n-1 in order, pinning turn order in tests
func identityShuffle(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

// reverseShuffle returns n-1..0
func reverseShuffle(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = n - 1 - i
	}
	return order
}

// sampleSession creates a sample session for testing
func sampleSession(id string) SessionData {
	return SessionData{
		SessionID:        id,
		CreatedTimestamp: "2024-01-01T12:00:00Z",
		LastUpdated:      "2024-01-01T12:00:00Z",
		Messages: []Message{
			{Role: RoleInput, Content: "What is Go?"},
			{Role: "Alpha", Content: "[제안]\nGo is a programming language.", Phase: PhasePropose},
		},
	}
}
