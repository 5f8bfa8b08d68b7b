package main

import (
	"os"
	"path/filepath"
	"testing"
)

// writeConfigFile writes a model configuration file into a temp dir
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

// TestLoadModels tests model construction from the configuration file
func TestLoadModels(t *testing.T) {
	helper := NewTestHelper(t)

	t.Run("direct api key", func(t *testing.T) {
		path := writeConfigFile(t, `{
			"models": [
				{"name": "Alpha", "model_name": "vendor/alpha-1", "api_key": "direct-key"}
			]
		}`)

		models, err := LoadModels(path)
		helper.AssertNoError(err, "LoadModels should succeed")
		if len(models) != 1 {
			t.Fatalf("Expected 1 model, got %d", len(models))
		}
		helper.AssertEqual(models[0].Name, "Alpha", "Model name")
		helper.AssertEqual(models[0].ModelName, "vendor/alpha-1", "Backend model name")
		helper.AssertEqual(models[0].MaxCompletionTokens, DefaultMaxCompletionTokens, "Default token cap")
	})

	t.Run("api key from environment", func(t *testing.T) {
		t.Setenv("TEST_ALPHA_KEY", "env-key")
		path := writeConfigFile(t, `{
			"models": [
				{"name": "Alpha", "model_name": "vendor/alpha-1", "api_key_env": "TEST_ALPHA_KEY"}
			]
		}`)

		models, err := LoadModels(path)
		helper.AssertNoError(err, "LoadModels should succeed")
		if len(models) != 1 {
			t.Fatalf("Expected 1 model, got %d", len(models))
		}
	})

	t.Run("missing api key skips the model", func(t *testing.T) {
		path := writeConfigFile(t, `{
			"models": [
				{"name": "Alpha", "model_name": "vendor/alpha-1", "api_key": "ok"},
				{"name": "Beta", "model_name": "vendor/beta-1", "api_key_env": "TEST_UNSET_KEY_XYZ"},
				{"name": "Gamma", "model_name": "vendor/gamma-1"}
			]
		}`)

		models, err := LoadModels(path)
		helper.AssertNoError(err, "LoadModels should succeed")
		if len(models) != 1 {
			t.Fatalf("Expected 1 model, got %d", len(models))
		}
		helper.AssertEqual(models[0].Name, "Alpha", "Surviving model")
	})

	t.Run("per-model overrides", func(t *testing.T) {
		path := writeConfigFile(t, `{
			"models": [
				{
					"name": "Alpha",
					"model_name": "vendor/alpha-1",
					"api_key": "ok",
					"base_url": "https://alt.example.com/v1",
					"max_completion_tokens": 2000,
					"extra_body": {"temperature": 0.3}
				}
			]
		}`)

		models, err := LoadModels(path)
		helper.AssertNoError(err, "LoadModels should succeed")
		if len(models) != 1 {
			t.Fatalf("Expected 1 model, got %d", len(models))
		}
		helper.AssertEqual(models[0].BaseURL, "https://alt.example.com/v1", "Base URL")
		helper.AssertEqual(models[0].MaxCompletionTokens, 2000, "Token cap override")
		helper.AssertEqual(models[0].ExtraBody["temperature"], 0.3, "Extra body")
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := LoadModels(filepath.Join(t.TempDir(), "nope.json"))
		helper.AssertError(err, "Missing config file should fail")
	})

	t.Run("malformed json is an error", func(t *testing.T) {
		path := writeConfigFile(t, `{not json`)
		_, err := LoadModels(path)
		helper.AssertError(err, "Malformed config file should fail")
	})

	t.Run("empty model list", func(t *testing.T) {
		path := writeConfigFile(t, `{"models": []}`)
		models, err := LoadModels(path)
		helper.AssertNoError(err, "Empty config should succeed")
		if len(models) != 0 {
			t.Errorf("Expected no models, got %d", len(models))
		}
	})
}
