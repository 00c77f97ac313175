package config

import (
	"os"
	"testing"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"STT_PROVIDER", "LLM_PROVIDER", "TTS_PROVIDER", "VAD_PROVIDER",
		"LISTEN_ADDR", "PUBLIC_HOST", "DEEPGRAM_API_KEY", "ANTHROPIC_API_KEY",
	} {
		old, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, old)
			}
		})
	}
}

func TestLoadAppliesProviderDefaults(t *testing.T) {
	clearProviderEnv(t)

	s, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.ListenAddr != ":8080" {
		t.Errorf("expected default listen addr, got %q", s.ListenAddr)
	}
	if s.STTProvider != "deepgram" || s.LLMProvider != "anthropic" || s.TTSProvider != "lokutor" || s.VADProvider != "rms" {
		t.Errorf("unexpected provider defaults: %+v", s)
	}
	if s.Orchestrator.SystemPrompt == "" {
		t.Error("expected orchestrator defaults to be populated")
	}
}

func TestLoadReadsEnvOverrides(t *testing.T) {
	clearProviderEnv(t)
	os.Setenv("LLM_PROVIDER", "openai")
	os.Setenv("DEEPGRAM_API_KEY", "secret-key")

	s, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.LLMProvider != "openai" {
		t.Errorf("expected env override to win, got %q", s.LLMProvider)
	}
	if s.DeepgramAPIKey != "secret-key" {
		t.Errorf("expected API key to be bound from env, got %q", s.DeepgramAPIKey)
	}
}

func TestLoadMissingConfigFileReturnsError(t *testing.T) {
	clearProviderEnv(t)

	if _, err := Load("/nonexistent/path/config.yaml"); err == nil {
		t.Fatal("expected an error when the given config file does not exist")
	}
}
