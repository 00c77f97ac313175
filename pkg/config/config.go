// Package config loads process configuration the way the original CLI
// harness did (a .env file via godotenv) and layers a typed, viper-bound
// Settings struct on top for the server entrypoint. Settings carries the
// listen address, provider selection, API keys, LLM model, Silero model path,
// database DSN and log path. Of the orchestrator tunables only system_prompt
// is read; the others (speech threshold, speech/silence window counts, voice,
// language) keep their orchestrator.DefaultConfig values.
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/lokutor-ai/lokutor-orchestrator/pkg/orchestrator"
)

// Settings is the fully-resolved process configuration.
type Settings struct {
	ListenAddr string `mapstructure:"listen_addr"`
	PublicHost string `mapstructure:"public_host"` // not read by pkg/telephony, which builds the socket URL from the request Host

	STTProvider string `mapstructure:"stt_provider"`
	LLMProvider string `mapstructure:"llm_provider"`
	TTSProvider string `mapstructure:"tts_provider"`
	VADProvider string `mapstructure:"vad_provider"`

	DeepgramAPIKey  string `mapstructure:"deepgram_api_key"`
	GroqAPIKey      string `mapstructure:"groq_api_key"`
	OpenAIAPIKey    string `mapstructure:"openai_api_key"`
	AssemblyAIKey   string `mapstructure:"assemblyai_api_key"`
	AnthropicAPIKey string `mapstructure:"anthropic_api_key"`
	GoogleAPIKey    string `mapstructure:"google_api_key"`
	LokutorAPIKey   string `mapstructure:"lokutor_api_key"`

	LLMModel string `mapstructure:"llm_model"`

	SileroModelPath string `mapstructure:"silero_model_path"`

	DatabaseDSN string `mapstructure:"database_dsn"`

	LogFilePath string `mapstructure:"log_file_path"`

	Orchestrator orchestrator.Config `mapstructure:"-"`
}

// Load reads .env into the process environment (ignoring a missing file,
// same as the CLI harness), then binds environment variables and an
// optional config.yaml into Settings via viper.
func Load(configPath string) (*Settings, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("public_host", "localhost:8080")
	v.SetDefault("stt_provider", "deepgram")
	v.SetDefault("llm_provider", "anthropic")
	v.SetDefault("tts_provider", "lokutor")
	v.SetDefault("vad_provider", "rms")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", configPath, err)
		}
	}

	bindEnv(v, "deepgram_api_key", "groq_api_key", "openai_api_key", "assemblyai_api_key",
		"anthropic_api_key", "google_api_key", "lokutor_api_key", "llm_model",
		"silero_model_path", "database_dsn", "log_file_path",
		"listen_addr", "public_host", "stt_provider", "llm_provider", "tts_provider", "vad_provider")

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	s.Orchestrator = orchestrator.DefaultConfig()
	if model := v.GetString("system_prompt"); model != "" {
		s.Orchestrator.SystemPrompt = model
	}
	return &s, nil
}

func bindEnv(v *viper.Viper, keys ...string) {
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}
