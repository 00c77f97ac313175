// Command server is the telephony-facing entrypoint: it loads configuration,
// wires the selected provider stack, and serves the WebSocket audio endpoint
// and NCCO webhooks defined in pkg/telephony, one Controller per call.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lokutor-ai/lokutor-orchestrator/pkg/config"
	"github.com/lokutor-ai/lokutor-orchestrator/pkg/logging"
	"github.com/lokutor-ai/lokutor-orchestrator/pkg/orchestrator"
	llmProvider "github.com/lokutor-ai/lokutor-orchestrator/pkg/providers/llm"
	sttProvider "github.com/lokutor-ai/lokutor-orchestrator/pkg/providers/stt"
	ttsProvider "github.com/lokutor-ai/lokutor-orchestrator/pkg/providers/tts"
	"github.com/lokutor-ai/lokutor-orchestrator/pkg/storage"
	"github.com/lokutor-ai/lokutor-orchestrator/pkg/telephony"
	"github.com/lokutor-ai/lokutor-orchestrator/pkg/tracing"
)

func main() {
	settings, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zapLogger := logging.New(logging.Options{
		FilePath:  settings.LogFilePath,
		Component: "orchestrator",
	})
	defer zapLogger.Sync()

	tracerProvider, err := tracing.NewTracerProvider(context.Background(), "lokutor-orchestrator")
	if err != nil {
		zapLogger.Warn("tracing unavailable", "error", err)
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tracerProvider.Shutdown(ctx)
		}()
	}

	registry := prometheus.NewRegistry()
	metrics := orchestrator.NewMetrics(registry)

	var store *storage.Store
	if settings.DatabaseDSN != "" {
		store, err = storage.Open(settings.DatabaseDSN)
		if err != nil {
			zapLogger.Warn("storage unavailable, calls will not be persisted", "error", err)
			store = nil
		}
	}

	stt := buildSTT(settings)
	llm := buildLLM(settings)
	tts := buildTTS(settings)
	vad := buildVAD(settings)

	zapLogger.Info("providers configured", "stt", stt.Name(), "llm", llm.Name(), "tts", tts.Name(), "vad", vad.Name())

	factory := func(callID string, sink func([]byte) error) *orchestrator.Controller {
		callLogger := zapLogger.With("call_id", callID)
		ctrl := orchestrator.NewController(callID, settings.Orchestrator, orchestrator.Providers{
			VAD: vad, STT: stt, LLM: llm, TTS: tts,
		}, sink, metrics, callLogger)

		if store != nil {
			ctrl.OnTeardown(func(record *orchestrator.CallRecord) {
				if err := store.SaveCall(context.Background(), record); err != nil {
					callLogger.Error("failed to persist call record", "error", err)
				}
			})
		}
		return ctrl
	}

	telephonyServer := telephony.NewServer(factory, zapLogger)
	router := telephonyServer.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:    settings.ListenAddr,
		Handler: tracing.WrapHandler(router, "lokutor-orchestrator"),
	}

	go func() {
		zapLogger.Info("listening", "addr", settings.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Error("server stopped", "error", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	zapLogger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}

func buildSTT(s *config.Settings) orchestrator.StreamingSTTProvider {
	switch s.STTProvider {
	case "assemblyai":
		return sttProvider.NewBatchStreamAdapter(sttProvider.NewAssemblyAISTT(s.AssemblyAIKey))
	default:
		return sttProvider.NewDeepgramSTT(s.DeepgramAPIKey)
	}
}

func buildLLM(s *config.Settings) orchestrator.StreamingLLMProvider {
	switch s.LLMProvider {
	case "openai":
		return llmProvider.NewOpenAILLM(s.OpenAIAPIKey, s.LLMModel)
	case "groq":
		return llmProvider.NewGroqLLM(s.GroqAPIKey, s.LLMModel)
	case "google":
		return llmProvider.NewGoogleLLM(s.GoogleAPIKey, s.LLMModel)
	default:
		return llmProvider.NewAnthropicLLM(s.AnthropicAPIKey, s.LLMModel)
	}
}

func buildTTS(s *config.Settings) orchestrator.TTSProvider {
	switch s.TTSProvider {
	case "google":
		return ttsProvider.NewGoogleTTS(s.GoogleAPIKey)
	default:
		return ttsProvider.NewLokutorTTS(s.LokutorAPIKey)
	}
}

func buildVAD(s *config.Settings) orchestrator.VADProvider {
	switch s.VADProvider {
	case "silero":
		vad, err := orchestrator.NewSileroVAD(s.SileroModelPath, s.Orchestrator.SampleRate, s.Orchestrator.WindowSamples)
		if err != nil {
			log.Fatalf("silero vad: %v", err)
		}
		return vad
	default:
		return orchestrator.NewRMSVAD()
	}
}
