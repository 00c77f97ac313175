// Command agent is a local microphone/speaker debug harness for the
// orchestrator: it wires the same Controller used by the telephony server to
// a malgo duplex audio device instead of a WebSocket, so the pipeline can be
// exercised end-to-end from a laptop without a real phone call.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gen2brain/malgo"
	"github.com/joho/godotenv"

	"github.com/lokutor-ai/lokutor-orchestrator/pkg/orchestrator"
	llmProvider "github.com/lokutor-ai/lokutor-orchestrator/pkg/providers/llm"
	sttProvider "github.com/lokutor-ai/lokutor-orchestrator/pkg/providers/stt"
	ttsProvider "github.com/lokutor-ai/lokutor-orchestrator/pkg/providers/tts"
)

const sampleRate = 16000

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: No .env file found, using system environment variables")
	}

	groqKey := os.Getenv("GROQ_API_KEY")
	anthropicKey := os.Getenv("ANTHROPIC_API_KEY")
	deepgramKey := os.Getenv("DEEPGRAM_API_KEY")
	lokutorKey := os.Getenv("LOKUTOR_API_KEY")

	if lokutorKey == "" {
		log.Fatal("Error: LOKUTOR_API_KEY must be set.")
	}
	if deepgramKey == "" {
		log.Fatal("Error: DEEPGRAM_API_KEY must be set (streaming STT for this harness).")
	}
	if anthropicKey == "" && groqKey == "" {
		log.Fatal("Error: set ANTHROPIC_API_KEY or GROQ_API_KEY.")
	}

	var llm orchestrator.StreamingLLMProvider
	if anthropicKey != "" {
		llm = llmProvider.NewAnthropicLLM(anthropicKey, "")
	} else {
		llm = llmProvider.NewGroqLLM(groqKey, "")
	}

	stt := sttProvider.NewDeepgramSTT(deepgramKey)
	tts := ttsProvider.NewLokutorTTS(lokutorKey)
	vad := orchestrator.NewRMSVAD()

	cfg := orchestrator.DefaultConfig()
	fmt.Printf("Configured: STT=deepgram | LLM=%s | TTS=lokutor | VAD=rms\n", llm.Name())
	fmt.Println("Voice Agent Started! Listening to microphone...")
	fmt.Println("Press Ctrl+C to exit")

	var playbackMu sync.Mutex
	var playbackBytes []byte

	ctrl := orchestrator.NewController("local-debug-call", cfg, orchestrator.Providers{
		VAD: vad, STT: stt, LLM: llm, TTS: tts,
	}, func(frame []byte) error {
		playbackMu.Lock()
		playbackBytes = append(playbackBytes, frame...)
		playbackMu.Unlock()
		return nil
	}, orchestrator.NewMetrics(nil), &orchestrator.NoOpLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go ctrl.Start(ctx)

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		log.Fatal(err)
	}
	defer mctx.Uninit()

	onSamples := func(pOutput, pInput []byte, frameCount uint32) {
		if pInput != nil {
			ctrl.PushAudio(pInput)
		}
		if pOutput != nil {
			playbackMu.Lock()
			n := copy(pOutput, playbackBytes)
			playbackBytes = playbackBytes[n:]
			playbackMu.Unlock()
			for i := n; i < len(pOutput); i++ {
				pOutput[i] = 0
			}
		}
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Duplex)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = 1
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = 1
	deviceConfig.SampleRate = sampleRate
	deviceConfig.Alsa.NoMMap = 1

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onSamples})
	if err != nil {
		log.Fatal(err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		log.Fatal(err)
	}

	go func() {
		for event := range ctrl.Events() {
			switch event.Type {
			case orchestrator.UserSpeaking:
				fmt.Println("[USER] speaking...")
			case orchestrator.UserStopped:
				fmt.Println("[STT] processing...")
			case orchestrator.BotThinking:
				fmt.Println("[LLM] thinking...")
			case orchestrator.BotSpeaking:
				fmt.Println("[TTS] speaking...")
			case orchestrator.Interrupted:
				fmt.Println("[INTERRUPTED] user started talking")
				playbackMu.Lock()
				playbackBytes = nil
				playbackMu.Unlock()
			case orchestrator.ErrorEvent:
				fmt.Printf("[ERROR] %v\n", event.Data)
			}
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	fmt.Println("\nShutting down...")
	ctrl.Stop()
}
