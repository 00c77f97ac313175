package orchestrator

import (
	"context"
	"sync"
)

// Logger is the small structured-logging contract the pipeline depends on.
// Concrete implementations (a zap adapter, a test spy, or NoOpLogger) all
// satisfy it so stage code never imports a logging library directly.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

type NoOpLogger struct{}

func (n *NoOpLogger) Debug(msg string, args ...interface{}) {}
func (n *NoOpLogger) Info(msg string, args ...interface{})  {}
func (n *NoOpLogger) Warn(msg string, args ...interface{})  {}
func (n *NoOpLogger) Error(msg string, args ...interface{}) {}

// STTProvider performs one-shot batch transcription of a complete audio buffer.
type STTProvider interface {
	Transcribe(ctx context.Context, audio []byte, lang Language) (string, error)
	Name() string
}

// StreamingSTTProvider additionally supports opening a live recognizer whose
// partial/final events arrive as audio is pushed. StreamTranscribe returns the
// channel the caller should push raw PCM bytes onto; cancelling ctx ends the
// recognition session.
type StreamingSTTProvider interface {
	STTProvider
	StreamTranscribe(ctx context.Context, lang Language, onTranscript func(transcript string, isFinal bool) error) (chan<- []byte, error)
}

// LLMProvider performs one-shot batch completion over a message history.
type LLMProvider interface {
	Complete(ctx context.Context, messages []Message) (string, error)
	Name() string
}

// StreamingLLMProvider additionally emits incremental text deltas as the
// model generates them, so callers can chunk on punctuation as tokens arrive
// instead of waiting for the full completion.
type StreamingLLMProvider interface {
	LLMProvider
	StreamComplete(ctx context.Context, messages []Message, onDelta func(delta string) error) error
}

// TTSProvider synthesizes speech, either as one complete buffer or as a
// stream of chunks delivered to onChunk as they become available.
type TTSProvider interface {
	Synthesize(ctx context.Context, text string, voice Voice, lang Language) ([]byte, error)
	StreamSynthesize(ctx context.Context, text string, voice Voice, lang Language, onChunk func([]byte) error) error
	Name() string
}

// Abortable is implemented by providers that can cancel in-flight work from
// outside the call that started it. No stage calls it: on barge-in the TTS
// stage stops through its StreamSynthesize callback and purges outQ.
type Abortable interface {
	Abort() error
}

// VADProvider is a pure decision function over one fixed-size audio window:
// given the window, return the probability that it contains speech. It holds
// no turn-taking state of its own — windowing, hysteresis and the
// speech/silence debounce counters all live in VADStage (C3), so any
// VADProvider can be swapped in without touching turn-taking logic.
type VADProvider interface {
	SpeechProbability(window []int16) (float64, error)
	Name() string
}

// Voice selects a synthesizer voice preset.
type Voice string

const (
	VoiceF1 Voice = "F1"
	VoiceF2 Voice = "F2"
	VoiceF3 Voice = "F3"
	VoiceF4 Voice = "F4"
	VoiceF5 Voice = "F5"
	VoiceM1 Voice = "M1"
	VoiceM2 Voice = "M2"
	VoiceM3 Voice = "M3"
	VoiceM4 Voice = "M4"
	VoiceM5 Voice = "M5"
)

// Language is the language tag passed through to STT/LLM/TTS providers.
type Language string

const (
	LanguageEn Language = "en"
	LanguageEs Language = "es"
	LanguageFr Language = "fr"
	LanguageDe Language = "de"
	LanguageIt Language = "it"
	LanguagePt Language = "pt"
	LanguageJa Language = "ja"
	LanguageZh Language = "zh"
)

// Message is one turn of conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TurnState enumerates the controller's turn-taking state machine (C7).
type TurnState string

const (
	StateIdle      TurnState = "IDLE"
	StateWarmup    TurnState = "WARMUP"
	StateListening TurnState = "LISTENING"
	StateThinking  TurnState = "THINKING"
	StateSpeaking  TurnState = "SPEAKING"
	StateTeardown  TurnState = "TEARDOWN"
)

// EventType tags the observable events a Controller publishes for callers
// (the telephony handler, the CLI debug harness, tests) to watch.
type EventType string

const (
	UserSpeaking      EventType = "USER_SPEAKING"
	UserStopped       EventType = "USER_STOPPED"
	TranscriptPartial EventType = "TRANSCRIPT_PARTIAL"
	TranscriptFinal   EventType = "TRANSCRIPT_FINAL"
	BotThinking       EventType = "BOT_THINKING"
	BotResponse       EventType = "BOT_RESPONSE"
	BotSpeaking       EventType = "BOT_SPEAKING"
	Interrupted       EventType = "INTERRUPTED"
	AudioChunk        EventType = "AUDIO_CHUNK"
	ErrorEvent        EventType = "ERROR"
	StateChanged      EventType = "STATE_CHANGED"
)

// OrchestratorEvent is one observable pipeline occurrence.
type OrchestratorEvent struct {
	Type      EventType   `json:"type"`
	SessionID string      `json:"session_id"`
	Data      interface{} `json:"data,omitempty"`
}

// Config holds the pipeline tunables: audio framing constants, the VAD
// threshold and debounce windows, context size, voice and language, the
// persona/system prompt used for every turn, per-stage timeouts and the
// warm-up prompt. Providers are not selected here; they are passed to
// NewController.
type Config struct {
	SampleRate int // fixed at 16000 for the telephony leg
	Channels   int
	FrameBytes int // canonical outbound transport unit, 640 bytes / 20ms

	WindowSamples     int     // VAD decision window, 512 samples
	SpeechThreshold   float64 // decision boundary in [0,1]
	MinSpeechWindows  int     // consecutive speech windows to confirm barge-in
	MinSilenceWindows int     // consecutive silence windows to commit a turn

	MaxContextMessages int
	VoiceStyle         Voice
	Language           Language
	SystemPrompt       string

	STTTimeoutSeconds uint
	LLMTimeoutSeconds uint
	TTSTimeoutSeconds uint

	MinWordsToInterrupt int

	WarmupPrompt string
}

func DefaultConfig() Config {
	return Config{
		SampleRate: 16000,
		Channels:   1,
		FrameBytes: 640,

		WindowSamples:     512,
		SpeechThreshold:   0.5,
		MinSpeechWindows:  10,
		MinSilenceWindows: 35,

		MaxContextMessages: 40,
		VoiceStyle:         VoiceF1,
		Language:           LanguageEn,
		SystemPrompt:       "You are a helpful, concise voice assistant. Keep replies short and conversational.",

		STTTimeoutSeconds: 30,
		LLMTimeoutSeconds: 60,
		TTSTimeoutSeconds: 30,

		MinWordsToInterrupt: 1,

		WarmupPrompt: "are you ready? respond with yes or no",
	}
}

// ConversationContext is the ordered turn history for one call (I5). Entries
// are never edited in place, but once the history holds more than
// MaxMessages entries (when MaxMessages > 0) Append drops the oldest ones.
// It is safe for concurrent use: the controller's user-turn callback, run by
// the LLM stage when it starts a turn, appends user turns and the LLM stage
// appends assistant turns, and both paths serialize through this mutex.
type ConversationContext struct {
	mu            sync.RWMutex
	ID            string
	History       []Message
	MaxMessages   int
	Voice         Voice
	Language      Language
	SystemPrompt  string
	LastUser      string
	LastAssistant string
}

func NewConversationContext(callID string, cfg Config) *ConversationContext {
	return &ConversationContext{
		ID:           callID,
		History:      []Message{},
		MaxMessages:  cfg.MaxContextMessages,
		Voice:        cfg.VoiceStyle,
		Language:     cfg.Language,
		SystemPrompt: cfg.SystemPrompt,
	}
}

// Append adds one turn, then drops the oldest entries beyond MaxMessages. It
// never mutates a prior entry (I5).
func (c *ConversationContext) Append(role, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.History = append(c.History, Message{Role: role, Content: content})
	if c.MaxMessages > 0 && len(c.History) > c.MaxMessages {
		c.History = c.History[len(c.History)-c.MaxMessages:]
	}
	if role == "user" {
		c.LastUser = content
	} else if role == "assistant" {
		c.LastAssistant = content
	}
}

// Messages returns the full message list to send to the LLM provider,
// prefixed with the system prompt if one is configured.
func (c *ConversationContext) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Message, 0, len(c.History)+1)
	if c.SystemPrompt != "" {
		out = append(out, Message{Role: "system", Content: c.SystemPrompt})
	}
	out = append(out, c.History...)
	return out
}

func (c *ConversationContext) Snapshot() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cp := make([]Message, len(c.History))
	copy(cp, c.History)
	return cp
}

func (c *ConversationContext) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.History)
}

func (c *ConversationContext) CurrentVoice() Voice {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Voice
}

func (c *ConversationContext) CurrentLanguage() Language {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Language
}

// CallRecord is the durable, post-call persistence unit handed to the
// storage collaborator at teardown (§11.5 of the expanded spec).
type CallRecord struct {
	CallID     string    `json:"call_id"`
	StartedAt  int64     `json:"started_at_unix"`
	EndedAt    int64     `json:"ended_at_unix"`
	Turns      []Message `json:"turns"`
	SampleRate int       `json:"sample_rate"`
	Voice      string    `json:"voice"`
	Language   string    `json:"language"`
}

// AnalysisReport is the offline, LLM-generated summary of one finished call,
// produced by the conversation-analysis collaborator (§11.6). It never
// blocks the live pipeline.
type AnalysisReport struct {
	CallID            string `json:"call_id"`
	Summary           string `json:"summary"`
	Sentiment         string `json:"sentiment"`
	FollowUpRequired  bool   `json:"follow_up_required"`
	FollowUpReason    string `json:"follow_up_reason,omitempty"`
}
