package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/coder/websocket"
	"github.com/lokutor-ai/lokutor-orchestrator/pkg/orchestrator"
)

type DeepgramSTT struct {
	apiKey     string
	url        string
	wsScheme   string
	wsHost     string
	sampleRate int
}

func NewDeepgramSTT(apiKey string) *DeepgramSTT {
	return &DeepgramSTT{
		apiKey:     apiKey,
		url:        "https://api.deepgram.com/v1/listen",
		wsScheme:   "wss",
		wsHost:     "api.deepgram.com",
		sampleRate: 16000,
	}
}

func (s *DeepgramSTT) Name() string {
	return "deepgram-stt"
}

func (s *DeepgramSTT) Transcribe(ctx context.Context, audioPCM []byte, lang orchestrator.Language) (string, error) {
	u, err := url.Parse(s.url)
	if err != nil {
		return "", err
	}

	params := u.Query()
	params.Set("model", "nova-2")
	params.Set("smart_format", "true")
	if lang != "" {
		params.Set("language", string(lang))
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, "POST", u.String(), bytes.NewReader(audioPCM))
	if err != nil {
		return "", err
	}

	req.Header.Set("Authorization", "Token "+s.apiKey)
	req.Header.Set("Content-Type", "audio/l16; rate=44100; channels=1") // Adjust rate based on usage or inject it

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("deepgram error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Results struct {
			Channels []struct {
				Alternatives []struct {
					Transcript string `json:"transcript"`
				} `json:"alternatives"`
			} `json:"channels"`
		} `json:"results"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	if len(result.Results.Channels) == 0 || len(result.Results.Channels[0].Alternatives) == 0 {
		return "", nil
	}

	return result.Results.Channels[0].Alternatives[0].Transcript, nil
}

// StreamTranscribe opens a live Deepgram recognizer over a websocket and
// returns the channel onto which the caller should push raw 16-bit PCM
// windows. onTranscript fires once per Results message Deepgram sends back,
// tagged with whether it is_final.
func (s *DeepgramSTT) StreamTranscribe(ctx context.Context, lang orchestrator.Language, onTranscript func(transcript string, isFinal bool) error) (chan<- []byte, error) {
	u := url.URL{Scheme: s.wsScheme, Host: s.wsHost, Path: "/v1/listen"}
	params := u.Query()
	params.Set("model", "nova-2")
	params.Set("encoding", "linear16")
	params.Set("sample_rate", fmt.Sprintf("%d", s.sampleRate))
	params.Set("channels", "1")
	params.Set("interim_results", "true")
	params.Set("punctuate", "true")
	params.Set("smart_format", "true")
	if lang != "" {
		params.Set("language", string(lang))
	}
	u.RawQuery = params.Encode()

	conn, _, err := websocket.Dial(ctx, u.String(), &websocket.DialOptions{
		HTTPHeader: http.Header{"Authorization": []string{"Token " + s.apiKey}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to deepgram: %w", err)
	}

	audioIn := make(chan []byte, 32)

	go func() {
		defer conn.Close(websocket.StatusNormalClosure, "")
		for {
			select {
			case <-ctx.Done():
				return
			case window, ok := <-audioIn:
				if !ok {
					conn.Write(ctx, websocket.MessageText, []byte(`{"type":"CloseStream"}`))
					return
				}
				if err := conn.Write(ctx, websocket.MessageBinary, window); err != nil {
					return
				}
			}
		}
	}()

	go func() {
		for {
			_, payload, err := conn.Read(ctx)
			if err != nil {
				return
			}

			var msg struct {
				Type    string `json:"type"`
				Channel struct {
					Alternatives []struct {
						Transcript string `json:"transcript"`
					} `json:"alternatives"`
				} `json:"channel"`
				IsFinal bool `json:"is_final"`
			}
			if err := json.Unmarshal(payload, &msg); err != nil {
				continue
			}
			if msg.Type != "Results" || len(msg.Channel.Alternatives) == 0 {
				continue
			}
			if onTranscript(msg.Channel.Alternatives[0].Transcript, msg.IsFinal) != nil {
				return
			}
		}
	}()

	return audioIn, nil
}
