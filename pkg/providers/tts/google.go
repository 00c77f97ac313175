package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/lokutor-ai/lokutor-orchestrator/pkg/orchestrator"
)

// GoogleTTS synthesizes via the REST text:synthesize endpoint. It only
// returns a complete buffer per call, so StreamSynthesize adapts that batch
// response into fixed-size reads the way the teacher's own Synthesize ->
// StreamSynthesize wrapper does for LokutorTTS in reverse.
type GoogleTTS struct {
	apiKey string
	url    string
}

func NewGoogleTTS(apiKey string) *GoogleTTS {
	return &GoogleTTS{
		apiKey: apiKey,
		url:    "https://texttospeech.googleapis.com/v1/text:synthesize",
	}
}

func (t *GoogleTTS) Name() string {
	return "google-tts"
}

func (t *GoogleTTS) Synthesize(ctx context.Context, text string, voice orchestrator.Voice, lang orchestrator.Language) ([]byte, error) {
	languageCode := "en-US"
	if lang != "" {
		languageCode = string(lang)
	}

	payload := map[string]interface{}{
		"input": map[string]string{"text": text},
		"voice": map[string]string{
			"languageCode": languageCode,
			"name":         string(voice),
		},
		"audioConfig": map[string]interface{}{
			"audioEncoding": "LINEAR16",
			"sampleRateHertz": 16000,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", t.url+"?key="+t.apiKey, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		return nil, fmt.Errorf("google tts error (status %d): %v", resp.StatusCode, errResp)
	}

	var result struct {
		AudioContent string `json:"audioContent"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return base64.StdEncoding.DecodeString(result.AudioContent)
}

func (t *GoogleTTS) StreamSynthesize(ctx context.Context, text string, voice orchestrator.Voice, lang orchestrator.Language, onChunk func([]byte) error) error {
	audio, err := t.Synthesize(ctx, text, voice, lang)
	if err != nil {
		return err
	}

	const chunkSize = 640
	for off := 0; off < len(audio); off += chunkSize {
		end := off + chunkSize
		if end > len(audio) {
			end = len(audio)
		}
		if err := onChunk(audio[off:end]); err != nil {
			return err
		}
	}
	return nil
}
