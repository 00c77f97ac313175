package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	anthropicSDK "github.com/anthropics/anthropic-sdk-go"
	anthropicOption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/lokutor-ai/lokutor-orchestrator/pkg/orchestrator"
)

type AnthropicLLM struct {
	apiKey string
	url    string
	model  string

	sdk anthropicSDK.Client
}

func NewAnthropicLLM(apiKey string, model string) *AnthropicLLM {
	if model == "" {
		model = "claude-3-5-sonnet-20240620"
	}
	return &AnthropicLLM{
		apiKey: apiKey,
		url:    "https://api.anthropic.com/v1/messages",
		model:  model,
		sdk:    anthropicSDK.NewClient(anthropicOption.WithAPIKey(apiKey)),
	}
}

func (l *AnthropicLLM) Complete(ctx context.Context, messages []orchestrator.Message) (string, error) {

	var system string
	var anthropicMessages []map[string]string

	for _, msg := range messages {
		if msg.Role == "system" {
			system = msg.Content
		} else {
			anthropicMessages = append(anthropicMessages, map[string]string{
				"role":    msg.Role,
				"content": msg.Content,
			})
		}
	}

	payload := map[string]interface{}{
		"model":      l.model,
		"messages":   anthropicMessages,
		"max_tokens": 1024,
	}
	if system != "" {
		payload["system"] = system
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", l.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", l.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		return "", fmt.Errorf("anthropic llm error (status %d): %v", resp.StatusCode, errResp)
	}

	var result struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	if len(result.Content) == 0 {
		return "", fmt.Errorf("no content returned from anthropic")
	}

	return result.Content[0].Text, nil
}

// StreamComplete uses the SDK's native message stream, accumulating
// content_block_delta text_delta events into onDelta calls.
func (l *AnthropicLLM) StreamComplete(ctx context.Context, messages []orchestrator.Message, onDelta func(delta string) error) error {
	var system []anthropicSDK.TextBlockParam
	var sdkMessages []anthropicSDK.MessageParam

	for _, msg := range messages {
		switch msg.Role {
		case "system":
			system = append(system, anthropicSDK.TextBlockParam{Text: msg.Content})
		case "assistant":
			sdkMessages = append(sdkMessages, anthropicSDK.NewAssistantMessage(anthropicSDK.NewTextBlock(msg.Content)))
		default:
			sdkMessages = append(sdkMessages, anthropicSDK.NewUserMessage(anthropicSDK.NewTextBlock(msg.Content)))
		}
	}

	params := anthropicSDK.MessageNewParams{
		Model:     anthropicSDK.Model(l.model),
		MaxTokens: 1024,
		Messages:  sdkMessages,
	}
	if len(system) > 0 {
		params.System = system
	}

	stream := l.sdk.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	for stream.Next() {
		event := stream.Current()
		if event.Type != "content_block_delta" {
			continue
		}
		if event.Delta.Type != "text_delta" || event.Delta.Text == "" {
			continue
		}
		if err := onDelta(event.Delta.Text); err != nil {
			return err
		}
	}

	return stream.Err()
}

func (l *AnthropicLLM) Name() string {
	return "anthropic-llm"
}
