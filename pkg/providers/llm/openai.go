package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	openaiSDK "github.com/openai/openai-go/v2"
	openaiOption "github.com/openai/openai-go/v2/option"
	"github.com/lokutor-ai/lokutor-orchestrator/pkg/orchestrator"
)

type OpenAILLM struct {
	apiKey string
	url    string
	model  string

	sdk openaiSDK.Client
}

func NewOpenAILLM(apiKey string, model string) *OpenAILLM {
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAILLM{
		apiKey: apiKey,
		url:    "https://api.openai.com/v1/chat/completions",
		model:  model,
		sdk:    openaiSDK.NewClient(openaiOption.WithAPIKey(apiKey)),
	}
}

func (l *OpenAILLM) Complete(ctx context.Context, messages []orchestrator.Message) (string, error) {
	payload := map[string]interface{}{
		"model":    l.model,
		"messages": messages,
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
	req.Header.Set("Authorization", "Bearer "+l.apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		return "", fmt.Errorf("openai llm error (status %d): %v", resp.StatusCode, errResp)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from openai")
	}

	return result.Choices[0].Message.Content, nil
}

// StreamComplete uses the SDK's chat-completion streaming iterator, reading
// choices[0].delta.content per server-sent chunk.
func (l *OpenAILLM) StreamComplete(ctx context.Context, messages []orchestrator.Message, onDelta func(delta string) error) error {
	var sdkMessages []openaiSDK.ChatCompletionMessageParamUnion
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			sdkMessages = append(sdkMessages, openaiSDK.SystemMessage(msg.Content))
		case "assistant":
			sdkMessages = append(sdkMessages, openaiSDK.AssistantMessage(msg.Content))
		default:
			sdkMessages = append(sdkMessages, openaiSDK.UserMessage(msg.Content))
		}
	}

	params := openaiSDK.ChatCompletionNewParams{
		Model:    openaiSDK.ChatModel(l.model),
		Messages: sdkMessages,
	}

	stream := l.sdk.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		if err := onDelta(delta); err != nil {
			return err
		}
	}

	return stream.Err()
}

func (l *OpenAILLM) Name() string {
	return "openai-llm"
}
