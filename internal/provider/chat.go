package provider

import (
	"encoding/json"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// ---------------------------------------------------------------------------
// OpenAI-style chat completions wire types
// ---------------------------------------------------------------------------

// OpenRouter and local inference servers both speak the chat completions
// dialect, so they share these types and the parser below. They differ
// only in URL, auth and model naming.

// chatRequest is the POST body. No omitempty on temperature or stream:
// a temperature of 0 and stream:false must reach the wire explicitly.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the success envelope. Content is a pointer so an absent
// or null content field is distinguishable from an empty string.
type chatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   *chatUsage   `json:"usage"`

	// OpenRouter occasionally reports upstream failures inside a 200
	// response as {"error": {...}} with no choices.
	Error *openai.APIError `json:"error,omitempty"`
}

type chatChoice struct {
	Message struct {
		Role    string  `json:"role"`
		Content *string `json:"content"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

func newChatRequest(call wireCall) chatRequest {
	return chatRequest{
		Model:       call.Model,
		Messages:    call.Prompt.chatMessages(),
		Temperature: call.Temperature,
		MaxTokens:   call.MaxTokens,
		Stream:      false,
	}
}

// parseChatCompletion extracts choices[0].message.content and usage.
func parseChatCompletion(raw []byte) (string, Usage, error) {
	var resp chatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", Usage{}, malformed("decoding chat completion: %v", err)
	}

	if len(resp.Choices) == 0 {
		if resp.Error != nil && resp.Error.Message != "" {
			return "", Usage{}, &Error{Kind: KindProviderRejected, Message: resp.Error.Message}
		}
		return "", Usage{}, malformed("response has no choices")
	}

	content := resp.Choices[0].Message.Content
	if content == nil {
		return "", Usage{}, malformed("choices[0].message.content is missing")
	}

	var usage Usage
	if resp.Usage != nil {
		usage = normalizeUsage(resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens)
	}

	return *content, usage, nil
}

// chatCompletionsURL joins an API root and the chat completions path.
func chatCompletionsURL(root string) string {
	return strings.TrimRight(root, "/") + "/chat/completions"
}
