package provider

import (
	"math"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/howard-nolan/llmrevise/internal/catalog"
)

// StyleDirective is the system prompt sent with every real revision. It
// casts the model as an editor that keeps the author's voice and asks for
// the revised text alone, so the response can replace the selection as is.
const StyleDirective = "You are a careful editor revising a passage written by someone else. " +
	"Apply the user's instructions while preserving the original author's voice, tone, " +
	"approximate length and intent unless the instructions explicitly ask you to change them. " +
	"Reply with ONLY the revised text. Do not add explanations, headings, quotation marks " +
	"or any commentary before or after it."

// Section labels in the user turn.
const (
	contextLabel      = "Full document (for context only):"
	selectionLabel    = "Text to revise:"
	instructionsLabel = "Instructions:"
)

// defaultMaxOutputTokens applies when the request leaves the ceiling unset.
const defaultMaxOutputTokens = 4096

// prompt is the provider-neutral form of what gets sent: an optional
// system directive and a single user turn.
type prompt struct {
	System string
	User   string
}

// buildPrompt assembles the prompt for a request.
//
// Probes bypass templating entirely: the instructions are the whole
// prompt. Real revisions get the style directive plus a user turn with
// the surrounding context first, then the selection, then the
// instructions. The model reads the document before the edit target and
// sees the directive last.
func buildPrompt(req GenerateRequest) prompt {
	if req.IsProbe {
		return prompt{User: req.Instructions}
	}

	var b strings.Builder
	if strings.TrimSpace(req.FullContext) != "" {
		b.WriteString(contextLabel)
		b.WriteString("\n")
		b.WriteString(req.FullContext)
		b.WriteString("\n\n")
	}
	b.WriteString(selectionLabel)
	b.WriteString("\n")
	b.WriteString(req.SelectedText)
	b.WriteString("\n\n")
	b.WriteString(instructionsLabel)
	b.WriteString("\n")
	b.WriteString(req.Instructions)

	return prompt{System: StyleDirective, User: b.String()}
}

// chatMessages renders a prompt as OpenAI-style role/content pairs. The
// system message is omitted for probes.
func (p prompt) chatMessages() []chatMessage {
	msgs := make([]chatMessage, 0, 2)
	if p.System != "" {
		msgs = append(msgs, chatMessage{Role: openai.ChatMessageRoleSystem, Content: p.System})
	}
	return append(msgs, chatMessage{Role: openai.ChatMessageRoleUser, Content: p.User})
}

// approxTokens is a rough chars/4 estimate, only used to warn when a
// prompt is likely to exceed a model's context window.
func (p prompt) approxTokens() int {
	return (len(p.System) + len(p.User)) / 4
}

func clampTemperature(t float64) float64 {
	switch {
	case math.IsNaN(t), t < 0:
		return 0
	case t > 1:
		return 1
	}
	return t
}

// outputCeiling picks max output tokens: the request's value, or the
// default, never more than the model allows.
func outputCeiling(requested int, spec catalog.ModelSpec) int {
	n := requested
	if n <= 0 {
		n = defaultMaxOutputTokens
	}
	if spec.MaxOutputTokens > 0 && n > spec.MaxOutputTokens {
		n = spec.MaxOutputTokens
	}
	return n
}
