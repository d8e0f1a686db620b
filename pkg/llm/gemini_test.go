package llm

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestGeminiConfig_MaxTokens(t *testing.T) {
	c := &GeminiClient{}

	cfg := c.config(Request{System: "Be brief.", Prompt: "Why?", MaxTokens: 400})
	assert.Equal(t, cfg.MaxOutputTokens, int32(400))
	assert.NotEqual(t, cfg.SystemInstruction, nil)

	cfg = c.config(Request{Prompt: "Why?"})
	assert.Equal(t, cfg.MaxOutputTokens, int32(0))
}
