package llm

import (
	"strings"
	"testing"
	"unicode/utf8"

	"aidigest/internal/model"

	"github.com/go-playground/assert/v2"
)

func TestTruncate_CutsOnRunes(t *testing.T) {
	got := truncate("日本語のニュース", 3)

	assert.Equal(t, got, "日本語...")
	assert.Equal(t, utf8.ValidString(got), true)
}

func TestTruncate_ShortUnchanged(t *testing.T) {
	assert.Equal(t, truncate("short", 10), "short")
}

func TestFormatCandidates_ExcerptStaysValidUTF8(t *testing.T) {
	text := strings.Repeat("é", maxExcerptChars+5)

	got := formatCandidates([]model.Candidate{{Title: "Model launch", Score: 120, Text: text}})

	assert.Equal(t, utf8.ValidString(got), true)
	assert.Equal(t, strings.Contains(got, strings.Repeat("é", maxExcerptChars)+"..."), true)
}
