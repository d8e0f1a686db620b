package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const maxRawExcerpt = 500

var ErrEmptyResult = errors.New("empty or invalid stories array")

var fencePattern = regexp.MustCompile("```(?:json)?\\s*")

// ParseError means the model output held no extractable JSON array.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse model response: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func newParseError(raw string, err error) *ParseError {
	return &ParseError{Raw: excerpt(raw, maxRawExcerpt), Err: err}
}

func excerpt(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

func cleanJSONResponse(content string) string {
	content = fencePattern.ReplaceAllString(content, "")
	content = strings.TrimSpace(content)

	// Models often wrap the array in prose.
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}

// ExtractJSONArray decodes the first-[-to-last-] span of a model response
// into v. A missing or malformed array is a *ParseError; a valid but empty
// array is ErrEmptyResult.
func ExtractJSONArray(content string, v any) error {
	cleaned := cleanJSONResponse(content)
	if !strings.HasPrefix(cleaned, "[") || !strings.HasSuffix(cleaned, "]") {
		return newParseError(content, errors.New("no JSON array found"))
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
		return newParseError(content, err)
	}
	if len(items) == 0 {
		return ErrEmptyResult
	}

	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return newParseError(content, err)
	}
	return nil
}
