package digestapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"aidigest/internal/model"
)

const secretHeader = "x-digest-secret"

// Error is a non-2xx response from the digest service.
type Error struct {
	StatusCode int
	Message    string
	Raw        string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("Server error %d", e.StatusCode)
	}
	if e.Raw != "" {
		return e.Message + ": " + e.Raw
	}
	return e.Message
}

type Client struct {
	baseURL    string
	secret     string
	httpClient *http.Client
}

// NewClient talks to the service at baseURL. Digest generation and answer
// streams are bounded by the caller's context, not a client timeout.
func NewClient(baseURL, secret string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		secret:     secret,
		httpClient: &http.Client{},
	}
}

func (c *Client) Digest(ctx context.Context, date string) ([]model.Story, error) {
	if date == "" {
		date = model.TodayKey
	}

	var stories []model.Story
	if err := c.doJSON(ctx, http.MethodPost, "/digest", map[string]string{"date": date}, &stories); err != nil {
		return nil, err
	}
	if len(stories) == 0 {
		return nil, errors.New("No stories returned")
	}
	return stories, nil
}

func (c *Client) Dates(ctx context.Context) ([]string, error) {
	var dates []string
	if err := c.doJSON(ctx, http.MethodGet, "/dates", nil, &dates); err != nil {
		return nil, err
	}
	return dates, nil
}

// Ask streams the answer, calling onChunk with each piece of text as it
// arrives.
func (c *Client) Ask(ctx context.Context, question, headline, summary string, prior []model.QAItem, onChunk func(string) error) error {
	if prior == nil {
		prior = []model.QAItem{}
	}
	body := map[string]any{
		"question": question,
		"headline": headline,
		"summary":  summary,
		"priorQA":  prior,
	}

	resp, err := c.do(ctx, http.MethodPost, "/ask", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	buf := make([]byte, 4096)
	var pending []byte
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			text, rest := splitValidUTF8(pending)
			pending = rest
			if text != "" {
				if cbErr := onChunk(text); cbErr != nil {
					return cbErr
				}
			}
		}
		if errors.Is(err, io.EOF) {
			if len(pending) > 0 {
				return onChunk(string(pending))
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("read answer stream: %w", err)
		}
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, v any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(secretHeader, c.secret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		apiErr := &Error{StatusCode: resp.StatusCode}
		var payload struct {
			Error string `json:"error"`
			Raw   string `json:"raw"`
		}
		if json.NewDecoder(resp.Body).Decode(&payload) == nil {
			apiErr.Message = payload.Error
			apiErr.Raw = payload.Raw
		}
		return nil, apiErr
	}

	return resp, nil
}

// splitValidUTF8 returns the longest prefix of b that does not end inside
// a multi-byte rune, and the remainder.
func splitValidUTF8(b []byte) (string, []byte) {
	cut := len(b)
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if !utf8.FullRune(b[i:]) {
				cut = i
			}
			break
		}
	}
	return string(b[:cut]), append([]byte(nil), b[cut:]...)
}
