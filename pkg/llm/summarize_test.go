package llm

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"aidigest/internal/model"

	"github.com/go-playground/assert/v2"
)

type fakeClient struct {
	response string
	err      error
	requests []Request
}

func (f *fakeClient) Name() string { return "fake" }

func (f *fakeClient) Complete(ctx context.Context, req Request) (string, error) {
	f.requests = append(f.requests, req)
	return f.response, f.err
}

func (f *fakeClient) Stream(ctx context.Context, req Request, onChunk func(string) error) error {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return f.err
	}
	return onChunk(f.response)
}

var markupPattern = regexp.MustCompile("[<>*`#]|\\]\\(")

func testCandidates(n int) []model.Candidate {
	candidates := make([]model.Candidate, n)
	for i := range candidates {
		candidates[i] = model.Candidate{
			ID:    int64(i + 1),
			Title: "Candidate story",
			URL:   "https://example.com/" + string(rune('a'+i)),
			Score: 100 - i,
		}
	}
	return candidates
}

func TestSelectStrategy_AttachesByIndex(t *testing.T) {
	client := &fakeClient{response: "```json\n" + `[
		{"index": 3, "headline": "Third candidate wins", "tag": "Research", "summary": "A <b>new</b> paper."},
		{"index": 1, "headline": "First candidate", "tag": "model", "summary": "**Big** release."}
	]` + "\n```"}

	s := NewSummarizer(client, SelectStrategy{})
	stories, err := s.Summarize(context.Background(), testCandidates(4))

	assert.Equal(t, nil, err)
	assert.Equal(t, 2, len(stories))
	assert.Equal(t, "https://example.com/c", stories[0].URL)
	assert.Equal(t, "https://example.com/a", stories[1].URL)
	assert.Equal(t, model.TagModel, stories[1].Tag)
	assert.Equal(t, "A new paper.", stories[0].Summary)
	assert.Equal(t, "Big release.", stories[1].Summary)
}

func TestSelectStrategy_UnknownIndexGetsNoURL(t *testing.T) {
	client := &fakeClient{response: `[{"index": 42, "headline": "Mystery", "tag": "Policy", "summary": "Something happened."}]`}

	s := NewSummarizer(client, SelectStrategy{})
	stories, err := s.Summarize(context.Background(), testCandidates(2))

	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(stories))
	assert.Equal(t, "", stories[0].URL)
}

func TestSelectStrategy_CapsCandidates(t *testing.T) {
	client := &fakeClient{response: `[{"index": 1, "headline": "One", "tag": "Policy", "summary": "Text."}]`}

	s := NewSummarizer(client, SelectStrategy{})
	_, err := s.Summarize(context.Background(), testCandidates(20))

	assert.Equal(t, nil, err)
	assert.Equal(t, true, regexp.MustCompile(`\[12\]`).MatchString(client.requests[0].Prompt))
	assert.Equal(t, false, regexp.MustCompile(`\[13\]`).MatchString(client.requests[0].Prompt))
}

func TestEchoStrategy_AttachesByPosition(t *testing.T) {
	client := &fakeClient{response: `[
		{"headline": "First", "tag": "Business", "summary": "One."},
		{"headline": "Second", "tag": "Safety", "summary": "Two."}
	]`}

	s := NewSummarizer(client, EchoStrategy{})
	stories, err := s.Summarize(context.Background(), testCandidates(2))

	assert.Equal(t, nil, err)
	assert.Equal(t, "https://example.com/a", stories[0].URL)
	assert.Equal(t, "https://example.com/b", stories[1].URL)
}

func TestEchoStrategy_LengthMismatchIsParseError(t *testing.T) {
	client := &fakeClient{response: `[{"headline": "First", "tag": "Business", "summary": "One."}]`}

	s := NewSummarizer(client, EchoStrategy{})
	_, err := s.Summarize(context.Background(), testCandidates(3))

	var parseErr *ParseError
	assert.Equal(t, true, errors.As(err, &parseErr))
}

func TestSummarize_NoArrayIsParseError(t *testing.T) {
	client := &fakeClient{response: "Sorry, nothing today."}

	s := NewSummarizer(client, SelectStrategy{})
	_, err := s.Summarize(context.Background(), testCandidates(3))

	var parseErr *ParseError
	assert.Equal(t, true, errors.As(err, &parseErr))
}

func TestSummarize_ProviderError(t *testing.T) {
	client := &fakeClient{err: rateLimited("fake", errors.New("429"))}

	s := NewSummarizer(client, SelectStrategy{})
	_, err := s.Summarize(context.Background(), testCandidates(3))

	assert.Equal(t, true, errors.Is(err, ErrRateLimited))
}

func TestSummarize_NoCandidates(t *testing.T) {
	client := &fakeClient{}

	s := NewSummarizer(client, SelectStrategy{})
	_, err := s.Summarize(context.Background(), nil)

	assert.Equal(t, true, errors.Is(err, ErrEmptyResult))
	assert.Equal(t, 0, len(client.requests))
}

func TestValidateStories(t *testing.T) {
	stories, err := ValidateStories([]RawStory{
		{Headline: "Valid", Tag: "Infrastructure", Summary: "New <cite index=\"2\">datacenter</cite> opens."},
		{Headline: "", Tag: "Model", Summary: "No headline."},
		{Headline: "Bad tag", Tag: "Gossip", Summary: "Rumours."},
		{Headline: "Empty summary", Tag: "Model", Summary: "  "},
	})

	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(stories))
	assert.Equal(t, "New datacenter opens.", stories[0].Summary)

	for _, s := range stories {
		assert.NotEqual(t, "", s.Headline)
		assert.Equal(t, false, markupPattern.MatchString(s.Summary))
	}
}

func TestValidateStories_AllRejected(t *testing.T) {
	_, err := ValidateStories([]RawStory{{Headline: "Bad tag", Tag: "Gossip", Summary: "Rumours."}})
	assert.Equal(t, true, errors.Is(err, ErrEmptyResult))
}

func TestParseStories(t *testing.T) {
	stories, err := ParseStories(`Here you go: [{"headline":"EU AI Act enforced","tag":"Policy","summary":"Rules apply from today.","url":" https://example.com/eu "}]`)

	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(stories))
	assert.Equal(t, model.TagPolicy, stories[0].Tag)
	assert.Equal(t, "https://example.com/eu", stories[0].URL)
}

func TestNewStrategy(t *testing.T) {
	s, err := NewStrategy("")
	assert.Equal(t, nil, err)
	assert.Equal(t, StrategySelect, s.Name())

	s, err = NewStrategy("echo")
	assert.Equal(t, nil, err)
	assert.Equal(t, 8, s.Limit())

	_, err = NewStrategy("cluster")
	assert.NotEqual(t, nil, err)
}

func TestAskPrompt(t *testing.T) {
	req := AskPrompt("Why does it matter?", "Model X ships", "It is fast.", []model.QAItem{
		{Q: "Who made it?", A: "Acme."},
		{Q: "When?", A: "Today."},
	})

	want := "Story: \"Model X ships\"\nIt is fast.\n\nPrior Q&A:\nQ: Who made it?\nA: Acme.\n\nQ: When?\nA: Today.\n\nQuestion: Why does it matter?"
	assert.Equal(t, want, req.Prompt)
	assert.Equal(t, AskMaxTokens, req.MaxTokens)

	req = AskPrompt("What?", "H", "S", nil)
	assert.Equal(t, "Story: \"H\"\nS\n\nQuestion: What?", req.Prompt)
}
