package llm

import (
	"fmt"
	"strings"

	"aidigest/internal/model"
)

const (
	digestMaxTokens = 2000
	AskMaxTokens    = 400
	maxExcerptChars = 300
)

const storyShape = `{"headline":"Max 10 word headline","tag":"Model|Research|Policy|Business|Safety|Infrastructure","summary":"2 sentences max. Conversational, no jargon."}`

// WebSearchPrompt asks a search-enabled model for the day's stories directly.
func WebSearchPrompt(today string) Request {
	system := fmt.Sprintf(`You are an AI news curator. Today is %s.
Search for the 6-12 most important AI news stories from the last 48 hours. Cover: model releases, research breakthroughs, major company moves, policy/regulation, safety, infrastructure.
Summaries will be read aloud: plain sentences only, no markdown, no citations, no bullet points.
Respond ONLY with a valid JSON array, no markdown, no preamble:
[%s]`, today, storyShape)

	return Request{
		System:    system,
		Prompt:    "Top AI news last 48 hours as JSON array.",
		MaxTokens: digestMaxTokens,
	}
}

const selectSystemPrompt = `You are an AI news editor preparing a spoken daily briefing.
You will receive a numbered list of candidate stories from a tech discussion forum, with points and an optional excerpt.
Pick the 6-12 most important AI stories. Skip duplicates and anything not about AI.
For each pick, set "index" to the number of the candidate it came from.
Headlines are at most 10 words. Summaries are at most 2 sentences, conversational, plain text: no markdown, no bullets, no links.
Respond ONLY with a valid JSON array, no markdown, no preamble:
[{"index":1,"headline":"...","tag":"Model|Research|Policy|Business|Safety|Infrastructure","summary":"..."}]`

const echoSystemPrompt = `You are an AI news editor preparing a spoken daily briefing.
You will receive a numbered list of stories from a tech discussion forum, with points and an optional excerpt.
Summarize EVERY story, in exactly the order given, one output object per input story.
Headlines are at most 10 words. Summaries are at most 2 sentences, conversational, plain text: no markdown, no bullets, no links.
Respond ONLY with a valid JSON array of exactly %d objects, no markdown, no preamble:
[%s]`

const askSystemPrompt = "Answer follow-up questions about a news story. Be concise (2-4 sentences), conversational, direct. No markdown, no bullets, this will be read aloud."

// truncate cuts s to at most max runes.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

func formatCandidates(candidates []model.Candidate) string {
	var sb strings.Builder
	for i, c := range candidates {
		sb.WriteString(fmt.Sprintf("[%d] %s (%d points)\n", i+1, c.Title, c.Score))
		if c.Text != "" {
			sb.WriteString(fmt.Sprintf("    Excerpt: %s\n", truncate(c.Text, maxExcerptChars)))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// AskPrompt builds the follow-up question request. The caller owns the
// conversation; every prior answer is replayed here.
func AskPrompt(question, headline, summary string, prior []model.QAItem) Request {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Story: \"%s\"\n%s", headline, summary))

	if len(prior) > 0 {
		sb.WriteString("\n\nPrior Q&A:\n")
		for i, p := range prior {
			if i > 0 {
				sb.WriteString("\n\n")
			}
			sb.WriteString(fmt.Sprintf("Q: %s\nA: %s", p.Q, p.A))
		}
	}

	sb.WriteString("\n\nQuestion: ")
	sb.WriteString(question)

	return Request{
		System:    askSystemPrompt,
		Prompt:    sb.String(),
		MaxTokens: AskMaxTokens,
	}
}
