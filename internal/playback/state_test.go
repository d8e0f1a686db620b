package playback

import (
	"errors"
	"testing"

	"aidigest/internal/model"

	"github.com/go-playground/assert/v2"
)

var testStories = []model.Story{
	{Headline: "Lab ships new model", Tag: model.TagModel, Summary: "It is faster."},
	{Headline: "Draft AI rules published", Tag: model.TagPolicy, Summary: "Comments are open."},
	{Headline: "New GPU cluster online", Tag: model.TagInfrastructure, Summary: "It is very large."},
}

func apply(t *testing.T, s State, events ...Event) (State, []Effect) {
	t.Helper()
	var effects []Effect
	for _, e := range events {
		s, effects = Transition(s, e)
	}
	return s, effects
}

func loaded(t *testing.T) State {
	t.Helper()
	s, effects := apply(t, Initial(), DigestRequested{Date: model.TodayKey})
	fetch := effects[len(effects)-1].(FetchDigest)
	s, _ = apply(t, s, DigestLoaded{Seq: fetch.Seq, Stories: testStories})
	return s
}

func playing(t *testing.T) State {
	t.Helper()
	s, _ := apply(t, loaded(t), TogglePlay{})
	return s
}

func TestLoadDigest(t *testing.T) {
	s, effects := Transition(Initial(), DigestRequested{Date: "March 4, 2025"})

	assert.Equal(t, s.Status, StatusLoading)
	assert.Equal(t, effects, []Effect{FetchDigest{Seq: 1, Date: "March 4, 2025"}})

	s, effects = Transition(s, DigestLoaded{Seq: 1, Stories: testStories})

	assert.Equal(t, s.Status, StatusPaused)
	assert.Equal(t, s.Index, 0)
	assert.Equal(t, len(s.Stories), 3)
	assert.Equal(t, len(effects), 0)
}

func TestLoadDigest_StaleResultIgnored(t *testing.T) {
	s, _ := apply(t, Initial(),
		DigestRequested{Date: "March 3, 2025"},
		DigestRequested{Date: "March 4, 2025"},
	)

	s, _ = Transition(s, DigestLoaded{Seq: 1, Stories: testStories})
	assert.Equal(t, s.Status, StatusLoading)

	s, _ = Transition(s, DigestFailed{Seq: 1, Err: errors.New("late failure")})
	assert.Equal(t, s.Status, StatusLoading)

	s, _ = Transition(s, DigestLoaded{Seq: 2, Stories: testStories})
	assert.Equal(t, s.Status, StatusPaused)
	assert.Equal(t, s.Date, "March 4, 2025")
}

func TestLoadDigest_FailureThenRetry(t *testing.T) {
	s, _ := apply(t, Initial(),
		DigestRequested{Date: "March 4, 2025"},
		DigestFailed{Seq: 1, Err: errors.New("Server error 404")},
	)

	assert.Equal(t, s.Status, StatusError)
	assert.Equal(t, s.Err, "Server error 404")

	s, effects := Transition(s, Retry{})

	assert.Equal(t, s.Status, StatusLoading)
	assert.Equal(t, s.Err, "")
	assert.Equal(t, effects, []Effect{FetchDigest{Seq: 2, Date: "March 4, 2025"}})
}

func TestLoadDigest_EmptyIsError(t *testing.T) {
	s, _ := apply(t, Initial(), DigestRequested{Date: "today"}, DigestLoaded{Seq: 1})

	assert.Equal(t, s.Status, StatusError)
	assert.Equal(t, s.Err, "No stories returned")
}

func TestRetry_OnlyFromError(t *testing.T) {
	s := loaded(t)

	next, effects := Transition(s, Retry{})

	assert.Equal(t, next.Status, StatusPaused)
	assert.Equal(t, len(effects), 0)
}

func TestPlay_SpeaksCurrentStory(t *testing.T) {
	s, effects := Transition(loaded(t), TogglePlay{})

	assert.Equal(t, s.Status, StatusPlaying)
	assert.Equal(t, effects, []Effect{Speak{Utterance: 1, Text: "Story 1. Lab ships new model. It is faster."}})
}

func TestPlay_AutoAdvancesAfterSettleDelay(t *testing.T) {
	s := playing(t)

	s, effects := Transition(s, SpeechEnded{Utterance: 1, Outcome: OutcomeCompleted})
	assert.Equal(t, effects, []Effect{ScheduleAdvance{Utterance: 1, Delay: SettleDelay}})
	assert.Equal(t, s.Index, 0)

	s, effects = Transition(s, AdvanceDue{Utterance: 1})
	assert.Equal(t, s.Index, 1)
	assert.Equal(t, effects, []Effect{Speak{Utterance: 2, Text: "Story 2. Draft AI rules published. Comments are open."}})
}

func TestPlay_DoneAfterLastStoryThenReplay(t *testing.T) {
	s := playing(t)
	for u := uint64(1); u <= 3; u++ {
		s, _ = apply(t, s, SpeechEnded{Utterance: u, Outcome: OutcomeCompleted}, AdvanceDue{Utterance: u})
	}

	assert.Equal(t, s.Status, StatusDone)
	assert.Equal(t, s.Index, 2)

	s, effects := Transition(s, TogglePlay{})
	assert.Equal(t, s.Status, StatusPlaying)
	assert.Equal(t, s.Index, 0)
	assert.Equal(t, effects, []Effect{Speak{Utterance: 4, Text: Narration(0, testStories[0])}})
}

func TestPauseAndResumeSpeech(t *testing.T) {
	s := playing(t)

	s, effects := Transition(s, TogglePlay{})
	assert.Equal(t, s.Status, StatusPaused)
	assert.Equal(t, s.SpeechPaused, true)
	assert.Equal(t, effects, []Effect{PauseSpeech{}})

	s, effects = Transition(s, TogglePlay{})
	assert.Equal(t, s.Status, StatusPlaying)
	assert.Equal(t, s.Utterance, uint64(1))
	assert.Equal(t, effects, []Effect{ResumeSpeech{}})
}

func TestPauseDuringSettleCancelsAdvance(t *testing.T) {
	s, _ := apply(t, playing(t), SpeechEnded{Utterance: 1, Outcome: OutcomeCompleted}, TogglePlay{})
	assert.Equal(t, s.Status, StatusPaused)

	s, effects := Transition(s, AdvanceDue{Utterance: 1})
	assert.Equal(t, s.Index, 0)
	assert.Equal(t, len(effects), 0)
}

func TestNavigation_SelfInducedCancelIsIgnored(t *testing.T) {
	s, effects := Transition(playing(t), Next{})

	assert.Equal(t, effects, []Effect{CancelSpeech{}, Speak{Utterance: 2, Text: Narration(1, testStories[1])}})
	assert.Equal(t, s.Index, 1)

	s, effects = Transition(s, SpeechEnded{Utterance: 1, Outcome: OutcomeCancelled})

	assert.Equal(t, s.Status, StatusPlaying)
	assert.Equal(t, s.Utterance, uint64(2))
	assert.Equal(t, s.Notice, "")
	assert.Equal(t, len(effects), 0)
}

func TestNavigation_GenuineFailurePauses(t *testing.T) {
	s, _ := Transition(playing(t), SpeechEnded{Utterance: 1, Outcome: OutcomeFailed})

	assert.Equal(t, s.Status, StatusPaused)
	assert.Equal(t, s.Notice, "Speech failed")
	assert.Equal(t, s.Utterance, uint64(0))
}

func TestNavigation_FromPausedStartsPlaying(t *testing.T) {
	s, effects := Transition(loaded(t), Jump{Index: 2})

	assert.Equal(t, s.Status, StatusPlaying)
	assert.Equal(t, s.Index, 2)
	assert.Equal(t, effects, []Effect{Speak{Utterance: 1, Text: Narration(2, testStories[2])}})
}

func TestNavigation_Bounds(t *testing.T) {
	s, _ := Transition(loaded(t), Prev{})
	assert.Equal(t, s.Index, 0)

	s, _ = apply(t, loaded(t), Jump{Index: 2}, Next{})
	assert.Equal(t, s.Index, 2)

	before := loaded(t)
	after, effects := Transition(before, Jump{Index: 9})
	assert.Equal(t, after.Status, StatusPaused)
	assert.Equal(t, len(effects), 0)
}

func TestNavigation_IgnoredWhileLoading(t *testing.T) {
	s, _ := Transition(Initial(), DigestRequested{Date: "today"})

	next, effects := Transition(s, Next{})

	assert.Equal(t, next.Status, StatusLoading)
	assert.Equal(t, len(effects), 0)
}

func TestAsk_WhilePlayingRereadsStoryAfterAnswer(t *testing.T) {
	s, effects := Transition(playing(t), QuestionAsked{Question: " Why now? "})

	assert.Equal(t, s.Status, StatusAnswering)
	assert.Equal(t, effects, []Effect{
		CancelSpeech{},
		Ask{ID: 1, Question: "Why now?", Headline: testStories[0].Headline, Summary: testStories[0].Summary, PriorQA: []model.QAItem{}},
	})

	s, _ = apply(t, s, AnswerChunk{ID: 1, Text: "Because "}, AnswerChunk{ID: 1, Text: "demand grew."})
	assert.Equal(t, s.Answer.Text, "Because demand grew.")

	s, effects = Transition(s, AnswerDone{ID: 1})
	assert.Equal(t, s.QA[0], []model.QAItem{{Q: "Why now?", A: "Because demand grew."}})
	assert.Equal(t, effects, []Effect{Speak{Utterance: 2, Text: "Because demand grew."}})

	// The narration cancelled by the question reports late.
	s, effects = Transition(s, SpeechEnded{Utterance: 1, Outcome: OutcomeCancelled})
	assert.Equal(t, s.Status, StatusAnswering)
	assert.Equal(t, len(effects), 0)

	s, effects = Transition(s, SpeechEnded{Utterance: 2, Outcome: OutcomeCompleted})
	assert.Equal(t, s.Status, StatusPlaying)
	assert.Equal(t, s.Answer == nil, true)
	assert.Equal(t, effects, []Effect{Speak{Utterance: 3, Text: Narration(0, testStories[0])}})
}

func TestAsk_WhilePausedStaysPaused(t *testing.T) {
	s, effects := Transition(loaded(t), QuestionAsked{Question: "Who built it?"})
	assert.Equal(t, len(effects), 1)

	s, _ = apply(t, s,
		AnswerChunk{ID: 1, Text: "A lab."},
		AnswerDone{ID: 1},
		SpeechEnded{Utterance: 1, Outcome: OutcomeCompleted},
	)

	assert.Equal(t, s.Status, StatusPaused)
	assert.Equal(t, len(s.QA[0]), 1)
}

func TestAsk_PriorQAIsSentBack(t *testing.T) {
	s, _ := apply(t, loaded(t),
		QuestionAsked{Question: "Who built it?"},
		AnswerChunk{ID: 1, Text: "A lab."},
		AnswerDone{ID: 1},
		SpeechEnded{Utterance: 1, Outcome: OutcomeCompleted},
	)

	_, effects := Transition(s, QuestionAsked{Question: "When?"})

	ask := effects[0].(Ask)
	assert.Equal(t, ask.ID, uint64(2))
	assert.Equal(t, ask.PriorQA, []model.QAItem{{Q: "Who built it?", A: "A lab."}})
}

func TestAsk_FailureAppendsFallbackAndPauses(t *testing.T) {
	s, _ := apply(t, playing(t),
		QuestionAsked{Question: "Why?"},
		AnswerChunk{ID: 1, Text: "Partial"},
		AnswerFailed{ID: 1, Err: errors.New("Server error 502")},
	)

	assert.Equal(t, s.Status, StatusPaused)
	assert.Equal(t, s.QA[0], []model.QAItem{{Q: "Why?", A: "Something went wrong. Try again."}})
	assert.Equal(t, s.ResumeAfterAnswer, false)
}

func TestAsk_IgnoredWhileAnsweringOrEmpty(t *testing.T) {
	s, _ := Transition(loaded(t), QuestionAsked{Question: "Why?"})

	next, effects := Transition(s, QuestionAsked{Question: "And?"})
	assert.Equal(t, next.Answer.Question, "Why?")
	assert.Equal(t, len(effects), 0)

	_, effects = Transition(loaded(t), QuestionAsked{Question: "   "})
	assert.Equal(t, len(effects), 0)
}

func TestAsk_NavigationAbandonsAnswer(t *testing.T) {
	s, _ := Transition(loaded(t), QuestionAsked{Question: "Why?"})

	s, effects := Transition(s, Next{})
	assert.Equal(t, effects, []Effect{CancelAsk{}, Speak{Utterance: 1, Text: Narration(1, testStories[1])}})

	s, _ = apply(t, s, AnswerChunk{ID: 1, Text: "late"}, AnswerDone{ID: 1})
	assert.Equal(t, s.Status, StatusPlaying)
	assert.Equal(t, len(s.QA[0]), 0)
}

func TestDateChangeStopsEverything(t *testing.T) {
	s, _ := apply(t, playing(t),
		QuestionAsked{Question: "Why?"},
		AnswerChunk{ID: 1, Text: "x"},
	)

	s, effects := Transition(s, DigestRequested{Date: "March 1, 2025"})

	assert.Equal(t, effects, []Effect{CancelAsk{}, FetchDigest{Seq: 2, Date: "March 1, 2025"}})
	assert.Equal(t, s.Status, StatusLoading)
	assert.Equal(t, s.Stories == nil, true)
	assert.Equal(t, s.QA == nil, true)
}

func TestTransitionDoesNotMutateInput(t *testing.T) {
	s, _ := apply(t, loaded(t),
		QuestionAsked{Question: "Who?"},
		AnswerChunk{ID: 1, Text: "A lab."},
		AnswerDone{ID: 1},
		SpeechEnded{Utterance: 1, Outcome: OutcomeCompleted},
	)
	before := s

	s2, _ := apply(t, s, QuestionAsked{Question: "When?"}, AnswerChunk{ID: 2, Text: "Today."}, AnswerDone{ID: 2})

	assert.Equal(t, len(before.QA[0]), 1)
	assert.Equal(t, len(s2.QA[0]), 2)
}
