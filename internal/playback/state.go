package playback

import (
	"fmt"
	"strings"
	"time"

	"aidigest/internal/model"
)

const (
	// SettleDelay separates the end of one story from the start of the next.
	SettleDelay = 700 * time.Millisecond
	SpeechRate  = 1.28

	answerFailedText = "Something went wrong. Try again."
)

type Status int

const (
	StatusLoading Status = iota
	StatusPaused
	StatusPlaying
	StatusAnswering
	StatusDone
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusPaused:
		return "paused"
	case StatusPlaying:
		return "playing"
	case StatusAnswering:
		return "answering"
	case StatusDone:
		return "done"
	case StatusError:
		return "error"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeCancelled
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeFailed:
		return "failed"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Answer is a follow-up question in flight for one story.
type Answer struct {
	ID       uint64
	Index    int
	Question string
	Text     string
	// Speaking is set once the stream finished and the answer is being read.
	Speaking bool
}

// State is the whole client view. Transition never mutates its input.
type State struct {
	Status  Status
	Date    string
	Stories []model.Story
	Index   int
	QA      map[int][]model.QAItem
	Answer  *Answer
	Err     string
	Notice  string

	// Utterance is the id of the speech that may still report back; any
	// other id is stale.
	Utterance    uint64
	SpeechPaused bool
	// Advance is the utterance whose settle timer is pending.
	Advance uint64
	// ResumeAfterAnswer records whether narration was running when the
	// question was asked.
	ResumeAfterAnswer bool

	seq       uint64
	lastSpeak uint64
	lastAsk   uint64
}

// Initial is the state before the first digest request.
func Initial() State {
	return State{Status: StatusLoading, Date: model.TodayKey}
}

func (s State) Current() (model.Story, bool) {
	if s.Index < 0 || s.Index >= len(s.Stories) {
		return model.Story{}, false
	}
	return s.Stories[s.Index], true
}

// Narration is the spoken form of story i.
func Narration(i int, story model.Story) string {
	return fmt.Sprintf("Story %d. %s. %s", i+1, story.Headline, story.Summary)
}

type Event interface{ isEvent() }

type DigestRequested struct{ Date string }

type DigestLoaded struct {
	Seq     uint64
	Stories []model.Story
}

type DigestFailed struct {
	Seq uint64
	Err error
}

type TogglePlay struct{}

type Next struct{}

type Prev struct{}

type Jump struct{ Index int }

// SpeechEnded reports how an utterance finished. Ids other than the
// current one belong to speech that was replaced on purpose.
type SpeechEnded struct {
	Utterance uint64
	Outcome   Outcome
}

type AdvanceDue struct{ Utterance uint64 }

type QuestionAsked struct{ Question string }

type AnswerChunk struct {
	ID   uint64
	Text string
}

type AnswerDone struct{ ID uint64 }

type AnswerFailed struct {
	ID  uint64
	Err error
}

type Retry struct{}

func (DigestRequested) isEvent() {}
func (DigestLoaded) isEvent() {}
func (DigestFailed) isEvent() {}
func (TogglePlay) isEvent() {}
func (Next) isEvent() {}
func (Prev) isEvent() {}
func (Jump) isEvent() {}
func (SpeechEnded) isEvent() {}
func (AdvanceDue) isEvent() {}
func (QuestionAsked) isEvent() {}
func (AnswerChunk) isEvent() {}
func (AnswerDone) isEvent() {}
func (AnswerFailed) isEvent() {}
func (Retry) isEvent() {}

type Effect interface{ isEffect() }

type Speak struct {
	Utterance uint64
	Text      string
}

type CancelSpeech struct{}

type PauseSpeech struct{}

type ResumeSpeech struct{}

type FetchDigest struct {
	Seq  uint64
	Date string
}

type ScheduleAdvance struct {
	Utterance uint64
	Delay     time.Duration
}

type Ask struct {
	ID       uint64
	Question string
	Headline string
	Summary  string
	PriorQA  []model.QAItem
}

type CancelAsk struct{}

func (Speak) isEffect() {}
func (CancelSpeech) isEffect() {}
func (PauseSpeech) isEffect() {}
func (ResumeSpeech) isEffect() {}
func (FetchDigest) isEffect() {}
func (ScheduleAdvance) isEffect() {}
func (Ask) isEffect() {}
func (CancelAsk) isEffect() {}

// Transition applies e to s and returns the next state with the side
// effects the caller must run, in order.
func Transition(s State, e Event) (State, []Effect) {
	switch e := e.(type) {
	case DigestRequested:
		return requestDigest(s, e.Date)
	case Retry:
		if s.Status != StatusError {
			return s, nil
		}
		return requestDigest(s, s.Date)
	case DigestLoaded:
		return digestLoaded(s, e)
	case DigestFailed:
		if e.Seq != s.seq || s.Status != StatusLoading {
			return s, nil
		}
		s.Status = StatusError
		s.Err = errorText(e.Err, "Connection failed")
		return s, nil
	case TogglePlay:
		return togglePlay(s)
	case Next:
		return navigate(s, s.Index+1)
	case Prev:
		return navigate(s, s.Index-1)
	case Jump:
		if e.Index < 0 || e.Index >= len(s.Stories) {
			return s, nil
		}
		return navigate(s, e.Index)
	case SpeechEnded:
		return speechEnded(s, e)
	case AdvanceDue:
		return advance(s, e)
	case QuestionAsked:
		return askQuestion(s, e.Question)
	case AnswerChunk:
		if s.Answer == nil || s.Answer.ID != e.ID || s.Answer.Speaking {
			return s, nil
		}
		a := *s.Answer
		a.Text += e.Text
		s.Answer = &a
		return s, nil
	case AnswerDone:
		return answerDone(s, e)
	case AnswerFailed:
		if s.Answer == nil || s.Answer.ID != e.ID || s.Answer.Speaking {
			return s, nil
		}
		s.QA = appendQA(s.QA, s.Answer.Index, model.QAItem{Q: s.Answer.Question, A: answerFailedText})
		s.Answer = nil
		s.Status = StatusPaused
		s.ResumeAfterAnswer = false
		s.Notice = errorText(e.Err, "")
		return s, nil
	}
	return s, nil
}

func requestDigest(s State, date string) (State, []Effect) {
	effects := stopAll(&s)

	s.seq++
	s.Status = StatusLoading
	s.Date = date
	s.Stories = nil
	s.Index = 0
	s.QA = nil
	s.Err = ""
	s.Notice = ""

	return s, append(effects, FetchDigest{Seq: s.seq, Date: date})
}

func digestLoaded(s State, e DigestLoaded) (State, []Effect) {
	if e.Seq != s.seq || s.Status != StatusLoading {
		return s, nil
	}
	if len(e.Stories) == 0 {
		s.Status = StatusError
		s.Err = "No stories returned"
		return s, nil
	}
	s.Status = StatusPaused
	s.Stories = e.Stories
	s.Index = 0
	s.QA = map[int][]model.QAItem{}
	return s, nil
}

func togglePlay(s State) (State, []Effect) {
	switch s.Status {
	case StatusPlaying:
		s.Status = StatusPaused
		s.Advance = 0
		if s.Utterance != 0 && !s.SpeechPaused {
			s.SpeechPaused = true
			return s, []Effect{PauseSpeech{}}
		}
		return s, nil
	case StatusPaused:
		s.Status = StatusPlaying
		s.Notice = ""
		if s.Utterance != 0 && s.SpeechPaused {
			s.SpeechPaused = false
			return s, []Effect{ResumeSpeech{}}
		}
		return speakStory(s, nil)
	case StatusDone:
		s.Index = 0
		s.Status = StatusPlaying
		return speakStory(s, nil)
	}
	return s, nil
}

// navigate restarts narration at target, clamped to the story list. Any
// speech or answer in flight is abandoned.
func navigate(s State, target int) (State, []Effect) {
	if len(s.Stories) == 0 || s.Status == StatusLoading || s.Status == StatusError {
		return s, nil
	}
	target = max(0, min(len(s.Stories)-1, target))

	effects := stopAll(&s)
	s.Index = target
	s.Status = StatusPlaying
	s.Notice = ""
	return speakStory(s, effects)
}

func speechEnded(s State, e SpeechEnded) (State, []Effect) {
	if e.Utterance == 0 || e.Utterance != s.Utterance {
		return s, nil
	}
	s.Utterance = 0
	s.SpeechPaused = false

	if e.Outcome != OutcomeCompleted {
		if e.Outcome == OutcomeFailed {
			s.Notice = "Speech failed"
		}
		s.Advance = 0
		if s.Status == StatusAnswering {
			s.Answer = nil
			s.ResumeAfterAnswer = false
		}
		if s.Status == StatusPlaying || s.Status == StatusAnswering {
			s.Status = StatusPaused
		}
		return s, nil
	}

	switch s.Status {
	case StatusPlaying:
		s.Advance = e.Utterance
		return s, []Effect{ScheduleAdvance{Utterance: e.Utterance, Delay: SettleDelay}}
	case StatusAnswering:
		return finishAnswer(s)
	}
	return s, nil
}

func advance(s State, e AdvanceDue) (State, []Effect) {
	if s.Status != StatusPlaying || e.Utterance == 0 || e.Utterance != s.Advance {
		return s, nil
	}
	s.Advance = 0

	if s.Index+1 >= len(s.Stories) {
		s.Status = StatusDone
		return s, nil
	}
	s.Index++
	return speakStory(s, nil)
}

func askQuestion(s State, question string) (State, []Effect) {
	question = strings.TrimSpace(question)
	story, ok := s.Current()
	if question == "" || !ok {
		return s, nil
	}
	switch s.Status {
	case StatusPaused, StatusPlaying, StatusDone:
	default:
		return s, nil
	}

	s.ResumeAfterAnswer = s.Status == StatusPlaying
	effects := stopSpeech(&s)

	s.lastAsk++
	s.Status = StatusAnswering
	s.Notice = ""
	s.Answer = &Answer{ID: s.lastAsk, Index: s.Index, Question: question}

	prior := make([]model.QAItem, len(s.QA[s.Index]))
	copy(prior, s.QA[s.Index])
	return s, append(effects, Ask{
		ID:       s.lastAsk,
		Question: question,
		Headline: story.Headline,
		Summary:  story.Summary,
		PriorQA:  prior,
	})
}

func answerDone(s State, e AnswerDone) (State, []Effect) {
	if s.Answer == nil || s.Answer.ID != e.ID || s.Answer.Speaking {
		return s, nil
	}
	a := *s.Answer
	s.QA = appendQA(s.QA, a.Index, model.QAItem{Q: a.Question, A: a.Text})

	if strings.TrimSpace(a.Text) == "" {
		return finishAnswer(s)
	}

	a.Speaking = true
	s.Answer = &a
	s.lastSpeak++
	s.Utterance = s.lastSpeak
	s.SpeechPaused = false
	return s, []Effect{Speak{Utterance: s.Utterance, Text: a.Text}}
}

// finishAnswer leaves answering: narration re-reads the current story if it
// was running, otherwise playback waits paused.
func finishAnswer(s State) (State, []Effect) {
	s.Answer = nil
	if s.ResumeAfterAnswer {
		s.ResumeAfterAnswer = false
		s.Status = StatusPlaying
		return speakStory(s, nil)
	}
	s.Status = StatusPaused
	return s, nil
}

func speakStory(s State, effects []Effect) (State, []Effect) {
	story, ok := s.Current()
	if !ok {
		return s, effects
	}
	s.lastSpeak++
	s.Utterance = s.lastSpeak
	s.SpeechPaused = false
	s.Advance = 0
	return s, append(effects, Speak{Utterance: s.Utterance, Text: Narration(s.Index, story)})
}

func stopSpeech(s *State) []Effect {
	s.Advance = 0
	if s.Utterance == 0 {
		return nil
	}
	s.Utterance = 0
	s.SpeechPaused = false
	return []Effect{CancelSpeech{}}
}

func stopAll(s *State) []Effect {
	effects := stopSpeech(s)
	if s.Answer != nil {
		s.Answer = nil
		s.ResumeAfterAnswer = false
		effects = append(effects, CancelAsk{})
	}
	return effects
}

func appendQA(qa map[int][]model.QAItem, index int, item model.QAItem) map[int][]model.QAItem {
	out := make(map[int][]model.QAItem, len(qa)+1)
	for k, v := range qa {
		out[k] = v
	}
	out[index] = append(append([]model.QAItem(nil), qa[index]...), item)
	return out
}

func errorText(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	return err.Error()
}
