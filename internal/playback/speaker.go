package playback

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const baseWordsPerMinute = 170

// TextSpeaker "reads" by printing one word at a time at speaking pace.
type TextSpeaker struct {
	out     io.Writer
	perWord time.Duration

	mu      sync.Mutex
	paused  bool
	resumed chan struct{}
}

func NewTextSpeaker(out io.Writer, rate float64) *TextSpeaker {
	if rate <= 0 {
		rate = SpeechRate
	}
	perWord := time.Duration(float64(time.Minute) / (baseWordsPerMinute * rate))
	return NewPacedTextSpeaker(out, perWord)
}

func NewPacedTextSpeaker(out io.Writer, perWord time.Duration) *TextSpeaker {
	return &TextSpeaker{out: out, perWord: perWord}
}

func (s *TextSpeaker) Speak(ctx context.Context, text string) Outcome {
	words := strings.Fields(text)
	for i, w := range words {
		if err := s.waitWhilePaused(ctx); err != nil {
			fmt.Fprintln(s.out)
			return OutcomeCancelled
		}

		sep := " "
		if i == len(words)-1 {
			sep = "\n"
		}
		if _, err := fmt.Fprint(s.out, w+sep); err != nil {
			return OutcomeFailed
		}

		select {
		case <-ctx.Done():
			fmt.Fprintln(s.out)
			return OutcomeCancelled
		case <-time.After(s.perWord):
		}
	}
	return OutcomeCompleted
}

func (s *TextSpeaker) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.paused {
		s.paused = true
		s.resumed = make(chan struct{})
	}
}

func (s *TextSpeaker) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused {
		s.paused = false
		close(s.resumed)
	}
}

func (s *TextSpeaker) waitWhilePaused(ctx context.Context) error {
	s.mu.Lock()
	paused, resumed := s.paused, s.resumed
	s.mu.Unlock()

	if !paused {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-resumed:
		return ctx.Err()
	}
}
