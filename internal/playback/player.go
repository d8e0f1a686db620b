package playback

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"aidigest/internal/model"
)

// Speaker reads text aloud. Speak blocks until the utterance ends and
// reports how it ended; cancelling ctx must stop it promptly.
type Speaker interface {
	Speak(ctx context.Context, text string) Outcome
	Pause()
	Resume()
}

type API interface {
	Digest(ctx context.Context, date string) ([]model.Story, error)
	Ask(ctx context.Context, question, headline, summary string, prior []model.QAItem, onChunk func(string) error) error
}

// Player owns the State and runs effects. Every event, including the
// completions of its own goroutines, is applied on the Run loop.
type Player struct {
	api     API
	speaker Speaker

	events chan Event
	done   chan struct{}

	mu       sync.Mutex
	state    State
	watchers []func(State)

	cancelSpeech context.CancelFunc
	cancelAsk    context.CancelFunc
	advance      *time.Timer
}

func NewPlayer(api API, speaker Speaker) *Player {
	return &Player{
		api:     api,
		speaker: speaker,
		events:  make(chan Event, 64),
		done:    make(chan struct{}),
		state:   Initial(),
	}
}

// OnChange registers fn to receive every new state. It must be called
// before Run.
func (p *Player) OnChange(fn func(State)) {
	p.watchers = append(p.watchers, fn)
}

func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Send queues e. It is safe from any goroutine and never blocks once Run
// has returned.
func (p *Player) Send(e Event) {
	select {
	case p.events <- e:
	case <-p.done:
	}
}

func (p *Player) Run(ctx context.Context) error {
	defer p.shutdown()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e := <-p.events:
			p.mu.Lock()
			next, effects := Transition(p.state, e)
			p.state = next
			p.mu.Unlock()

			for _, fn := range p.watchers {
				fn(next)
			}
			for _, eff := range effects {
				p.execute(ctx, eff)
			}
		}
	}
}

func (p *Player) execute(ctx context.Context, eff Effect) {
	switch eff := eff.(type) {
	case Speak:
		p.stopSpeech()
		p.speaker.Resume()
		sctx, cancel := context.WithCancel(ctx)
		p.cancelSpeech = cancel
		go func() {
			outcome := p.speaker.Speak(sctx, eff.Text)
			if sctx.Err() != nil && outcome == OutcomeCompleted {
				outcome = OutcomeCancelled
			}
			p.Send(SpeechEnded{Utterance: eff.Utterance, Outcome: outcome})
		}()

	case CancelSpeech:
		p.stopSpeech()
		p.speaker.Resume()

	case PauseSpeech:
		p.speaker.Pause()

	case ResumeSpeech:
		p.speaker.Resume()

	case FetchDigest:
		go func() {
			stories, err := p.api.Digest(ctx, eff.Date)
			if err != nil {
				p.Send(DigestFailed{Seq: eff.Seq, Err: err})
				return
			}
			p.Send(DigestLoaded{Seq: eff.Seq, Stories: stories})
		}()

	case ScheduleAdvance:
		if p.advance != nil {
			p.advance.Stop()
		}
		p.advance = time.AfterFunc(eff.Delay, func() {
			p.Send(AdvanceDue{Utterance: eff.Utterance})
		})

	case Ask:
		p.stopAsk()
		actx, cancel := context.WithCancel(ctx)
		p.cancelAsk = cancel
		go func() {
			err := p.api.Ask(actx, eff.Question, eff.Headline, eff.Summary, eff.PriorQA, func(chunk string) error {
				p.Send(AnswerChunk{ID: eff.ID, Text: chunk})
				return nil
			})
			if errors.Is(err, context.Canceled) && actx.Err() != nil {
				return
			}
			if err != nil {
				slog.Warn("ask failed", "error", err)
				p.Send(AnswerFailed{ID: eff.ID, Err: err})
				return
			}
			p.Send(AnswerDone{ID: eff.ID})
		}()

	case CancelAsk:
		p.stopAsk()
	}
}

// stopSpeech cancels the current utterance. Callers that start or abandon
// speech also Resume the speaker so the next utterance starts unpaused.
func (p *Player) stopSpeech() {
	if p.cancelSpeech != nil {
		p.cancelSpeech()
		p.cancelSpeech = nil
	}
}

func (p *Player) stopAsk() {
	if p.cancelAsk != nil {
		p.cancelAsk()
		p.cancelAsk = nil
	}
}

func (p *Player) shutdown() {
	close(p.done)
	p.stopSpeech()
	p.stopAsk()
	if p.advance != nil {
		p.advance.Stop()
	}
}
