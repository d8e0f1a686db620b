package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"aidigest/internal/playback"

	"github.com/fatih/color"
)

// parseCommand turns one line of input into a player event. done reports
// a request to quit.
func parseCommand(line string) (playback.Event, bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return playback.TogglePlay{}, false, nil
	}

	if rest, ok := strings.CutPrefix(line, "?"); ok {
		q := strings.TrimSpace(rest)
		if q == "" {
			return nil, false, errors.New("type a question after ?")
		}
		return playback.QuestionAsked{Question: q}, false, nil
	}

	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "p", "play", "pause":
		return playback.TogglePlay{}, false, nil
	case "n", "next":
		return playback.Next{}, false, nil
	case "b", "back", "prev":
		return playback.Prev{}, false, nil
	case "j", "jump":
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			return nil, false, fmt.Errorf("jump needs a story number, got %q", arg)
		}
		return playback.Jump{Index: n - 1}, false, nil
	case "d", "date":
		if arg == "" {
			return nil, false, errors.New("date needs a value such as \"March 3, 2025\" or today")
		}
		return playback.DigestRequested{Date: arg}, false, nil
	case "r", "retry":
		return playback.Retry{}, false, nil
	case "q", "quit", "exit":
		return nil, true, nil
	}
	return nil, false, fmt.Errorf("unknown command %q", name)
}

type console struct {
	mu  sync.Mutex
	out io.Writer

	last     playback.State
	rendered bool

	header  *color.Color
	tag     *color.Color
	answer  *color.Color
	notice  *color.Color
	failure *color.Color
}

func newConsole(out io.Writer, useColors bool) *console {
	c := &console{
		out:     out,
		header:  color.New(color.FgCyan, color.Bold),
		tag:     color.New(color.FgMagenta),
		answer:  color.New(color.FgGreen),
		notice:  color.New(color.FgYellow),
		failure: color.New(color.FgRed, color.Bold),
	}
	if !useColors {
		for _, col := range []*color.Color{c.header, c.tag, c.answer, c.notice, c.failure} {
			col.DisableColor()
		}
	}
	return c
}

// Render prints what changed between the previous state and s.
func (c *console) Render(s playback.State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.last
	c.last = s
	first := !c.rendered
	c.rendered = true

	if s.Status != prev.Status || first {
		switch s.Status {
		case playback.StatusLoading:
			c.notice.Fprintf(c.out, "Loading digest for %s...\n", s.Date)
		case playback.StatusError:
			c.failure.Fprintf(c.out, "Error: %s\n", s.Err)
			fmt.Fprintln(c.out, "  r to retry, d DATE to load another day")
		case playback.StatusDone:
			c.notice.Fprintln(c.out, "End of digest.")
		case playback.StatusPaused:
			if prev.Status == playback.StatusLoading {
				fmt.Fprintf(c.out, "%d stories for %s. Press enter to play.\n", len(s.Stories), s.Date)
			}
		}
	}

	if story, ok := s.Current(); ok && (s.Index != prev.Index || len(prev.Stories) == 0 || s.Date != prev.Date) {
		c.header.Fprintf(c.out, "\n[%d/%d] %s ", s.Index+1, len(s.Stories), story.Headline)
		c.tag.Fprintf(c.out, "(%s)\n", story.Tag)
		if story.URL != "" {
			fmt.Fprintf(c.out, "  %s\n", story.URL)
		}
	}

	if s.Answer != nil {
		var printed string
		if prev.Answer != nil && prev.Answer.ID == s.Answer.ID {
			printed = prev.Answer.Text
		} else {
			c.answer.Fprintf(c.out, "Q: %s\nA: ", s.Answer.Question)
		}
		if strings.HasPrefix(s.Answer.Text, printed) {
			c.answer.Fprint(c.out, s.Answer.Text[len(printed):])
		}
		if s.Answer.Speaking && (prev.Answer == nil || !prev.Answer.Speaking) {
			fmt.Fprintln(c.out)
		}
	}

	if s.Notice != "" && s.Notice != prev.Notice {
		c.notice.Fprintln(c.out, s.Notice)
	}
}

func (c *console) Warn(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notice.Fprintln(c.out, msg)
}
