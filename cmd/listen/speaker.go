//go:build unix

package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"syscall"

	"aidigest/internal/playback"
)

// baseWordsPerMinute is the default speaking rate of espeak and say.
const baseWordsPerMinute = 175

func newSpeaker(command string, rate float64) (playback.Speaker, error) {
	if command == "" {
		return playback.NewTextSpeaker(os.Stdout, rate), nil
	}
	path, err := exec.LookPath(command)
	if err != nil {
		return nil, fmt.Errorf("speech command %q not found: %w", command, err)
	}
	return &CommandSpeaker{path: path, name: command, wpm: int(baseWordsPerMinute * rate)}, nil
}

// CommandSpeaker speaks through an external text-to-speech program,
// pausing it with SIGSTOP and SIGCONT.
type CommandSpeaker struct {
	path string
	name string
	wpm  int

	mu      sync.Mutex
	proc    *os.Process
	stopped bool
}

func (s *CommandSpeaker) args(text string) []string {
	rate := strconv.Itoa(s.wpm)
	if s.name == "say" {
		return []string{"-r", rate, text}
	}
	return []string{"-s", rate, text}
}

func (s *CommandSpeaker) Speak(ctx context.Context, text string) playback.Outcome {
	cmd := exec.CommandContext(ctx, s.path, s.args(text)...)
	if err := cmd.Start(); err != nil {
		return playback.OutcomeFailed
	}

	s.mu.Lock()
	s.proc = cmd.Process
	if s.stopped {
		cmd.Process.Signal(syscall.SIGSTOP)
	}
	s.mu.Unlock()

	err := cmd.Wait()

	s.mu.Lock()
	if s.proc == cmd.Process {
		s.proc = nil
	}
	s.mu.Unlock()

	switch {
	case ctx.Err() != nil:
		return playback.OutcomeCancelled
	case err != nil:
		return playback.OutcomeFailed
	}
	return playback.OutcomeCompleted
}

func (s *CommandSpeaker) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.proc != nil {
		s.proc.Signal(syscall.SIGSTOP)
	}
}

func (s *CommandSpeaker) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = false
	if s.proc != nil {
		s.proc.Signal(syscall.SIGCONT)
	}
}
