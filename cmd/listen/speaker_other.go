//go:build !unix

package main

import (
	"errors"
	"os"

	"aidigest/internal/playback"
)

func newSpeaker(command string, rate float64) (playback.Speaker, error) {
	if command == "" {
		return playback.NewTextSpeaker(os.Stdout, rate), nil
	}
	return nil, errors.New("--tts is only supported on unix systems")
}
