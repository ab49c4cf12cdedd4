package main

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/tutorvoice/tutorvoice/pkg/core/voice"
)

// newFFPlayPlayer returns a PlayerFunc that pipes audio through ffplay.
func newFFPlayPlayer() (voice.PlayerFunc, error) {
	path, err := exec.LookPath("ffplay")
	if err != nil {
		return nil, fmt.Errorf("ffplay not found in PATH: %w", err)
	}

	return func(ctx context.Context, audio []byte, format string) error {
		args := []string{"-autoexit", "-nodisp", "-loglevel", "quiet"}
		// Raw PCM has no container, so ffplay needs the layout spelled out.
		if format == "raw" || format == "pcm" {
			args = append(args, "-f", "s16le", "-ar", "24000", "-ch_layout", "mono")
		}
		args = append(args, "-")

		cmd := exec.CommandContext(ctx, path, args...)
		cmd.Stdin = bytes.NewReader(audio)
		if err := cmd.Run(); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("ffplay: %w", err)
		}
		return nil
	}, nil
}
