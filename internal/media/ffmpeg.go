// SPDX-License-Identifier: MIT

package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Transcoder converts a staged container/codec into the WAV format the
// recognition service expects.
type Transcoder interface {
	Transcode(ctx context.Context, src, dst string) error
}

// FFmpeg shells out to an ffmpeg binary for transcoding.
type FFmpeg struct {
	Bin string
}

// NewFFmpeg returns an ffmpeg-backed transcoder. An empty path falls back
// to "ffmpeg" on PATH.
func NewFFmpeg(bin string) FFmpeg {
	if bin == "" {
		bin = "ffmpeg"
	}
	return FFmpeg{Bin: bin}
}

// Transcode converts src to 16 kHz mono WAV at dst, overwriting dst.
func (f FFmpeg) Transcode(ctx context.Context, src, dst string) error {
	cmd := exec.CommandContext(ctx, f.Bin,
		"-y",
		"-i", src,
		"-ar", "16000",
		"-ac", "1",
		"-f", "wav",
		dst,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, lastLine(stderr.String()))
	}
	return nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
