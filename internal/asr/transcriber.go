// Package asr turns recorded audio into clean instruction text: whisper
// transcription, punctuation repair, and a transcript history store.
package asr

import (
	"context"
	"log"
	"strings"

	iexec "github.com/harkvoice/hark/internal/exec"
)

// Transcriber converts a WAV file to text.
type Transcriber interface {
	Transcribe(ctx context.Context, wavPath string) string
}

// WhisperTranscriber shells out to whisper-cli for transcription.
type WhisperTranscriber struct {
	runner    iexec.CommandRunner
	binary    string
	modelPath string
}

// NewWhisperTranscriber creates a transcriber. binary defaults to
// "whisper-cli" when empty.
func NewWhisperTranscriber(runner iexec.CommandRunner, binary, modelPath string) *WhisperTranscriber {
	if binary == "" {
		binary = "whisper-cli"
	}
	return &WhisperTranscriber{runner: runner, binary: binary, modelPath: modelPath}
}

// Transcribe runs whisper-cli against the WAV file and returns the plain
// text output. Any failure yields empty text: a transcript that cannot be
// produced means there is nothing to do.
func (t *WhisperTranscriber) Transcribe(ctx context.Context, wavPath string) string {
	args := []string{"-np", "-nt"}
	if t.modelPath != "" {
		args = append(args, "-m", t.modelPath)
	}
	args = append(args, "-f", wavPath)

	out, err := t.runner.Run(ctx, "", t.binary, args...)
	if err != nil {
		log.Printf("[asr] transcription failed: %v", err)
		return ""
	}
	return strings.TrimSpace(string(out))
}

var _ Transcriber = (*WhisperTranscriber)(nil)
