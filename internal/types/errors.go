package types

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound      = errors.New("file not found")
	ErrExtraction    = errors.New("audio extraction failed")
	ErrTranscription = errors.New("transcription failed")
)

// NotFoundError reports a missing input file.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("file not found: %s", e.Path)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ExtractionError reports a failed demux process. Output holds its diagnostics.
type ExtractionError struct {
	Source string
	Output string
	Err    error
}

func (e *ExtractionError) Error() string {
	msg := fmt.Sprintf("extract audio from %s: %v", e.Source, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func (e *ExtractionError) Is(target error) bool { return target == ErrExtraction }

// TranscriptionError reports a model failure.
type TranscriptionError struct {
	Model string
	Err   error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcribe (model=%s): %v", e.Model, e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

func (e *TranscriptionError) Is(target error) bool { return target == ErrTranscription }

// IsFatal reports whether err is one of the run-aborting kinds.
func IsFatal(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrExtraction) || errors.Is(err, ErrTranscription)
}
