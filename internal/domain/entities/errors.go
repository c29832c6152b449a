package entities

import "errors"

// Domain sentinel errors shared across layers.
var (
	// ErrDoctorNotFound is returned by the doctor directory when an
	// identifier does not resolve to a registered doctor.
	ErrDoctorNotFound = errors.New("doctor not found")

	// ErrEmptyTranscription marks a transcription attempt that produced no
	// text. It is transient within the transcribing stage until retries are
	// exhausted.
	ErrEmptyTranscription = errors.New("transcription returned no text")
)
