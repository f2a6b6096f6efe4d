package interfaces

import "browser_agent/domain/entities"

// TranscriptStore represents where finished runs are exported
type TranscriptStore interface {
	// SaveTranscript writes the transcript of a finished run
	SaveTranscript(transcript entities.Transcript) error
}
