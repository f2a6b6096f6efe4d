package storage

import (
	"browser_agent/domain/entities"
	"browser_agent/domain/interfaces"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type transcriptFile struct {
	path string
}

// NewTranscriptFile - stores transcripts at path, as JSON for .json and YAML otherwise
func NewTranscriptFile(path string) interfaces.TranscriptStore {
	return &transcriptFile{path: path}
}

// SaveTranscript - writes the transcript, replacing any previous file
func (s *transcriptFile) SaveTranscript(transcript entities.Transcript) error {
	data, err := encode(s.path, transcript)
	if err != nil {
		return fmt.Errorf("failed to encode transcript: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create transcript directory: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	return nil
}

func encode(path string, transcript entities.Transcript) ([]byte, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return json.MarshalIndent(transcript, "", "  ")
	}
	return yaml.Marshal(transcript)
}
