package entities

import "time"

// State represents the control loop's position in a cycle
type State string

const (
	StateObserving State = "observing"
	StateDeciding  State = "deciding"
	StateActing    State = "acting"
	StateDone      State = "done"
)

// Transcript records one run's conversation for export after it ends.
// It is never read back.
type Transcript struct {
	RunID      string    `json:"run_id" yaml:"run_id"`
	Goal       string    `json:"goal" yaml:"goal"`
	Answer     string    `json:"answer,omitempty" yaml:"answer,omitempty"`
	Error      string    `json:"error,omitempty" yaml:"error,omitempty"`
	Cycles     int       `json:"cycles" yaml:"cycles"`
	Messages   []Message `json:"messages" yaml:"messages"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
}
