package domain

import (
	"time"
)

// RunStatus represents the outcome of a simulation run.
type RunStatus string

const (
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusCancelled RunStatus = "CANCELLED"
	RunStatusFailed    RunStatus = "FAILED"
)

// Run is the persisted record of one scheduler simulation.
type Run struct {
	ID     string    `json:"id"`
	Status RunStatus `json:"status"`
	Error  string    `json:"error,omitempty"`

	Config RunConfig `json:"config"`

	ProcessCount int           `json:"process_count"`
	Finished     int           `json:"finished"`
	Ticks        int64         `json:"ticks"`
	Boosts       int64         `json:"boosts"`
	Elapsed      time.Duration `json:"elapsed"`

	// Interrupts counts raised interrupts keyed by kind name.
	Interrupts  map[string]int64 `json:"interrupts"`
	Completions []Completion     `json:"completions"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// RunConfig captures the scheduler parameters a run was executed with.
type RunConfig struct {
	PriorityLevels   int           `json:"priority_levels"`
	BaseQuantum      time.Duration `json:"base_quantum"`
	QuantumIncrement time.Duration `json:"quantum_increment"`
	BlockingQuantum  time.Duration `json:"blocking_quantum"`
	GlobalQuantum    time.Duration `json:"global_quantum"`
	Clock            string        `json:"clock"`
}

// Completion records when a process left the system.
type Completion struct {
	ProcessID   string        `json:"process_id"`
	ProcessName string        `json:"process_name,omitempty"`
	Elapsed     time.Duration `json:"elapsed"`
}

// AverageTurnaround returns the mean completion time across finished processes.
func (r *Run) AverageTurnaround() time.Duration {
	if len(r.Completions) == 0 {
		return 0
	}
	var total time.Duration
	for _, c := range r.Completions {
		total += c.Elapsed
	}
	return total / time.Duration(len(r.Completions))
}
