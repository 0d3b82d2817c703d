package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Process is a simulated unit of work with one CPU burst followed by an
// optional blocking (I/O) burst.
type Process struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	CPUBurst time.Duration `json:"cpu_burst"`
	IOBurst  time.Duration `json:"io_burst"`

	RemainingCPU time.Duration `json:"remaining_cpu"`
	RemainingIO  time.Duration `json:"remaining_io"`

	CreatedAt time.Time `json:"created_at"`
}

// NewProcess creates a process with both bursts still outstanding.
func NewProcess(name string, cpuBurst, ioBurst time.Duration) (*Process, error) {
	if cpuBurst < 0 || ioBurst < 0 {
		return nil, fmt.Errorf("%w: bursts must not be negative (cpu=%s, io=%s)", ErrInvalidArgument, cpuBurst, ioBurst)
	}

	id := uuid.New().String()
	if name == "" {
		name = "proc-" + id[:8]
	}

	return &Process{
		ID:           id,
		Name:         name,
		CPUBurst:     cpuBurst,
		IOBurst:      ioBurst,
		RemainingCPU: cpuBurst,
		RemainingIO:  ioBurst,
		CreatedAt:    time.Now(),
	}, nil
}

// ProcessID returns the process identifier.
func (p *Process) ProcessID() string {
	return p.ID
}

// ConsumeCPU spends up to amount of the CPU burst and returns what is left.
func (p *Process) ConsumeCPU(amount time.Duration) time.Duration {
	p.RemainingCPU = consume(p.RemainingCPU, amount)
	return p.RemainingCPU
}

// ConsumeIO spends up to amount of the blocking burst and returns what is left.
func (p *Process) ConsumeIO(amount time.Duration) time.Duration {
	p.RemainingIO = consume(p.RemainingIO, amount)
	return p.RemainingIO
}

// Finished reports whether both bursts are exhausted.
func (p *Process) Finished() bool {
	return p.RemainingCPU == 0 && p.RemainingIO == 0
}

func consume(remaining, amount time.Duration) time.Duration {
	if amount <= 0 {
		return remaining
	}
	if amount >= remaining {
		return 0
	}
	return remaining - amount
}
