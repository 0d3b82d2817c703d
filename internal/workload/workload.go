// Package workload builds the initial process sets fed to the scheduler.
package workload

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/limiquantix/mlfq/internal/domain"
)

// DefaultMaxProcesses bounds a spec whose MaxProcesses is unset.
const DefaultMaxProcesses = 10000

// Spec describes a workload: explicit processes followed by randomly
// generated ones.
type Spec struct {
	Processes []ProcessSpec `mapstructure:"processes"`
	Random    RandomSpec    `mapstructure:"random"`

	// MaxProcesses caps Size. Zero means DefaultMaxProcesses.
	MaxProcesses int `mapstructure:"-"`
}

// ProcessSpec describes a single process.
type ProcessSpec struct {
	Name     string        `mapstructure:"name"`
	CPUBurst time.Duration `mapstructure:"cpu_burst"`
	IOBurst  time.Duration `mapstructure:"io_burst"`
}

// RandomSpec controls seeded random process generation.
type RandomSpec struct {
	Count int    `mapstructure:"count"`
	Seed  uint64 `mapstructure:"seed"`

	MinCPU time.Duration `mapstructure:"min_cpu"`
	MaxCPU time.Duration `mapstructure:"max_cpu"`
	MinIO  time.Duration `mapstructure:"min_io"`
	MaxIO  time.Duration `mapstructure:"max_io"`

	// IOProbability is the chance that a generated process has an I/O burst.
	IOProbability float64 `mapstructure:"io_probability"`
}

// Size returns the number of processes the spec produces.
func (s Spec) Size() int {
	return len(s.Processes) + s.Random.Count
}

// Validate checks the spec for values that cannot produce processes.
func (s Spec) Validate() error {
	for i, p := range s.Processes {
		if p.CPUBurst < 0 || p.IOBurst < 0 {
			return fmt.Errorf("%w: process %d has a negative burst", domain.ErrInvalidArgument, i)
		}
	}

	r := s.Random
	if r.Count < 0 {
		return fmt.Errorf("%w: random.count must not be negative", domain.ErrInvalidArgument)
	}

	limit := s.MaxProcesses
	if limit <= 0 {
		limit = DefaultMaxProcesses
	}
	if len(s.Processes) > limit || r.Count > limit-len(s.Processes) {
		return fmt.Errorf("%w: workload exceeds %d processes", domain.ErrInvalidArgument, limit)
	}
	if r.Count == 0 {
		return nil
	}
	if r.MinCPU < 0 || r.MaxCPU < r.MinCPU {
		return fmt.Errorf("%w: invalid cpu range [%s, %s]", domain.ErrInvalidArgument, r.MinCPU, r.MaxCPU)
	}
	if r.MinIO < 0 || r.MaxIO < r.MinIO {
		return fmt.Errorf("%w: invalid io range [%s, %s]", domain.ErrInvalidArgument, r.MinIO, r.MaxIO)
	}
	if r.IOProbability < 0 || r.IOProbability > 1 {
		return fmt.Errorf("%w: io_probability must be within [0, 1], got %v", domain.ErrInvalidArgument, r.IOProbability)
	}
	return nil
}

// Build creates the processes described by the spec. The same seed always
// yields the same bursts.
func (s Spec) Build() ([]*domain.Process, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	processes := make([]*domain.Process, 0, s.Size())
	for _, ps := range s.Processes {
		p, err := domain.NewProcess(ps.Name, ps.CPUBurst, ps.IOBurst)
		if err != nil {
			return nil, err
		}
		processes = append(processes, p)
	}

	r := s.Random
	rng := rand.New(rand.NewPCG(r.Seed, r.Seed^0x9e3779b97f4a7c15))
	for i := 0; i < r.Count; i++ {
		cpu := between(rng, r.MinCPU, r.MaxCPU)
		var io time.Duration
		if rng.Float64() < r.IOProbability {
			io = between(rng, r.MinIO, r.MaxIO)
		}

		p, err := domain.NewProcess(fmt.Sprintf("random-%d", i), cpu, io)
		if err != nil {
			return nil, err
		}
		processes = append(processes, p)
	}

	return processes, nil
}

func between(rng *rand.Rand, lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	span := int64(hi - lo)
	if span == math.MaxInt64 {
		return lo + time.Duration(rng.Int64())
	}
	return lo + time.Duration(rng.Int64N(span+1))
}
