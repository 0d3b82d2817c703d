// Package scheduler implements a multi-level feedback queue process scheduler.
// CPU queues are ranked by priority (0 is highest), a single blocking queue
// holds processes doing I/O, and a periodic priority boost moves every
// demoted process back to the top queue.
package scheduler

import (
	"fmt"
	"time"

	"github.com/limiquantix/mlfq/internal/domain"
)

// Config holds the scheduler configuration.
type Config struct {
	// PriorityLevels is the number of CPU queues.
	PriorityLevels int `mapstructure:"priority_levels"`

	// BaseQuantum is the quantum of the highest priority queue.
	BaseQuantum time.Duration `mapstructure:"base_quantum"`

	// QuantumIncrement is added to the quantum for every level below the top.
	QuantumIncrement time.Duration `mapstructure:"quantum_increment"`

	// BlockingQuantum is the slice granted per turn in the blocking queue.
	BlockingQuantum time.Duration `mapstructure:"blocking_quantum"`

	// GlobalQuantum is the budget after which a priority boost fires.
	GlobalQuantum time.Duration `mapstructure:"global_quantum"`
}

// DefaultConfig returns the default scheduler configuration.
func DefaultConfig() Config {
	return Config{
		PriorityLevels:   3,
		BaseQuantum:      10 * time.Millisecond,
		QuantumIncrement: 20 * time.Millisecond,
		BlockingQuantum:  50 * time.Millisecond,
		GlobalQuantum:    500 * time.Millisecond,
	}
}

// QuantumFor returns the quantum of the CPU queue at the given level.
func (c Config) QuantumFor(level int) time.Duration {
	return c.BaseQuantum + time.Duration(level)*c.QuantumIncrement
}

// Validate checks the configuration for values the scheduler cannot run with.
func (c Config) Validate() error {
	if c.PriorityLevels < 1 {
		return fmt.Errorf("%w: priority_levels must be at least 1, got %d", domain.ErrInvalidArgument, c.PriorityLevels)
	}
	if c.BaseQuantum <= 0 {
		return fmt.Errorf("%w: base_quantum must be positive, got %s", domain.ErrInvalidArgument, c.BaseQuantum)
	}
	if c.QuantumIncrement < 0 {
		return fmt.Errorf("%w: quantum_increment must not be negative, got %s", domain.ErrInvalidArgument, c.QuantumIncrement)
	}
	if c.BlockingQuantum <= 0 {
		return fmt.Errorf("%w: blocking_quantum must be positive, got %s", domain.ErrInvalidArgument, c.BlockingQuantum)
	}
	if c.GlobalQuantum <= 0 {
		return fmt.Errorf("%w: global_quantum must be positive, got %s", domain.ErrInvalidArgument, c.GlobalQuantum)
	}
	return nil
}
