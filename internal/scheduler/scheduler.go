package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"k8s.io/utils/clock"

	"github.com/limiquantix/mlfq/internal/domain"
)

// Stats summarises what a scheduler has done so far.
type Stats struct {
	Ticks       int64
	Boosts      int64
	Finished    int
	Elapsed     time.Duration
	Interrupts  map[InterruptKind]int64
	Completions []Completion
}

// Completion records the virtual time at which a process finished,
// measured from scheduler creation.
type Completion struct {
	ProcessID string
	Elapsed   time.Duration
}

// Scheduler owns one blocking queue and a ranked set of CPU queues and
// advances processes through them one tick at a time.
type Scheduler struct {
	config Config
	clock  clock.PassiveClock
	logger *zap.Logger

	blockingQueue *Queue
	runningQueues []*Queue

	// tickMu serialises ticks; queue moves inside a tick and the boost sweep
	// have a single writer.
	tickMu        sync.Mutex
	startedAt     time.Time
	lastTick      time.Time
	globalQuantum time.Duration

	mu        sync.RWMutex
	isRunning bool
	stats     Stats
}

// New creates a new Scheduler. Time slices are measured on clk.
func New(cfg Config, clk clock.PassiveClock, logger *zap.Logger) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scheduler config: %w", err)
	}
	if clk == nil {
		clk = clock.RealClock{}
	}

	s := &Scheduler{
		config:        cfg,
		clock:         clk,
		logger:        logger.With(zap.String("component", "scheduler")),
		globalQuantum: cfg.GlobalQuantum,
		stats: Stats{
			Interrupts: make(map[InterruptKind]int64),
		},
	}

	s.blockingQueue = NewQueue(s, cfg.BlockingQuantum, 0, QueueTypeBlocking, s.logger)
	s.runningQueues = make([]*Queue, cfg.PriorityLevels)
	for level := range s.runningQueues {
		s.runningQueues[level] = NewQueue(s, cfg.QuantumFor(level), level, QueueTypeCPU, s.logger)
	}

	s.startedAt = clk.Now()
	s.lastTick = s.startedAt

	return s, nil
}

// AddNewProcess admits a process at the tail of the highest priority queue.
func (s *Scheduler) AddNewProcess(p Process) {
	s.runningQueues[0].Enqueue(p)
}

// Run ticks until every queue is empty or ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return domain.ErrAlreadyRunning
	}
	s.isRunning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
	}()

	s.logger.Info("Starting scheduler run",
		zap.Int("processes", s.Len()),
		zap.Int("priority_levels", len(s.runningQueues)),
		zap.Duration("global_quantum", s.config.GlobalQuantum),
	)

	for !s.allQueuesEmpty() {
		select {
		case <-ctx.Done():
			s.logger.Warn("Scheduler run interrupted",
				zap.Int("remaining_processes", s.Len()),
				zap.Error(ctx.Err()),
			)
			return ctx.Err()
		default:
		}

		if err := s.Tick(); err != nil {
			s.logger.Error("Scheduler tick failed", zap.Error(err))
			return err
		}
	}

	stats := s.Stats()
	s.logger.Info("Scheduler drained",
		zap.Int64("ticks", stats.Ticks),
		zap.Int64("boosts", stats.Boosts),
		zap.Int("finished", stats.Finished),
		zap.Duration("elapsed", stats.Elapsed),
	)

	return nil
}

// Tick performs one iteration of the control loop.
func (s *Scheduler) Tick() error {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	now := s.clock.Now()
	timeSlice := now.Sub(s.lastTick)
	if timeSlice < 0 {
		timeSlice = 0
	}

	// 1. Blocking work
	if !s.blockingQueue.IsEmpty() {
		if _, err := s.blockingQueue.DoBlockingWork(timeSlice); err != nil {
			return err
		}
	}

	// 2. CPU work on the first non-empty queue only
	for _, q := range s.runningQueues {
		if q.IsEmpty() {
			continue
		}
		result, err := q.DoCPUWork(timeSlice)
		if err != nil {
			return err
		}
		if result.Finished {
			s.recordCompletion(result.Process, now.Sub(s.startedAt))
		}
		break
	}

	s.lastTick = now
	s.globalQuantum -= timeSlice

	// 3. Priority boost; overshoot is carried into the next cycle
	boosted := false
	if s.globalQuantum <= 0 {
		s.boost()
		for s.globalQuantum <= 0 {
			s.globalQuantum += s.config.GlobalQuantum
		}
		boosted = true
	}

	s.mu.Lock()
	s.stats.Ticks++
	s.stats.Elapsed = now.Sub(s.startedAt)
	if boosted {
		s.stats.Boosts++
	}
	s.mu.Unlock()

	return nil
}

// boost moves every process in the lower queues to the tail of queue 0,
// scanning queues in ascending order and keeping each queue's order.
func (s *Scheduler) boost() {
	top := s.runningQueues[0]
	moved := 0
	for _, q := range s.runningQueues[1:] {
		for _, p := range q.drain() {
			top.Enqueue(p)
			moved++
		}
	}

	s.logger.Debug("Priority boost", zap.Int("moved", moved))
}

// HandleInterrupt resolves an interrupt raised by one of the queues.
func (s *Scheduler) HandleInterrupt(irq Interrupt) error {
	if irq.Process == nil {
		return fmt.Errorf("%w: %s interrupt without process", domain.ErrInvalidArgument, irq.Kind)
	}

	switch irq.Kind {
	case InterruptProcessBlocked:
		s.blockingQueue.Enqueue(irq.Process)

	case InterruptProcessReady:
		s.AddNewProcess(irq.Process)

	case InterruptLowerPriority:
		q := irq.Queue
		if q == nil {
			return fmt.Errorf("%w: %s interrupt without queue", domain.ErrInvalidArgument, irq.Kind)
		}
		level := q.GetPriorityLevel()
		switch {
		case q.GetQueueType() == QueueTypeBlocking:
			q.Enqueue(irq.Process)
		case level >= len(s.runningQueues)-1:
			q.Enqueue(irq.Process)
		default:
			s.runningQueues[level+1].Enqueue(irq.Process)
		}

	default:
		return fmt.Errorf("%w: %s", domain.ErrUnknownInterrupt, irq.Kind)
	}

	s.mu.Lock()
	s.stats.Interrupts[irq.Kind]++
	s.mu.Unlock()

	return nil
}

func (s *Scheduler) recordCompletion(p Process, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.Finished++
	s.stats.Completions = append(s.stats.Completions, Completion{
		ProcessID: p.ProcessID(),
		Elapsed:   elapsed,
	})
}

func (s *Scheduler) allQueuesEmpty() bool {
	for _, q := range s.runningQueues {
		if !q.IsEmpty() {
			return false
		}
	}
	return s.blockingQueue.IsEmpty()
}

// Len returns the number of processes still in the system.
func (s *Scheduler) Len() int {
	total := s.blockingQueue.Len()
	for _, q := range s.runningQueues {
		total += q.Len()
	}
	return total
}

// Stats returns a copy of the scheduler statistics.
func (s *Scheduler) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := s.stats
	stats.Interrupts = make(map[InterruptKind]int64, len(s.stats.Interrupts))
	for k, v := range s.stats.Interrupts {
		stats.Interrupts[k] = v
	}
	stats.Completions = append([]Completion(nil), s.stats.Completions...)
	return stats
}

// GlobalQuantum returns the budget left before the next priority boost.
func (s *Scheduler) GlobalQuantum() time.Duration {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	return s.globalQuantum
}

// CPUQueue returns the CPU queue at the given priority level, or nil.
func (s *Scheduler) CPUQueue(priorityLevel int) *Queue {
	if priorityLevel < 0 || priorityLevel >= len(s.runningQueues) {
		return nil
	}
	return s.runningQueues[priorityLevel]
}

// BlockingQueue returns the blocking queue.
func (s *Scheduler) BlockingQueue() *Queue {
	return s.blockingQueue
}

// PriorityLevels returns the number of CPU queues.
func (s *Scheduler) PriorityLevels() int {
	return len(s.runningQueues)
}
