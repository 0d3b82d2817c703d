package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"k8s.io/utils/clock"

	"github.com/limiquantix/mlfq/internal/config"
	"github.com/limiquantix/mlfq/internal/domain"
	"github.com/limiquantix/mlfq/internal/scheduler"
	"github.com/limiquantix/mlfq/internal/workload"
)

// Service executes simulation runs and stores their records.
type Service struct {
	repo     RunRepository
	schedCfg scheduler.Config
	simCfg   config.SimulationConfig
	logger   *zap.Logger
}

// NewService creates a new simulation service.
func NewService(repo RunRepository, schedCfg scheduler.Config, simCfg config.SimulationConfig, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		schedCfg: schedCfg,
		simCfg:   simCfg,
		logger:   logger.With(zap.String("component", "simulation")),
	}
}

// Run builds the workload, drives a scheduler over it until it drains and
// stores the resulting record. The record is returned even when the run did
// not complete; the error then says why.
func (s *Service) Run(ctx context.Context, spec workload.Spec) (*domain.Run, error) {
	spec.MaxProcesses = s.simCfg.MaxProcesses

	processes, err := spec.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build workload: %w", err)
	}

	sched, err := scheduler.New(s.schedCfg, s.newClock(), s.logger)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(processes))
	for _, p := range processes {
		names[p.ID] = p.Name
		sched.AddNewProcess(p)
	}

	run := &domain.Run{
		ID:           uuid.New().String(),
		ProcessCount: len(processes),
		Config: domain.RunConfig{
			PriorityLevels:   s.schedCfg.PriorityLevels,
			BaseQuantum:      s.schedCfg.BaseQuantum,
			QuantumIncrement: s.schedCfg.QuantumIncrement,
			BlockingQuantum:  s.schedCfg.BlockingQuantum,
			GlobalQuantum:    s.schedCfg.GlobalQuantum,
			Clock:            s.simCfg.Clock,
		},
		StartedAt: time.Now(),
	}

	logger := s.logger.With(zap.String("run_id", run.ID))
	logger.Info("Starting simulation run",
		zap.Int("processes", len(processes)),
		zap.String("clock", s.simCfg.Clock),
	)

	runCtx := ctx
	if s.simCfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.simCfg.Timeout)
		defer cancel()
	}

	runErr := sched.Run(runCtx)
	run.FinishedAt = time.Now()

	stats := sched.Stats()
	run.Ticks = stats.Ticks
	run.Boosts = stats.Boosts
	run.Finished = stats.Finished
	run.Elapsed = stats.Elapsed
	run.Interrupts = make(map[string]int64, len(stats.Interrupts))
	for kind, count := range stats.Interrupts {
		run.Interrupts[kind.String()] = count
	}
	run.Completions = make([]domain.Completion, 0, len(stats.Completions))
	for _, c := range stats.Completions {
		run.Completions = append(run.Completions, domain.Completion{
			ProcessID:   c.ProcessID,
			ProcessName: names[c.ProcessID],
			Elapsed:     c.Elapsed,
		})
	}

	switch {
	case runErr == nil:
		run.Status = domain.RunStatusCompleted
	case errors.Is(runErr, context.Canceled), errors.Is(runErr, context.DeadlineExceeded):
		run.Status = domain.RunStatusCancelled
		run.Error = runErr.Error()
	default:
		run.Status = domain.RunStatusFailed
		run.Error = runErr.Error()
	}

	// Persist with the caller's context; the run context may have expired.
	if err := s.repo.Create(ctx, run); err != nil {
		logger.Error("Failed to store run record", zap.Error(err))
		return run, fmt.Errorf("failed to store run: %w", err)
	}

	logger.Info("Simulation run finished",
		zap.String("status", string(run.Status)),
		zap.Int64("ticks", run.Ticks),
		zap.Int64("boosts", run.Boosts),
		zap.Int("finished", run.Finished),
		zap.Duration("elapsed", run.Elapsed),
		zap.Duration("avg_turnaround", run.AverageTurnaround()),
	)

	if runErr != nil {
		return run, fmt.Errorf("run %s did not complete: %w", run.ID, runErr)
	}
	return run, nil
}

// Get retrieves a run record by ID.
func (s *Service) Get(ctx context.Context, id string) (*domain.Run, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: run id is required", domain.ErrInvalidArgument)
	}
	return s.repo.Get(ctx, id)
}

// List returns up to limit run records, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]*domain.Run, error) {
	return s.repo.List(ctx, limit)
}

func (s *Service) newClock() clock.PassiveClock {
	if s.simCfg.Clock == config.ClockReal {
		return clock.RealClock{}
	}
	return scheduler.NewSteppedClock(time.Now(), s.simCfg.Tick)
}
