// Package simulation provides tests for the simulation service.
package simulation

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/limiquantix/mlfq/internal/config"
	"github.com/limiquantix/mlfq/internal/domain"
	"github.com/limiquantix/mlfq/internal/repository/memory"
	"github.com/limiquantix/mlfq/internal/scheduler"
	"github.com/limiquantix/mlfq/internal/workload"
)

// MockRunRepository is a RunRepository whose Create always fails.
type MockRunRepository struct {
	createErr error
}

func (m *MockRunRepository) Create(ctx context.Context, run *domain.Run) error {
	return m.createErr
}

func (m *MockRunRepository) Get(ctx context.Context, id string) (*domain.Run, error) {
	return nil, domain.ErrNotFound
}

func (m *MockRunRepository) List(ctx context.Context, limit int) ([]*domain.Run, error) {
	return nil, nil
}

func virtualConfig() config.SimulationConfig {
	return config.SimulationConfig{
		Clock:   config.ClockVirtual,
		Tick:    10 * time.Millisecond,
		Timeout: 10 * time.Second,
	}
}

func TestService_Run_Completes(t *testing.T) {
	repo := memory.NewRunRepository(0)
	logger, _ := zap.NewDevelopment()
	svc := NewService(repo, scheduler.DefaultConfig(), virtualConfig(), logger)

	spec := workload.Spec{
		Processes: []workload.ProcessSpec{
			{Name: "short", CPUBurst: 5 * time.Millisecond},
			{Name: "cpu-bound", CPUBurst: 25 * time.Millisecond},
			{Name: "io-bound", CPUBurst: 5 * time.Millisecond, IOBurst: 20 * time.Millisecond},
		},
	}

	run, err := svc.Run(context.Background(), spec)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if run.Status != domain.RunStatusCompleted {
		t.Errorf("Expected COMPLETED, got %s", run.Status)
	}
	if run.ProcessCount != 3 || run.Finished != 3 {
		t.Errorf("Expected 3 of 3 finished, got %d of %d", run.Finished, run.ProcessCount)
	}
	if run.Interrupts["PROCESS_BLOCKED"] != 1 || run.Interrupts["PROCESS_READY"] != 1 {
		t.Errorf("Unexpected interrupt counts: %v", run.Interrupts)
	}
	if len(run.Completions) != 3 || run.Completions[0].ProcessName != "short" {
		t.Errorf("Expected short process to complete first, got %+v", run.Completions)
	}
	if run.Config.PriorityLevels != 3 || run.Config.Clock != config.ClockVirtual {
		t.Errorf("Unexpected run config: %+v", run.Config)
	}

	stored, err := svc.Get(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.Finished != 3 {
		t.Errorf("Expected stored record to match, got %d finished", stored.Finished)
	}
}

func TestService_Run_RandomWorkload(t *testing.T) {
	svc := NewService(memory.NewRunRepository(0), scheduler.DefaultConfig(), virtualConfig(), zap.NewNop())

	spec := workload.Spec{
		Random: workload.RandomSpec{
			Count:         25,
			Seed:          9,
			MinCPU:        time.Millisecond,
			MaxCPU:        400 * time.Millisecond,
			MinIO:         10 * time.Millisecond,
			MaxIO:         100 * time.Millisecond,
			IOProbability: 0.4,
		},
	}

	run, err := svc.Run(context.Background(), spec)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if run.Finished != 25 {
		t.Errorf("Expected 25 finished, got %d", run.Finished)
	}
	if run.Boosts == 0 {
		t.Error("Expected at least one priority boost for a long workload")
	}
}

func TestService_Run_InvalidWorkload(t *testing.T) {
	svc := NewService(memory.NewRunRepository(0), scheduler.DefaultConfig(), virtualConfig(), zap.NewNop())

	spec := workload.Spec{Processes: []workload.ProcessSpec{{CPUBurst: -time.Second}}}

	_, err := svc.Run(context.Background(), spec)
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("Expected ErrInvalidArgument, got %v", err)
	}
}

func TestService_Run_ProcessLimit(t *testing.T) {
	simCfg := virtualConfig()
	simCfg.MaxProcesses = 4
	repo := memory.NewRunRepository(0)
	svc := NewService(repo, scheduler.DefaultConfig(), simCfg, zap.NewNop())

	spec := workload.Spec{
		// A caller-supplied limit is replaced by the configured one
		MaxProcesses: 1000,
		Random: workload.RandomSpec{
			Count:  5,
			Seed:   1,
			MinCPU: time.Millisecond,
			MaxCPU: 10 * time.Millisecond,
		},
	}

	run, err := svc.Run(context.Background(), spec)
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("Expected ErrInvalidArgument, got %v", err)
	}
	if run != nil {
		t.Errorf("Expected no run record, got %+v", run)
	}
	if runs, _ := repo.List(context.Background(), 0); len(runs) != 0 {
		t.Errorf("Expected nothing stored, got %d runs", len(runs))
	}
}

func TestService_Run_Cancelled(t *testing.T) {
	repo := memory.NewRunRepository(0)
	svc := NewService(repo, scheduler.DefaultConfig(), virtualConfig(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	spec := workload.Spec{Processes: []workload.ProcessSpec{{Name: "p", CPUBurst: time.Second}}}

	run, err := svc.Run(ctx, spec)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if run == nil || run.Status != domain.RunStatusCancelled {
		t.Fatalf("Expected CANCELLED record, got %+v", run)
	}

	if _, err := repo.Get(context.Background(), run.ID); err != nil {
		t.Errorf("Expected cancelled run to be stored: %v", err)
	}
}

func TestService_Run_StoreFailure(t *testing.T) {
	storeErr := errors.New("disk full")
	svc := NewService(&MockRunRepository{createErr: storeErr}, scheduler.DefaultConfig(), virtualConfig(), zap.NewNop())

	spec := workload.Spec{Processes: []workload.ProcessSpec{{Name: "p", CPUBurst: time.Millisecond}}}

	_, err := svc.Run(context.Background(), spec)
	if !errors.Is(err, storeErr) {
		t.Fatalf("Expected store error, got %v", err)
	}
}

func TestService_Get_EmptyID(t *testing.T) {
	svc := NewService(memory.NewRunRepository(0), scheduler.DefaultConfig(), virtualConfig(), zap.NewNop())

	_, err := svc.Get(context.Background(), "")
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("Expected ErrInvalidArgument, got %v", err)
	}
}
