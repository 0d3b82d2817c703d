package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/limiquantix/mlfq/internal/domain"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Scheduler.PriorityLevels != 3 {
		t.Errorf("Expected 3 priority levels, got %d", cfg.Scheduler.PriorityLevels)
	}
	if cfg.Scheduler.GlobalQuantum != 500*time.Millisecond {
		t.Errorf("Expected 500ms global quantum, got %s", cfg.Scheduler.GlobalQuantum)
	}
	if cfg.Scheduler.QuantumFor(2) != 50*time.Millisecond {
		t.Errorf("Expected 50ms quantum at level 2, got %s", cfg.Scheduler.QuantumFor(2))
	}
	if cfg.Simulation.Clock != ClockVirtual || cfg.Simulation.Tick != 10*time.Millisecond {
		t.Errorf("Unexpected simulation defaults: %+v", cfg.Simulation)
	}
	if cfg.Storage.Backend != StorageMemory {
		t.Errorf("Expected memory storage, got %s", cfg.Storage.Backend)
	}
	if cfg.Workload.Random.Count != 10 {
		t.Errorf("Expected 10 random processes, got %d", cfg.Workload.Random.Count)
	}
	if cfg.Simulation.MaxProcesses != 10000 || cfg.Workload.MaxProcesses != 10000 {
		t.Errorf("Expected a 10000 process limit, got %d/%d", cfg.Simulation.MaxProcesses, cfg.Workload.MaxProcesses)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mlfq.yaml")
	content := `
scheduler:
  priority_levels: 4
  base_quantum: 5ms
simulation:
  tick: 1ms
workload:
  processes:
    - name: editor
      cpu_burst: 5ms
      io_burst: 20ms
  random:
    count: 0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Scheduler.PriorityLevels != 4 {
		t.Errorf("Expected 4 levels, got %d", cfg.Scheduler.PriorityLevels)
	}
	if cfg.Scheduler.BaseQuantum != 5*time.Millisecond {
		t.Errorf("Expected 5ms base quantum, got %s", cfg.Scheduler.BaseQuantum)
	}
	if cfg.Simulation.Tick != time.Millisecond {
		t.Errorf("Expected 1ms tick, got %s", cfg.Simulation.Tick)
	}
	if len(cfg.Workload.Processes) != 1 {
		t.Fatalf("Expected 1 explicit process, got %d", len(cfg.Workload.Processes))
	}
	if p := cfg.Workload.Processes[0]; p.Name != "editor" || p.IOBurst != 20*time.Millisecond {
		t.Errorf("Unexpected process spec: %+v", p)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("MLFQ_SCHEDULER_PRIORITY_LEVELS", "5")
	t.Setenv("MLFQ_STORAGE_BACKEND", "redis")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Scheduler.PriorityLevels != 5 {
		t.Errorf("Expected 5 levels from env, got %d", cfg.Scheduler.PriorityLevels)
	}
	if cfg.Storage.Backend != StorageRedis {
		t.Errorf("Expected redis backend from env, got %s", cfg.Storage.Backend)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("MLFQ_SIMULATION_CLOCK", "sundial")

	_, err := Load("")
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("Expected ErrInvalidArgument, got %v", err)
	}
}
