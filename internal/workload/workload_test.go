package workload

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/limiquantix/mlfq/internal/domain"
)

func randomSpec(seed uint64) Spec {
	return Spec{
		Random: RandomSpec{
			Count:         20,
			Seed:          seed,
			MinCPU:        5 * time.Millisecond,
			MaxCPU:        300 * time.Millisecond,
			MinIO:         10 * time.Millisecond,
			MaxIO:         200 * time.Millisecond,
			IOProbability: 0.5,
		},
	}
}

func TestSpec_Build_Explicit(t *testing.T) {
	spec := Spec{
		Processes: []ProcessSpec{
			{Name: "editor", CPUBurst: 5 * time.Millisecond, IOBurst: 20 * time.Millisecond},
			{Name: "compiler", CPUBurst: 250 * time.Millisecond},
		},
	}

	processes, err := spec.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(processes) != 2 {
		t.Fatalf("Expected 2 processes, got %d", len(processes))
	}
	if processes[0].Name != "editor" || processes[0].RemainingIO != 20*time.Millisecond {
		t.Errorf("Unexpected first process: %+v", processes[0])
	}
	if processes[0].ID == processes[1].ID {
		t.Error("Expected unique process IDs")
	}
}

func TestSpec_Build_RandomWithinRanges(t *testing.T) {
	spec := randomSpec(7)

	processes, err := spec.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(processes) != spec.Random.Count {
		t.Fatalf("Expected %d processes, got %d", spec.Random.Count, len(processes))
	}
	for _, p := range processes {
		if p.CPUBurst < spec.Random.MinCPU || p.CPUBurst > spec.Random.MaxCPU {
			t.Errorf("CPU burst %s out of range", p.CPUBurst)
		}
		if p.IOBurst != 0 && (p.IOBurst < spec.Random.MinIO || p.IOBurst > spec.Random.MaxIO) {
			t.Errorf("IO burst %s out of range", p.IOBurst)
		}
	}
}

func TestSpec_Build_Deterministic(t *testing.T) {
	first, err := randomSpec(42).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	second, err := randomSpec(42).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	for i := range first {
		if first[i].CPUBurst != second[i].CPUBurst || first[i].IOBurst != second[i].IOBurst {
			t.Fatalf("Process %d differs between runs with the same seed", i)
		}
	}
}

func TestSpec_Build_NoIO(t *testing.T) {
	spec := randomSpec(3)
	spec.Random.IOProbability = 0

	processes, err := spec.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	for _, p := range processes {
		if p.IOBurst != 0 {
			t.Errorf("Expected no I/O burst, got %s", p.IOBurst)
		}
	}
}

func TestSpec_Validate_Invalid(t *testing.T) {
	inverted := randomSpec(1)
	inverted.Random.MaxCPU = time.Millisecond

	probability := randomSpec(1)
	probability.Random.IOProbability = 1.5

	negative := Spec{Processes: []ProcessSpec{{CPUBurst: -time.Millisecond}}}

	for name, spec := range map[string]Spec{
		"inverted cpu range": inverted,
		"probability":        probability,
		"negative burst":     negative,
	} {
		if err := spec.Validate(); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("%s: expected ErrInvalidArgument, got %v", name, err)
		}
	}
}

func TestSpec_Validate_MaxProcesses(t *testing.T) {
	huge := randomSpec(1)
	huge.Random.Count = 1 << 60

	capped := randomSpec(1)
	capped.MaxProcesses = 25
	capped.Processes = make([]ProcessSpec, 6)

	for name, spec := range map[string]Spec{
		"default limit":    huge,
		"configured limit": capped,
	} {
		if err := spec.Validate(); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("%s: expected ErrInvalidArgument, got %v", name, err)
		}
		if _, err := spec.Build(); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("%s: expected Build to reject the spec, got %v", name, err)
		}
	}

	atLimit := randomSpec(1)
	atLimit.MaxProcesses = 25
	atLimit.Processes = make([]ProcessSpec, 5)
	if err := atLimit.Validate(); err != nil {
		t.Errorf("Expected a spec at the limit to be valid, got %v", err)
	}
}

func TestSpec_Build_FullDurationRange(t *testing.T) {
	spec := Spec{
		Random: RandomSpec{
			Count:  50,
			Seed:   9,
			MinCPU: 0,
			MaxCPU: time.Duration(math.MaxInt64),
		},
	}

	processes, err := spec.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	for _, p := range processes {
		if p.CPUBurst < 0 {
			t.Errorf("CPU burst %s out of range", p.CPUBurst)
		}
	}
}
