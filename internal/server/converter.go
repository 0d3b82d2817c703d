package server

import (
	"fmt"
	"math"
	"time"

	"github.com/limiquantix/mlfq/internal/domain"
	"github.com/limiquantix/mlfq/internal/workload"
)

// CreateRunRequest is the body of POST /api/v1/runs. Burst times are in
// milliseconds.
type CreateRunRequest struct {
	Processes []ProcessRequest `json:"processes"`
	Random    *RandomRequest   `json:"random,omitempty"`
}

// ProcessRequest describes one explicit process.
type ProcessRequest struct {
	Name       string `json:"name"`
	CPUBurstMs int64  `json:"cpu_burst_ms"`
	IOBurstMs  int64  `json:"io_burst_ms"`
}

// RandomRequest describes seeded random processes.
type RandomRequest struct {
	Count         int     `json:"count"`
	Seed          uint64  `json:"seed"`
	MinCPUMs      int64   `json:"min_cpu_ms"`
	MaxCPUMs      int64   `json:"max_cpu_ms"`
	MinIOMs       int64   `json:"min_io_ms"`
	MaxIOMs       int64   `json:"max_io_ms"`
	IOProbability float64 `json:"io_probability"`
}

// RunResponse is the API view of a run record.
type RunResponse struct {
	ID           string               `json:"id"`
	Status       string               `json:"status"`
	Error        string               `json:"error,omitempty"`
	ProcessCount int                  `json:"process_count"`
	Finished     int                  `json:"finished"`
	Ticks        int64                `json:"ticks"`
	Boosts       int64                `json:"boosts"`
	ElapsedMs    int64                `json:"elapsed_ms"`
	AvgTurnMs    int64                `json:"avg_turnaround_ms"`
	Interrupts   map[string]int64     `json:"interrupts"`
	Completions  []CompletionResponse `json:"completions"`
	Config       RunConfigResponse    `json:"config"`
	StartedAt    time.Time            `json:"started_at"`
	FinishedAt   time.Time            `json:"finished_at"`
}

// CompletionResponse is the API view of a process completion.
type CompletionResponse struct {
	ProcessID   string `json:"process_id"`
	ProcessName string `json:"process_name,omitempty"`
	ElapsedMs   int64  `json:"elapsed_ms"`
}

// RunConfigResponse is the API view of the scheduler parameters of a run.
type RunConfigResponse struct {
	PriorityLevels     int    `json:"priority_levels"`
	BaseQuantumMs      int64  `json:"base_quantum_ms"`
	QuantumIncrementMs int64  `json:"quantum_increment_ms"`
	BlockingQuantumMs  int64  `json:"blocking_quantum_ms"`
	GlobalQuantumMs    int64  `json:"global_quantum_ms"`
	Clock              string `json:"clock"`
}

// maxMs is the largest millisecond count that fits in a time.Duration.
const maxMs = math.MaxInt64 / int64(time.Millisecond)

func ms(field string, v int64) (time.Duration, error) {
	if v > maxMs || v < -maxMs {
		return 0, fmt.Errorf("%w: %s of %d ms is out of range", domain.ErrInvalidArgument, field, v)
	}
	return time.Duration(v) * time.Millisecond, nil
}

// toWorkloadSpec converts an API request to a workload spec. Burst ranges and
// the process limit are checked when the service builds the workload.
func toWorkloadSpec(req *CreateRunRequest) (workload.Spec, error) {
	if len(req.Processes) == 0 && (req.Random == nil || req.Random.Count == 0) {
		return workload.Spec{}, fmt.Errorf("%w: at least one process is required", domain.ErrInvalidArgument)
	}

	spec := workload.Spec{
		Processes: make([]workload.ProcessSpec, 0, len(req.Processes)),
	}
	for i, p := range req.Processes {
		cpu, err := ms(fmt.Sprintf("processes[%d].cpu_burst_ms", i), p.CPUBurstMs)
		if err != nil {
			return workload.Spec{}, err
		}
		io, err := ms(fmt.Sprintf("processes[%d].io_burst_ms", i), p.IOBurstMs)
		if err != nil {
			return workload.Spec{}, err
		}
		spec.Processes = append(spec.Processes, workload.ProcessSpec{
			Name:     p.Name,
			CPUBurst: cpu,
			IOBurst:  io,
		})
	}

	if r := req.Random; r != nil {
		bounds := []struct {
			field string
			value int64
			dest  *time.Duration
		}{
			{"random.min_cpu_ms", r.MinCPUMs, &spec.Random.MinCPU},
			{"random.max_cpu_ms", r.MaxCPUMs, &spec.Random.MaxCPU},
			{"random.min_io_ms", r.MinIOMs, &spec.Random.MinIO},
			{"random.max_io_ms", r.MaxIOMs, &spec.Random.MaxIO},
		}
		for _, b := range bounds {
			d, err := ms(b.field, b.value)
			if err != nil {
				return workload.Spec{}, err
			}
			*b.dest = d
		}
		spec.Random.Count = r.Count
		spec.Random.Seed = r.Seed
		spec.Random.IOProbability = r.IOProbability
	}

	return spec, nil
}

// toRunResponse converts a run record to its API view.
func toRunResponse(run *domain.Run) RunResponse {
	completions := make([]CompletionResponse, 0, len(run.Completions))
	for _, c := range run.Completions {
		completions = append(completions, CompletionResponse{
			ProcessID:   c.ProcessID,
			ProcessName: c.ProcessName,
			ElapsedMs:   c.Elapsed.Milliseconds(),
		})
	}

	return RunResponse{
		ID:           run.ID,
		Status:       string(run.Status),
		Error:        run.Error,
		ProcessCount: run.ProcessCount,
		Finished:     run.Finished,
		Ticks:        run.Ticks,
		Boosts:       run.Boosts,
		ElapsedMs:    run.Elapsed.Milliseconds(),
		AvgTurnMs:    run.AverageTurnaround().Milliseconds(),
		Interrupts:   run.Interrupts,
		Completions:  completions,
		Config: RunConfigResponse{
			PriorityLevels:     run.Config.PriorityLevels,
			BaseQuantumMs:      run.Config.BaseQuantum.Milliseconds(),
			QuantumIncrementMs: run.Config.QuantumIncrement.Milliseconds(),
			BlockingQuantumMs:  run.Config.BlockingQuantum.Milliseconds(),
			GlobalQuantumMs:    run.Config.GlobalQuantum.Milliseconds(),
			Clock:              run.Config.Clock,
		},
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
	}
}
