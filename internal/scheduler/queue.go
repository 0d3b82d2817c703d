package scheduler

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/limiquantix/mlfq/internal/domain"
)

// QueueType distinguishes CPU queues from the blocking queue.
type QueueType string

const (
	QueueTypeCPU      QueueType = "CPU"
	QueueTypeBlocking QueueType = "BLOCKING"
)

// WorkResult describes one turn a queue granted to its head process.
type WorkResult struct {
	// Process is nil when no work was done.
	Process   Process
	Granted   time.Duration
	Remaining time.Duration
	Finished  bool
	Interrupt InterruptKind
}

// Queue is a FIFO of processes at one priority level (or the blocking level)
// with a fixed quantum.
type Queue struct {
	handler       InterruptHandler
	quantum       time.Duration
	priorityLevel int
	queueType     QueueType
	logger        *zap.Logger

	mu        sync.Mutex
	processes []Process
}

// NewQueue creates an empty queue that reports interrupts to handler.
func NewQueue(handler InterruptHandler, quantum time.Duration, priorityLevel int, queueType QueueType, logger *zap.Logger) *Queue {
	return &Queue{
		handler:       handler,
		quantum:       quantum,
		priorityLevel: priorityLevel,
		queueType:     queueType,
		logger: logger.With(
			zap.String("queue_type", string(queueType)),
			zap.Int("priority_level", priorityLevel),
		),
	}
}

// Enqueue appends a process to the tail.
func (q *Queue) Enqueue(p Process) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.processes = append(q.processes, p)
}

// Dequeue removes and returns the head process.
func (q *Queue) Dequeue() (Process, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.processes) == 0 {
		return nil, fmt.Errorf("dequeue from %s queue %d: %w", q.queueType, q.priorityLevel, domain.ErrEmptyQueue)
	}

	p := q.processes[0]
	q.processes[0] = nil
	q.processes = q.processes[1:]
	return p, nil
}

// requeueFront puts p back at the head.
func (q *Queue) requeueFront(p Process) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.processes = append([]Process{p}, q.processes...)
}

// drain removes every process, head first.
func (q *Queue) drain() []Process {
	q.mu.Lock()
	defer q.mu.Unlock()

	drained := q.processes
	q.processes = nil
	return drained
}

// IsEmpty reports whether the queue holds no processes.
func (q *Queue) IsEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.processes) == 0
}

// Len returns the number of queued processes.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.processes)
}

// Processes returns a snapshot of the queue, head first.
func (q *Queue) Processes() []Process {
	q.mu.Lock()
	defer q.mu.Unlock()

	snapshot := make([]Process, len(q.processes))
	copy(snapshot, q.processes)
	return snapshot
}

// Quantum returns the maximum time granted per process per turn.
func (q *Queue) Quantum() time.Duration {
	return q.quantum
}

// GetPriorityLevel returns the priority level of the queue. It carries no
// meaning for the blocking queue.
func (q *Queue) GetPriorityLevel() int {
	return q.priorityLevel
}

// GetQueueType returns the queue type.
func (q *Queue) GetQueueType() QueueType {
	return q.queueType
}

// DoCPUWork runs the head process for min(quantum, timeSlice).
//
// A process whose CPU burst is exhausted is dropped if it is finished and
// blocked otherwise. A process with CPU time left is handed back with
// InterruptLowerPriority. A non-positive timeSlice does nothing.
func (q *Queue) DoCPUWork(timeSlice time.Duration) (WorkResult, error) {
	if timeSlice <= 0 {
		return WorkResult{}, nil
	}

	p, err := q.Dequeue()
	if err != nil {
		return WorkResult{}, fmt.Errorf("cpu work: %w", err)
	}

	granted := min(q.quantum, timeSlice)
	remaining := p.ConsumeCPU(granted)
	result := WorkResult{Process: p, Granted: granted, Remaining: remaining}

	switch {
	case remaining > 0:
		result.Interrupt = InterruptLowerPriority
	case p.Finished():
		result.Finished = true
		q.logger.Debug("Process finished", zap.String("process_id", p.ProcessID()))
		return result, nil
	default:
		result.Interrupt = InterruptProcessBlocked
	}

	return result, q.emit(result.Interrupt, p)
}

// DoBlockingWork advances the head process's I/O burst by
// min(quantum, timeSlice). On exhaustion the process is reported ready,
// otherwise it is handed back with InterruptLowerPriority so the scheduler
// can requeue it. A non-positive timeSlice does nothing.
func (q *Queue) DoBlockingWork(timeSlice time.Duration) (WorkResult, error) {
	if timeSlice <= 0 {
		return WorkResult{}, nil
	}

	p, err := q.Dequeue()
	if err != nil {
		return WorkResult{}, fmt.Errorf("blocking work: %w", err)
	}

	granted := min(q.quantum, timeSlice)
	remaining := p.ConsumeIO(granted)
	result := WorkResult{Process: p, Granted: granted, Remaining: remaining}

	if remaining > 0 {
		result.Interrupt = InterruptLowerPriority
	} else {
		result.Interrupt = InterruptProcessReady
	}

	return result, q.emit(result.Interrupt, p)
}

// emit must be called without q.mu held; the handler may enqueue back into q.
// A handler that fails must not have taken the process: it is put back at
// the head of q so no process leaves the system on the error path.
func (q *Queue) emit(kind InterruptKind, p Process) error {
	q.logger.Debug("Raising interrupt",
		zap.String("process_id", p.ProcessID()),
		zap.Stringer("interrupt", kind),
	)

	if err := q.handler.HandleInterrupt(Interrupt{Kind: kind, Queue: q, Process: p}); err != nil {
		q.requeueFront(p)
		return fmt.Errorf("handle %s for process %s: %w", kind, p.ProcessID(), err)
	}
	return nil
}
