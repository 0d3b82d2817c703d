package scheduler

import "time"

// Process is the view the scheduler needs of a simulated process.
type Process interface {
	ProcessID() string
	// ConsumeCPU spends up to amount of the CPU burst and returns what is left.
	ConsumeCPU(amount time.Duration) time.Duration
	// ConsumeIO spends up to amount of the blocking burst and returns what is left.
	ConsumeIO(amount time.Duration) time.Duration
	// Finished reports whether both bursts are exhausted.
	Finished() bool
}

// InterruptKind identifies why a queue hands a process back to the scheduler.
type InterruptKind int

const (
	// InterruptNone is the zero value; it is never delivered.
	InterruptNone InterruptKind = iota
	// InterruptProcessBlocked means the CPU burst is done and I/O remains.
	InterruptProcessBlocked
	// InterruptProcessReady means the I/O burst is done.
	InterruptProcessReady
	// InterruptLowerPriority means the turn ended before the burst did.
	InterruptLowerPriority
)

func (k InterruptKind) String() string {
	switch k {
	case InterruptNone:
		return "NONE"
	case InterruptProcessBlocked:
		return "PROCESS_BLOCKED"
	case InterruptProcessReady:
		return "PROCESS_READY"
	case InterruptLowerPriority:
		return "LOWER_PRIORITY"
	default:
		return "UNKNOWN"
	}
}

// Interrupt is raised by a queue and resolved by the scheduler.
type Interrupt struct {
	Kind    InterruptKind
	Queue   *Queue
	Process Process
}

// InterruptHandler resolves interrupts emitted by queues.
type InterruptHandler interface {
	HandleInterrupt(irq Interrupt) error
}
