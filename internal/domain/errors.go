// Package domain contains domain models and simulation errors.
package domain

import "errors"

// Common domain errors
var (
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidArgument is returned when an invalid argument is provided.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrEmptyQueue is returned when dequeuing from an empty queue.
	// It means an IsEmpty guard was skipped and is fatal to the run.
	ErrEmptyQueue = errors.New("queue is empty")

	// ErrUnknownInterrupt is returned when the scheduler receives an interrupt
	// kind it does not handle.
	ErrUnknownInterrupt = errors.New("unknown interrupt")

	// ErrAlreadyRunning is returned when a scheduler run is started twice.
	ErrAlreadyRunning = errors.New("scheduler already running")
)
