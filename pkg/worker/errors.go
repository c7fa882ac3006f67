package worker

import "errors"

// Sentinel errors for agent pool operations
var (
	// ErrPoolNotStarted indicates the pool hasn't been started yet
	ErrPoolNotStarted = errors.New("agent pool not started")

	// ErrPoolStopped indicates the pool has been stopped
	ErrPoolStopped = errors.New("agent pool stopped")

	// ErrPoolAlreadyStarted indicates Start() was called on an already-started pool
	ErrPoolAlreadyStarted = errors.New("agent pool already started")

	// ErrNilPoller indicates a nil poll function was provided
	ErrNilPoller = errors.New("poll function cannot be nil")

	// ErrNilHandler indicates a nil handler function was provided
	ErrNilHandler = errors.New("handler function cannot be nil")

	// ErrStopTimeout indicates the pool didn't stop within the timeout
	ErrStopTimeout = errors.New("timeout waiting for agents to stop")
)
