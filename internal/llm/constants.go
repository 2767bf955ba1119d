package llm

import "time"

// Shared client constants, centralized to avoid redeclaration across the
// provider implementations.
const (
	defaultTimeout    = 120 * time.Second
	maxRetries        = 3
	initialRetryDelay = 2 * time.Second
)
