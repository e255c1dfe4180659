package testmatches

import "time"

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Health check retry constants.
const (
	healthCheckAttempts = 5
	healthCheckDelay    = 500 * time.Millisecond
	healthCheckMaxDelay = 5 * time.Second
)

// PercentageMultiplier converts ratios to percentages.
const PercentageMultiplier = 100

// scoreTolerance absorbs float formatting noise when checking bounds.
const scoreTolerance = 1e-9
