package videogen

import "time"

// State describes the lifecycle of a remote generation operation.
type State string

const (
	StatePending State = "PENDING"
	StateDone    State = "DONE"
	StateFailed  State = "FAILED"
)

// Terminal reports whether the state is final. A terminal operation never
// changes again.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// SourceMedia is an optional still image that conditions the generation.
type SourceMedia struct {
	Data     []byte
	MIMEType string
}

// GenerationRequest captures the inputs for a video generation. Parameters
// are forwarded to the remote API untouched so new tuning knobs need no
// client change.
type GenerationRequest struct {
	Prompt      string
	Parameters  map[string]any
	SourceMedia *SourceMedia
}

// Operation is the local view of a remote long-running generation job. It
// starts PENDING and moves at most once, to DONE with a result locator or to
// FAILED with a terminal error.
type Operation struct {
	ID     string
	State  State
	Result string
	Err    error
}

// Default polling bounds, applied when a policy leaves them unset.
const (
	DefaultPollInterval = 20 * time.Second
	DefaultMaxWait      = 6 * time.Minute
)

// PollingPolicy bounds how AwaitCompletion watches an operation. The zero
// value picks the client and package defaults.
type PollingPolicy struct {
	// Interval is the pause between successful status checks.
	Interval time.Duration
	// MaxWait is the total wall-clock budget for reaching a terminal state.
	MaxWait time.Duration
}

func (p PollingPolicy) resolve(fallback PollingPolicy) PollingPolicy {
	if p.Interval <= 0 {
		p.Interval = fallback.Interval
	}
	if p.MaxWait <= 0 {
		p.MaxWait = fallback.MaxWait
	}
	if p.Interval <= 0 {
		p.Interval = DefaultPollInterval
	}
	if p.MaxWait <= 0 {
		p.MaxWait = DefaultMaxWait
	}
	return p
}
