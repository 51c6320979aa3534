package toast

import "context"

// Operation is a cancellable unit of work run by a Center.
//
// Run is called at most once, by the Center worker, and must return only when
// the unit has finished or observed cancellation. Cancel may be called from
// any goroutine at any time and must be idempotent. A unit cancelled before
// Run is called may be dropped from the queue without Run ever being called,
// so Cancel is responsible for signalling completion in that case.
type Operation interface {
	Run(ctx context.Context)
	Cancel()
	IsCancelled() bool
	IsFinished() bool
}

// Outcome is how a toast ended.
type Outcome int

const (
	// OutcomeShown means the toast ran its full fade-in, hold and fade-out.
	OutcomeShown Outcome = iota
	// OutcomeCancelled means the toast was cancelled or dismissed early.
	OutcomeCancelled
	// OutcomeFailed means the toast could not be rendered.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeShown:
		return "shown"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}
