package queue

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Runner is a long-running loop that exits cleanly on context cancellation.
// Consumers satisfy it.
type Runner interface {
	Run(ctx context.Context) error
}

// Supervisor runs one consumer loop per stream concurrently. A fatal startup
// error in any loop cancels the rest; otherwise all loops run until the
// supervisor's context is cancelled.
type Supervisor struct {
	runners []Runner
}

// NewSupervisor creates a supervisor over the given runners.
func NewSupervisor(runners ...Runner) *Supervisor {
	return &Supervisor{runners: runners}
}

// Run blocks until every runner has returned.
func (s *Supervisor) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, runner := range s.runners {
		runner := runner
		g.Go(func() error {
			return runner.Run(ctx)
		})
	}
	return g.Wait()
}
