package script

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gridengine/pkg/grid"
)

// Step is the outcome of applying one command.
type Step struct {
	Index   int // position in the command list
	Command Command
	Changes grid.ChangeSet // committed changes; empty when Err is set
	Err     error
	Elapsed time.Duration
}

// Summary counts the outcome of a [Runner.Run].
type Summary struct {
	Applied int
	Failed  int
}

// Runner applies commands to an engine one by one.
//
// Failing commands are reported through OnStep and counted; the run goes on
// unless StopOnError is set. Delay pauses between commands (the play command
// uses it to animate a script) and is cut short by context cancellation.
type Runner struct {
	Delay       time.Duration
	StopOnError bool
	OnStep      func(Step)
	Logger      *log.Logger
}

// NewRunner creates a runner that reports steps to onStep.
// If logger is nil, the default logger is used.
func NewRunner(onStep func(Step), logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{OnStep: onStep, Logger: logger}
}

// Run applies cmds to e in order. It returns the first command error when
// StopOnError is set, and ctx.Err() when the context ends mid-run.
func (r *Runner) Run(ctx context.Context, e *grid.Engine, cmds []Command) (Summary, error) {
	logger := r.Logger
	if logger == nil {
		logger = log.Default()
	}

	var last grid.ChangeSet
	id := e.AddListener(func(cs grid.ChangeSet) { last = cs })
	defer e.RemoveListener(id)

	var sum Summary
	for i, cmd := range cmds {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		last = grid.ChangeSet{}
		start := time.Now()
		err := cmd.Apply(e)
		step := Step{Index: i, Command: cmd, Changes: last, Err: err, Elapsed: time.Since(start)}

		if err != nil {
			sum.Failed++
			logger.Warn("instruction failed", "line", cmd.Line, "cmd", cmd.String(), "err", err)
		} else {
			sum.Applied++
			logger.Debug("instruction applied", "line", cmd.Line, "cmd", cmd.String(), "changes", last.Len())
		}
		if r.OnStep != nil {
			r.OnStep(step)
		}
		if err != nil && r.StopOnError {
			return sum, err
		}

		if r.Delay > 0 && i < len(cmds)-1 {
			select {
			case <-ctx.Done():
				return sum, ctx.Err()
			case <-time.After(r.Delay):
			}
		}
	}
	return sum, nil
}
