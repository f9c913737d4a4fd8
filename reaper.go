package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// Configuration defaults
const (
	// DefaultGracePeriod is how long a process gets to exit after the
	// graceful signal before it is force killed
	DefaultGracePeriod = 1 * time.Second

	// killSettleDelay is how long to wait after a force kill before
	// checking whether it took
	killSettleDelay = 100 * time.Millisecond
)

// Outcome describes what happened to a single process
type Outcome int

const (
	// OutcomeTerminated: the process exited on the graceful signal
	OutcomeTerminated Outcome = iota
	// OutcomeForceKilled: the process survived the grace period and was
	// ended forcefully
	OutcomeForceKilled
	// OutcomeAlreadyGone: the process vanished before it could be signaled
	OutcomeAlreadyGone
	// OutcomeFailed: the process could not be terminated (permission
	// denied, or still alive after the forceful signal)
	OutcomeFailed
)

// String returns a short human-readable label for the outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeTerminated:
		return "terminated"
	case OutcomeForceKilled:
		return "force killed"
	case OutcomeAlreadyGone:
		return "already gone"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// KillResult is the per-process result of a reap
type KillResult struct {
	PID     int
	Outcome Outcome
	Err     error
}

// Reaper finds the processes listening on a port and terminates them,
// graceful signal first, then forceful after the grace period.
type Reaper struct {
	Scanner PortScanner
	Killer  ProcessKiller
	Grace   time.Duration
	Out     io.Writer
}

// NewReaper returns a Reaper with the default scanner, killer and grace
// period, reporting to out.
func NewReaper(out io.Writer) *Reaper {
	return &Reaper{
		Scanner: NewScanner(),
		Killer:  NewKiller(),
		Grace:   DefaultGracePeriod,
		Out:     out,
	}
}

// Reap discovers every process listening on port and terminates each one
// in turn. Discovering nothing is success. The returned error covers
// discovery only; per-process failures are reported in the results.
func (r *Reaper) Reap(ctx context.Context, port int) ([]KillResult, error) {
	owners, err := FindOwners(ctx, r.Scanner, port)
	if err != nil {
		return nil, fmt.Errorf("scanning port %d: %w", port, err)
	}

	if len(owners) == 0 {
		fmt.Fprintf(r.Out, "No processes found using port %d\n", port)
		return nil, nil
	}

	pids := make([]int, len(owners))
	for i, p := range owners {
		pids[i] = p.PID
	}
	fmt.Fprintf(r.Out, "Found processes: %s\n", joinInts(pids))

	results := make([]KillResult, 0, len(owners))
	for _, p := range owners {
		results = append(results, r.ReapProcess(ctx, p.PID))
	}

	fmt.Fprintf(r.Out, "Cleaned up port %d\n", port)
	return results, nil
}

// ReapProcess runs the termination sequence for a single PID: graceful
// signal, grace period, liveness re-check, forceful signal for survivors.
// Each step emits a status line.
func (r *Reaper) ReapProcess(ctx context.Context, pid int) KillResult {
	fmt.Fprintf(r.Out, "Killing process %d...\n", pid)

	if err := r.Killer.Terminate(pid); err != nil {
		if errors.Is(err, errProcessGone) {
			// Vanished between discovery and signal; nothing to do
			fmt.Fprintf(r.Out, "Process %d already terminated\n", pid)
			return KillResult{PID: pid, Outcome: OutcomeAlreadyGone}
		}
		fmt.Fprintf(r.Out, "Could not kill process %d: %v\n", pid, err)
		return KillResult{PID: pid, Outcome: OutcomeFailed, Err: err}
	}

	if err := sleepCtx(ctx, r.Grace); err != nil {
		// Cancelled mid-wait; report what we know without escalating
		fmt.Fprintf(r.Out, "Could not kill process %d: %v\n", pid, err)
		return KillResult{PID: pid, Outcome: OutcomeFailed, Err: err}
	}

	if !r.Killer.Alive(pid) {
		fmt.Fprintf(r.Out, "Process %d terminated successfully\n", pid)
		return KillResult{PID: pid, Outcome: OutcomeTerminated}
	}

	fmt.Fprintf(r.Out, "Force killing process %d...\n", pid)
	if err := r.Killer.Kill(pid); err != nil && !errors.Is(err, errProcessGone) {
		fmt.Fprintf(r.Out, "Could not kill process %d: %v\n", pid, err)
		return KillResult{PID: pid, Outcome: OutcomeFailed, Err: err}
	}

	// SIGKILL delivery isn't instant; give the kernel a moment
	if err := sleepCtx(ctx, killSettleDelay); err == nil && r.Killer.Alive(pid) {
		err := fmt.Errorf("process %d still running after force kill", pid)
		fmt.Fprintf(r.Out, "Could not kill process %d: %v\n", pid, err)
		return KillResult{PID: pid, Outcome: OutcomeFailed, Err: err}
	}

	fmt.Fprintf(r.Out, "Process %d force killed\n", pid)
	return KillResult{PID: pid, Outcome: OutcomeForceKilled}
}

// Failures counts results that ended in OutcomeFailed
func Failures(results []KillResult) int {
	count := 0
	for _, res := range results {
		if res.Outcome == OutcomeFailed {
			count++
		}
	}
	return count
}

// sleepCtx blocks for d or until ctx is cancelled
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
