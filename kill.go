package main

import (
	"errors"
	"os"
	"syscall"

	"github.com/shirou/gopsutil/v3/process"
)

// errProcessGone marks a signal sent to a PID that no longer exists.
// Per the reaping rules this is "already terminated", not a failure.
var errProcessGone = errors.New("process already gone")

// ProcessKiller signals processes and checks their liveness.
type ProcessKiller interface {
	// Terminate requests an orderly shutdown (SIGTERM on Unix).
	Terminate(pid int) error

	// Kill ends the process unconditionally (SIGKILL on Unix).
	Kill(pid int) error

	// Alive reports whether the process still exists.
	Alive(pid int) bool
}

// gopsutilKiller signals processes through gopsutil, which picks the
// right mechanism per platform (kill syscalls on Unix, TerminateProcess
// on Windows).
type gopsutilKiller struct{}

// NewKiller returns the default ProcessKiller.
func NewKiller() ProcessKiller {
	return gopsutilKiller{}
}

func (gopsutilKiller) Terminate(pid int) error {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return goneOrErr(err)
	}
	return goneOrErr(p.Terminate())
}

func (gopsutilKiller) Kill(pid int) error {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return goneOrErr(err)
	}
	return goneOrErr(p.Kill())
}

func (gopsutilKiller) Alive(pid int) bool {
	exists, err := process.PidExists(int32(pid))
	return err == nil && exists
}

// goneOrErr maps the various "no such process" errors onto errProcessGone
// so callers can treat a vanished PID uniformly
func goneOrErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, process.ErrorProcessNotRunning),
		errors.Is(err, os.ErrProcessDone),
		errors.Is(err, syscall.ESRCH):
		return errProcessGone
	default:
		return err
	}
}
