// Package main implements portreaper, a tool that terminates processes
// bound to TCP ports.
//
// Given one or more port numbers, portreaper finds every process holding
// a listening socket on them, asks each to shut down gracefully, waits a
// grace period, and force kills any survivor, printing a status line per
// step. Run with no arguments it opens an interactive browser over all
// listening processes instead.
//
// # Architecture
//
// The codebase is organized into the following components:
//
//   - reaper.go: The termination sequence (Reaper) and per-process outcomes
//   - ports.go: Process discovery (PortScanner interface) with a native
//     gopsutil scanner and an lsof fallback
//   - kill.go: Process signaling and liveness (ProcessKiller interface)
//   - main.go: CLI entry point, flags and exit codes
//   - model.go: TUI model for interactive mode (Bubbletea, Elm architecture)
//   - formatter.go: Command string formatting with an extensible
//     CommandFormatter interface
//   - styles.go, keys.go, messages.go, helpers.go: TUI support
//
// # Extensibility
//
// Custom command formatters can be registered using RegisterFormatter:
//
//	RegisterFormatter(&MyCustomFormatter{})
//
// The PortScanner and ProcessKiller interfaces allow for custom
// implementations and easier testing through dependency injection.
package main
