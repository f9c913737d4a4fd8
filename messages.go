package main

import "time"

// TUI messages for the Elm architecture

// tickMsg is sent periodically to trigger auto-refresh
type tickMsg time.Time

// refreshMsg contains the updated process list or an error
type refreshMsg struct {
	processes []Process
	err       error
}

// reapResultMsg reports the outcome of reaping one process
type reapResultMsg struct {
	result    KillResult
	port      int
	remaining int // how many left in the batch
}
