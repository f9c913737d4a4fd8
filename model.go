package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Configuration constants
const (
	// RefreshInterval is how often the process list auto-refreshes
	RefreshInterval = 2 * time.Second

	// StatusDisplayDuration is how long status messages are shown
	StatusDisplayDuration = 3 * time.Second

	// SystemPortThreshold is the boundary between system and user ports
	SystemPortThreshold = 1024

	// DefaultCommandWidth is the minimum width for the command column
	DefaultCommandWidth = 50

	// MinTerminalWidth is the threshold for adjusting command width
	MinTerminalWidth = 60

	// ColumnWidthOffset accounts for other columns when calculating command width
	ColumnWidthOffset = 55

	// MinFullCommandWidth is the minimum width for the full command detail line
	MinFullCommandWidth = 20

	// DefaultFullCommandWidth is used when terminal width is unknown
	DefaultFullCommandWidth = 80
)

// Model represents the TUI state
type Model struct {
	reaper          *Reaper
	processes       []Process
	cursor          int
	selected        map[int]bool // PID -> selected
	showSystemPorts bool
	confirming      bool
	reaping         bool
	toReap          []Process // processes to reap in batch
	reapIndex       int       // current index in batch
	failures        int       // failed outcomes in current batch
	statusMessage   string
	statusIsError   bool
	statusTime      time.Time
	width           int
	height          int
	lastError       error // last error from port scanning
}

// NewModel creates a new Model driven by the given reaper
func NewModel(reaper *Reaper) Model {
	return Model{
		reaper:    reaper,
		processes: []Process{},
		selected:  make(map[int]bool),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.refreshPorts(),
		m.tickCmd(),
	)
}

// tickCmd returns a command that sends a tick at the refresh interval
func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refreshPorts fetches the current listening processes
func (m Model) refreshPorts() tea.Cmd {
	return func() tea.Msg {
		processes, err := m.reaper.Scanner.Scan(context.Background())
		return refreshMsg{processes: processes, err: err}
	}
}

// reapCmd runs the full graceful-then-forceful sequence for one process.
// This blocks for at least the grace period, so it runs as an async command.
func (m Model) reapCmd(p Process, remaining int) tea.Cmd {
	return func() tea.Msg {
		result := m.reaper.ReapProcess(context.Background(), p.PID)
		return reapResultMsg{
			result:    result,
			port:      p.LowestPort(),
			remaining: remaining,
		}
	}
}

// filteredProcesses returns processes filtered by the system port setting
func (m Model) filteredProcesses() []Process {
	filtered := make([]Process, 0)

	for _, p := range m.processes {
		if !m.showSystemPorts {
			hasUserPort := false
			for _, port := range p.Ports {
				if port >= SystemPortThreshold {
					hasUserPort = true
					break
				}
			}
			if !hasUserPort {
				continue
			}
		}
		filtered = append(filtered, p)
	}

	return filtered
}

// selectedCount returns the number of selected processes
func (m Model) selectedCount() int {
	count := 0
	for _, p := range m.filteredProcesses() {
		if m.selected[p.PID] {
			count++
		}
	}
	return count
}

// getSelectedProcesses returns all selected processes
func (m Model) getSelectedProcesses() []Process {
	var result []Process
	for _, p := range m.filteredProcesses() {
		if m.selected[p.PID] {
			result = append(result, p)
		}
	}
	return result
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Confirmation mode
		if m.confirming {
			switch {
			case key.Matches(msg, keys.Confirm):
				m.confirming = false
				if len(m.toReap) > 0 {
					m.reaping = true
					m.reapIndex = 0
					m.failures = 0
					p := m.toReap[0]
					m.statusMessage = fmt.Sprintf("Reaping process %d...", p.PID)
					m.statusIsError = false
					m.statusTime = time.Now()
					return m, m.reapCmd(p, len(m.toReap)-1)
				}
				return m, nil
			case key.Matches(msg, keys.Cancel):
				m.confirming = false
				m.toReap = nil
				m.statusMessage = "Cancelled"
				m.statusIsError = false
				m.statusTime = time.Now()
				return m, nil
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}

		case key.Matches(msg, keys.Down):
			filtered := m.filteredProcesses()
			if m.cursor < len(filtered)-1 {
				m.cursor++
			}

		case key.Matches(msg, keys.Select):
			filtered := m.filteredProcesses()
			if len(filtered) > 0 && m.cursor < len(filtered) {
				p := filtered[m.cursor]
				m.selected[p.PID] = !m.selected[p.PID]
			}

		case key.Matches(msg, keys.SelectAll):
			filtered := m.filteredProcesses()
			allSelected := true
			for _, p := range filtered {
				if !m.selected[p.PID] {
					allSelected = false
					break
				}
			}
			for _, p := range filtered {
				m.selected[p.PID] = !allSelected
			}

		case key.Matches(msg, keys.Reap):
			if m.reaping {
				return m, nil
			}
			filtered := m.filteredProcesses()
			if len(filtered) == 0 {
				return m, nil
			}

			// Reap the selection if there is one, the cursor row otherwise
			selected := m.getSelectedProcesses()
			if len(selected) > 0 {
				m.toReap = selected
				m.confirming = true
			} else if m.cursor < len(filtered) {
				m.toReap = []Process{filtered[m.cursor]}
				m.confirming = true
			}

		case key.Matches(msg, keys.Refresh):
			m.statusMessage = "Refreshing..."
			m.statusIsError = false
			m.statusTime = time.Now()
			return m, m.refreshPorts()

		case key.Matches(msg, keys.Toggle):
			m.showSystemPorts = !m.showSystemPorts
			filtered := m.filteredProcesses()
			if m.cursor >= len(filtered) {
				m.cursor = max(0, len(filtered)-1)
			}
			if m.showSystemPorts {
				m.statusMessage = "Showing all ports"
			} else {
				m.statusMessage = fmt.Sprintf("Showing user ports only (>=%d)", SystemPortThreshold)
			}
			m.statusIsError = false
			m.statusTime = time.Now()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		// Don't refresh while confirming or mid-reap
		if m.confirming || m.reaping {
			return m, m.tickCmd()
		}
		return m, tea.Batch(m.refreshPorts(), m.tickCmd())

	case refreshMsg:
		if msg.err != nil {
			m.lastError = msg.err
			m.statusMessage = "Error scanning ports"
			m.statusIsError = true
			m.statusTime = time.Now()
			return m, nil
		}
		m.lastError = nil

		m.processes = msg.processes
		sort.Slice(m.processes, func(i, j int) bool {
			return m.processes[i].LowestPort() < m.processes[j].LowestPort()
		})

		// Drop selections for PIDs that no longer exist
		existingPIDs := make(map[int]bool)
		for _, p := range m.processes {
			existingPIDs[p.PID] = true
		}
		for pid := range m.selected {
			if !existingPIDs[pid] {
				delete(m.selected, pid)
			}
		}

		filtered := m.filteredProcesses()
		if m.cursor >= len(filtered) {
			m.cursor = max(0, len(filtered)-1)
		}

	case reapResultMsg:
		m.reapIndex++

		if msg.result.Outcome == OutcomeFailed {
			m.failures++
		} else {
			delete(m.selected, msg.result.PID)
		}

		// More in the batch?
		if m.reapIndex < len(m.toReap) {
			p := m.toReap[m.reapIndex]
			m.statusMessage = fmt.Sprintf("Reaping process %d...", p.PID)
			m.statusIsError = false
			m.statusTime = time.Now()
			return m, m.reapCmd(p, len(m.toReap)-m.reapIndex-1)
		}

		// Batch done
		batchSize := len(m.toReap)
		failures := m.failures
		m.toReap = nil
		m.reapIndex = 0
		m.failures = 0
		m.reaping = false

		switch {
		case batchSize == 1 && failures == 0:
			m.statusMessage = fmt.Sprintf("Process %d %s (port %d)",
				msg.result.PID, msg.result.Outcome, msg.port)
			m.statusIsError = false
		case batchSize == 1:
			m.statusMessage = fmt.Sprintf("Failed to kill process %d: %v",
				msg.result.PID, msg.result.Err)
			m.statusIsError = true
		case failures == 0:
			m.statusMessage = fmt.Sprintf("Reaped %d processes", batchSize)
			m.statusIsError = false
		default:
			m.statusMessage = fmt.Sprintf("Reaped %d of %d processes (%d failed)",
				batchSize-failures, batchSize, failures)
			m.statusIsError = true
		}
		m.statusTime = time.Now()
		return m, m.refreshPorts()
	}

	return m, nil
}

// View renders the UI
func (m Model) View() string {
	var sb strings.Builder

	// Title with selection count
	title := "portreaper"
	if m.showSystemPorts {
		title += " (all ports)"
	} else {
		title += " (user ports)"
	}
	if count := m.selectedCount(); count > 0 {
		title += " " + selectedCountStyle.Render(fmt.Sprintf("[%d selected]", count))
	}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteByte('\n')

	// Header
	header := fmt.Sprintf("    %-18s %-8s %-15s %-12s %s",
		"PORT", "PID", "PROCESS", "USER", "COMMAND")
	sb.WriteString(headerStyle.Render(header))
	sb.WriteByte('\n')

	filtered := m.filteredProcesses()

	if len(filtered) == 0 {
		sb.WriteString(emptyStyle.Render("No listening ports found"))
		sb.WriteByte('\n')
	} else {
		for i, p := range filtered {
			checkbox := checkboxUnchecked
			if m.selected[p.PID] {
				checkbox = checkboxChecked
			}

			cmd := formatCommand(p.Command)
			maxCmdLen := DefaultCommandWidth
			if m.width > MinTerminalWidth {
				maxCmdLen = m.width - ColumnWidthOffset
			}
			if len(cmd) > maxCmdLen {
				cmd = cmd[:maxCmdLen-3] + "..."
			}

			line := fmt.Sprintf("%s %s %s %s %s %s",
				checkbox,
				portStyle.Render(fmt.Sprintf("%-18s", formatPorts(p.Ports, 18))),
				pidStyle.Render(fmt.Sprintf("%-8d", p.PID)),
				nameStyle.Render(truncate(p.Name, 15)),
				userStyle.Render(truncate(p.User, 12)),
				commandStyle.Render(cmd),
			)

			if i == m.cursor {
				sb.WriteString(selectedStyle.Render(line))
			} else if m.selected[p.PID] {
				sb.WriteString(checkedStyle.Render(line))
			} else {
				sb.WriteString(normalStyle.Render(line))
			}
			sb.WriteByte('\n')
		}
	}

	// Full command for the focused row
	if len(filtered) > 0 && m.cursor < len(filtered) && !m.confirming {
		fullCmd := filtered[m.cursor].Command
		maxLen := m.width - 4 // Account for "> " prefix and some padding
		if maxLen < MinFullCommandWidth {
			maxLen = DefaultFullCommandWidth
		}
		if len(fullCmd) > maxLen {
			fullCmd = fullCmd[:maxLen-3] + "..."
		}
		sb.WriteByte('\n')
		sb.WriteString(cmdDetailStyle.Render("> " + fullCmd))
	}

	// Confirmation prompt
	if m.confirming {
		if len(m.toReap) == 1 {
			p := m.toReap[0]
			portsStr := formatPorts(p.Ports, 40)
			if len(p.Ports) == 1 {
				sb.WriteString(confirmStyle.Render(fmt.Sprintf("\nReap process %d on port %s? (y/n)", p.PID, portsStr)))
			} else {
				sb.WriteString(confirmStyle.Render(fmt.Sprintf("\nReap process %d on ports %s? (y/n)", p.PID, portsStr)))
			}
		} else {
			sb.WriteString(confirmStyle.Render(fmt.Sprintf("\nReap %d selected processes? (y/n)", len(m.toReap))))
		}
	}

	// Status message (shown for the configured duration, or while reaping)
	if m.statusMessage != "" && (m.reaping || time.Since(m.statusTime) < StatusDisplayDuration) {
		sb.WriteByte('\n')
		if m.statusIsError {
			sb.WriteString(failureStyle.Render(m.statusMessage))
		} else {
			sb.WriteString(statusStyle.Render(m.statusMessage))
		}
	}

	help := "↑/k up • ↓/j down • space select • a select all • enter/d reap • r refresh • s system ports • q quit"
	sb.WriteByte('\n')
	sb.WriteString(helpStyle.Render(help))

	return sb.String()
}
