package main

import (
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	gnet "github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"
)

// Process represents a process holding one or more listening TCP sockets
type Process struct {
	PID     int
	Ports   []int
	Name    string
	User    string
	Command string
}

// LowestPort returns the lowest port number for this process
func (p Process) LowestPort() int {
	if len(p.Ports) == 0 {
		return 0
	}
	return p.Ports[0] // Ports are kept sorted, so first is lowest
}

// ListensOn reports whether this process holds a listening socket on port
func (p Process) ListensOn(port int) bool {
	for _, pp := range p.Ports {
		if pp == port {
			return true
		}
	}
	return false
}

// PortScanner discovers processes holding listening TCP sockets.
type PortScanner interface {
	Scan(ctx context.Context) ([]Process, error)
}

// NewScanner returns the default scanner: native socket-table introspection,
// falling back to lsof on platforms or permission setups where that fails.
func NewScanner() PortScanner {
	return &fallbackScanner{
		primary:  &nativeScanner{},
		fallback: &lsofScanner{lookupCommand: getFullCommand},
	}
}

// FindOwners returns the processes that hold a listening socket on port.
// An empty result means the port is free; that is not an error.
func FindOwners(ctx context.Context, scanner PortScanner, port int) ([]Process, error) {
	all, err := scanner.Scan(ctx)
	if err != nil {
		return nil, err
	}

	var owners []Process
	for _, p := range all {
		if p.ListensOn(port) {
			owners = append(owners, p)
		}
	}
	// Stable order for output; the reaper itself does not depend on it
	sort.Slice(owners, func(i, j int) bool { return owners[i].PID < owners[j].PID })
	return owners, nil
}

// fallbackScanner tries the primary scanner and falls back on error
type fallbackScanner struct {
	primary  PortScanner
	fallback PortScanner
}

func (s *fallbackScanner) Scan(ctx context.Context) ([]Process, error) {
	processes, err := s.primary.Scan(ctx)
	if err == nil {
		return processes, nil
	}
	return s.fallback.Scan(ctx)
}

// nativeScanner reads the kernel socket table via gopsutil
type nativeScanner struct{}

func (s *nativeScanner) Scan(ctx context.Context) ([]Process, error) {
	conns, err := gnet.ConnectionsWithContext(ctx, "tcp")
	if err != nil {
		return nil, fmt.Errorf("reading socket table: %w", err)
	}

	processMap := make(map[int]*Process)
	seenPorts := make(map[int]map[int]bool) // PID -> port -> seen (dedup v4/v6)

	for _, conn := range conns {
		if conn.Status != "LISTEN" || conn.Pid == 0 {
			// A socket without an attributable owner can't be signaled anyway
			continue
		}

		pid := int(conn.Pid)
		port := int(conn.Laddr.Port)

		if seenPorts[pid] == nil {
			seenPorts[pid] = make(map[int]bool)
		}
		if seenPorts[pid][port] {
			continue
		}
		seenPorts[pid][port] = true

		if proc, exists := processMap[pid]; exists {
			proc.Ports = append(proc.Ports, port)
			continue
		}
		processMap[pid] = &Process{
			PID:   pid,
			Ports: []int{port},
		}
	}

	processes := make([]Process, 0, len(processMap))
	for _, proc := range processMap {
		s.enrich(ctx, proc)
		sort.Ints(proc.Ports)
		processes = append(processes, *proc)
	}

	return processes, nil
}

// enrich fills in name, user and command line for a discovered PID.
// A process may exit between the socket scan and here; partial info is fine.
func (s *nativeScanner) enrich(ctx context.Context, proc *Process) {
	p, err := process.NewProcessWithContext(ctx, int32(proc.PID))
	if err != nil {
		return
	}
	if name, err := p.NameWithContext(ctx); err == nil {
		proc.Name = name
	}
	if user, err := p.UsernameWithContext(ctx); err == nil {
		proc.User = user
	}
	if cmdline, err := p.CmdlineWithContext(ctx); err == nil {
		proc.Command = cmdline
	}
}

// lsofScanner shells out to lsof for platforms where the socket table
// isn't readable directly
type lsofScanner struct {
	lookupCommand func(pid int) string
}

func (s *lsofScanner) Scan(ctx context.Context) ([]Process, error) {
	// -iTCP: only TCP connections
	// -sTCP:LISTEN: only listening sockets
	// -n: no hostname resolution
	// -P: no port name resolution
	cmd := exec.CommandContext(ctx, "lsof", "-iTCP", "-sTCP:LISTEN", "-n", "-P")
	output, err := cmd.Output()
	if err != nil {
		// lsof returns exit code 1 if no results, which is fine
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
			return []Process{}, nil
		}
		return nil, fmt.Errorf("running lsof: %w", err)
	}

	return parseLsofOutput(string(output), s.lookupCommand)
}

// parseLsofOutput parses lsof output into Process structs, grouping ports by PID
func parseLsofOutput(output string, lookupCommand func(pid int) string) ([]Process, error) {
	lines := strings.Split(output, "\n")
	processMap := make(map[int]*Process)
	seenPorts := make(map[int]map[int]bool) // PID -> port (dedup across interfaces)

	for i, line := range lines {
		// Skip header line
		if i == 0 || strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 9 {
			continue
		}

		// lsof output format:
		// COMMAND PID USER FD TYPE DEVICE SIZE/OFF NODE NAME
		// node    123 user 22u IPv4 ...    0t0      TCP  *:3000 (LISTEN)

		name := fields[0]
		pidStr := fields[1]
		user := fields[2]
		nameField := fields[len(fields)-1]

		// Handle "(LISTEN)" suffix
		if nameField == "(LISTEN)" && len(fields) >= 10 {
			nameField = fields[len(fields)-2]
		}

		pid, err := strconv.Atoi(pidStr)
		if err != nil {
			continue
		}

		// Parse port from name field (e.g., "*:3000" or "127.0.0.1:8080")
		port := parsePort(nameField)
		if port == 0 {
			continue
		}

		if seenPorts[pid] == nil {
			seenPorts[pid] = make(map[int]bool)
		}
		if seenPorts[pid][port] {
			continue
		}
		seenPorts[pid][port] = true

		if proc, exists := processMap[pid]; exists {
			proc.Ports = append(proc.Ports, port)
		} else {
			// Full command line is fetched once per PID
			command := ""
			if lookupCommand != nil {
				command = lookupCommand(pid)
			}
			processMap[pid] = &Process{
				PID:     pid,
				Ports:   []int{port},
				Name:    name,
				User:    user,
				Command: command,
			}
		}
	}

	processes := make([]Process, 0, len(processMap))
	for _, proc := range processMap {
		sort.Ints(proc.Ports)
		processes = append(processes, *proc)
	}

	return processes, nil
}

// parsePort extracts the port number from a lsof NAME field
func parsePort(nameField string) int {
	// Handle formats like "*:3000", "127.0.0.1:8080", "[::1]:3000"
	parts := strings.Split(nameField, ":")
	if len(parts) < 2 {
		return 0
	}

	portStr := parts[len(parts)-1]
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0
	}

	return port
}

// getFullCommand gets the full command line for a PID
func getFullCommand(pid int) string {
	cmd := exec.Command("ps", "-p", strconv.Itoa(pid), "-o", "command=")
	output, err := cmd.Output()
	if err != nil {
		return ""
	}

	return strings.TrimSpace(string(output))
}
