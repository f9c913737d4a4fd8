package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// version is set at build time via ldflags
var version = "dev"

func main() {
	var (
		grace       = flag.Duration("grace", DefaultGracePeriod, "how long to wait for graceful shutdown before force killing")
		showVersion = flag.Bool("version", false, "show version")
	)
	flag.Usage = printUsage
	flag.Parse()

	if *showVersion {
		fmt.Println("portreaper", version)
		return
	}

	// No port arguments: interactive mode
	if flag.NArg() == 0 {
		runTUI(*grace)
		return
	}

	ports, err := parsePortArgs(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "portreaper: %v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	os.Exit(runReap(ports, *grace))
}

// runReap handles each port in turn and returns the process exit code:
// 0 when everything was handled (including nothing to do), 1 when any
// process could not be terminated or discovery failed.
func runReap(ports []int, grace time.Duration) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reaper := NewReaper(os.Stdout)
	reaper.Grace = grace

	exitCode := 0
	for _, port := range ports {
		results, err := reaper.Reap(ctx, port)
		if err != nil {
			fmt.Fprintf(os.Stderr, "portreaper: %v\n", err)
			exitCode = 1
			continue
		}
		if Failures(results) > 0 {
			exitCode = 1
		}
	}
	return exitCode
}

func runTUI(grace time.Duration) {
	// Status lines go through the model, not the terminal the TUI owns
	reaper := NewReaper(io.Discard)
	reaper.Grace = grace

	p := tea.NewProgram(NewModel(reaper), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "portreaper: %v\n", err)
		os.Exit(1)
	}
}

// parsePortArgs validates positional arguments as port numbers
func parsePortArgs(args []string) ([]int, error) {
	ports := make([]int, 0, len(args))
	for _, arg := range args {
		port, err := strconv.Atoi(arg)
		if err != nil || port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid port %q", arg)
		}
		ports = append(ports, port)
	}
	return ports, nil
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `portreaper - terminate processes bound to TCP ports

Usage:
  portreaper [flags] [PORT ...]

With one or more ports, each listening process gets a graceful signal,
a grace period to exit, then a forceful signal if it survives.
Without arguments, an interactive process browser opens instead.

Flags:
  -grace duration   Wait before force killing (default 1s)
  -version          Show version

Exit codes:
  0  all processes handled, or nothing to do
  1  a process could not be terminated
  2  usage error`)
}
