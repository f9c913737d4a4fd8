package main

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Pre-compiled regular expressions for better performance
var (
	interpreterRegex = regexp.MustCompile(`^(?:\S*/)?(python[\d.]*|node|ruby|perl|php|java)\s+(\S+)`)
	homebrewRegex    = regexp.MustCompile(`/(?:opt/homebrew|usr/local)/Cellar/([^/]+)/`)
	appBundleRegex   = regexp.MustCompile(`/([^/]+)\.app/Contents/`)
)

// CommandFormatter is an interface for formatting command strings.
// Implement this interface to add custom formatting for specific applications.
type CommandFormatter interface {
	// Name returns the formatter name (for debugging/logging)
	Name() string

	// CanFormat returns true if this formatter can handle the given command
	CanFormat(cmd string) bool

	// Format returns the formatted command string
	Format(cmd string) string
}

// formatCommand applies all registered formatters to produce a readable command string.
// It tries each formatter in order and returns the first successful format.
func formatCommand(cmd string) string {
	if cmd == "" {
		return ""
	}

	for _, formatter := range registeredFormatters {
		if formatter.CanFormat(cmd) {
			result := formatter.Format(cmd)
			if result != "" {
				return result
			}
		}
	}

	return fallbackFormat(cmd)
}

// registeredFormatters holds all active formatters in priority order.
// Formatters earlier in the list take precedence.
var registeredFormatters = []CommandFormatter{
	&InterpreterFormatter{},
	&HomebrewFormatter{},
	&AppBundleFormatter{},
	&SystemBinaryFormatter{},
}

// RegisterFormatter adds a custom formatter to the beginning of the list (highest priority).
// This allows extending the formatting behavior at runtime.
func RegisterFormatter(f CommandFormatter) {
	registeredFormatters = append([]CommandFormatter{f}, registeredFormatters...)
}

// =============================================================================
// Built-in Formatters
// =============================================================================

// InterpreterFormatter handles interpreted scripts (python, node, ruby, ...).
// These dominate what ends up squatting on dev ports.
type InterpreterFormatter struct{}

func (f *InterpreterFormatter) Name() string { return "interpreter" }

func (f *InterpreterFormatter) CanFormat(cmd string) bool {
	return interpreterRegex.MatchString(cmd)
}

func (f *InterpreterFormatter) Format(cmd string) string {
	// Example: /usr/bin/python3 /srv/app/server.py -> python3: server.py
	matches := interpreterRegex.FindStringSubmatch(cmd)
	if len(matches) < 3 {
		return ""
	}

	interpreter := matches[1]
	script := filepath.Base(matches[2])

	// "node --inspect" style: the second token is a flag, not a script
	if strings.HasPrefix(script, "-") {
		return interpreter
	}

	return interpreter + ": " + script
}

// HomebrewFormatter handles binaries installed through Homebrew's Cellar
type HomebrewFormatter struct{}

func (f *HomebrewFormatter) Name() string { return "homebrew" }

func (f *HomebrewFormatter) CanFormat(cmd string) bool {
	return strings.Contains(cmd, "/Cellar/")
}

func (f *HomebrewFormatter) Format(cmd string) string {
	// Example: /opt/homebrew/Cellar/postgresql@16/16.3/bin/postgres -> postgres (brew)
	matches := homebrewRegex.FindStringSubmatch(cmd)
	if len(matches) < 2 {
		return ""
	}

	binary := filepath.Base(strings.Fields(cmd)[0])
	return binary + " (brew: " + matches[1] + ")"
}

// AppBundleFormatter handles binaries running from macOS .app bundles
type AppBundleFormatter struct{}

func (f *AppBundleFormatter) Name() string { return "app-bundle" }

func (f *AppBundleFormatter) CanFormat(cmd string) bool {
	return strings.Contains(cmd, ".app/Contents/")
}

func (f *AppBundleFormatter) Format(cmd string) string {
	// Example: /Applications/Docker.app/Contents/MacOS/com.docker.backend -> Docker (app)
	matches := appBundleRegex.FindStringSubmatch(cmd)
	if len(matches) < 2 {
		return ""
	}
	return matches[1] + " (app)"
}

// SystemBinaryFormatter handles plain binaries from the usual system paths
type SystemBinaryFormatter struct{}

func (f *SystemBinaryFormatter) Name() string { return "system-binary" }

func (f *SystemBinaryFormatter) CanFormat(cmd string) bool {
	first := strings.Fields(cmd)
	if len(first) == 0 {
		return false
	}
	for _, prefix := range []string{"/usr/bin/", "/usr/sbin/", "/usr/local/bin/", "/bin/", "/sbin/", "/usr/libexec/"} {
		if strings.HasPrefix(first[0], prefix) {
			return true
		}
	}
	return false
}

func (f *SystemBinaryFormatter) Format(cmd string) string {
	fields := strings.Fields(cmd)
	name := filepath.Base(fields[0])
	if len(fields) > 1 {
		return name + " " + strings.Join(fields[1:], " ")
	}
	return name
}

// fallbackFormat extracts a readable name when no formatter matched
func fallbackFormat(cmd string) string {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return cmd
	}

	base := filepath.Base(fields[0])
	// "nginx: master process" style titles have no path to clean up
	if base == fields[0] {
		return cmd
	}
	return base
}
