package main

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"testing"
)

func TestParseLsofOutput(t *testing.T) {
	// Mock command lookup that returns predictable results
	mockCommandLookup := func(pid int) string {
		switch pid {
		case 123:
			return "node /srv/project/server.js"
		case 456:
			return "/usr/bin/python3 app.py"
		case 789:
			return "nginx: master process"
		default:
			return ""
		}
	}

	tests := []struct {
		name     string
		input    string
		expected []Process
	}{
		{
			name: "single process single port",
			input: `COMMAND   PID   USER   FD   TYPE     DEVICE SIZE/OFF NODE NAME
node      123   user   22u  IPv4 0x123456      0t0  TCP *:3000 (LISTEN)`,
			expected: []Process{
				{PID: 123, Ports: []int{3000}, Name: "node", User: "user", Command: "node /srv/project/server.js"},
			},
		},
		{
			name: "single process multiple ports",
			input: `COMMAND   PID   USER   FD   TYPE     DEVICE SIZE/OFF NODE NAME
node      123   user   22u  IPv4 0x123456      0t0  TCP *:3000 (LISTEN)
node      123   user   23u  IPv4 0x123457      0t0  TCP *:3001 (LISTEN)
node      123   user   24u  IPv4 0x123458      0t0  TCP *:8080 (LISTEN)`,
			expected: []Process{
				{PID: 123, Ports: []int{3000, 3001, 8080}, Name: "node", User: "user", Command: "node /srv/project/server.js"},
			},
		},
		{
			name: "multiple processes",
			input: `COMMAND   PID   USER   FD   TYPE     DEVICE SIZE/OFF NODE NAME
node      123   user   22u  IPv4 0x123456      0t0  TCP *:3000 (LISTEN)
python3   456   root   5u   IPv4 0x789012      0t0  TCP 127.0.0.1:8000 (LISTEN)`,
			expected: []Process{
				{PID: 123, Ports: []int{3000}, Name: "node", User: "user", Command: "node /srv/project/server.js"},
				{PID: 456, Ports: []int{8000}, Name: "python3", User: "root", Command: "/usr/bin/python3 app.py"},
			},
		},
		{
			name: "two processes sharing one port via socket reuse",
			input: `COMMAND   PID   USER   FD   TYPE     DEVICE SIZE/OFF NODE NAME
python3   456   root   5u   IPv4 0x789012      0t0  TCP *:8000 (LISTEN)
nginx     789   www    10u  IPv4 0xabcdef      0t0  TCP *:8000 (LISTEN)`,
			expected: []Process{
				{PID: 456, Ports: []int{8000}, Name: "python3", User: "root", Command: "/usr/bin/python3 app.py"},
				{PID: 789, Ports: []int{8000}, Name: "nginx", User: "www", Command: "nginx: master process"},
			},
		},
		{
			name: "IPv6 address",
			input: `COMMAND   PID   USER   FD   TYPE     DEVICE SIZE/OFF NODE NAME
node      123   user   22u  IPv6 0x123456      0t0  TCP [::1]:3000 (LISTEN)`,
			expected: []Process{
				{PID: 123, Ports: []int{3000}, Name: "node", User: "user", Command: "node /srv/project/server.js"},
			},
		},
		{
			name: "deduplication across interfaces",
			input: `COMMAND   PID   USER   FD   TYPE     DEVICE SIZE/OFF NODE NAME
node      123   user   22u  IPv4 0x123456      0t0  TCP *:3000 (LISTEN)
node      123   user   23u  IPv6 0x123457      0t0  TCP [::]:3000 (LISTEN)`,
			expected: []Process{
				{PID: 123, Ports: []int{3000}, Name: "node", User: "user", Command: "node /srv/project/server.js"},
			},
		},
		{
			name:     "empty output",
			input:    "",
			expected: []Process{},
		},
		{
			name: "header only",
			input: `COMMAND   PID   USER   FD   TYPE     DEVICE SIZE/OFF NODE NAME
`,
			expected: []Process{},
		},
		{
			name: "malformed line (too few fields)",
			input: `COMMAND   PID   USER   FD   TYPE     DEVICE SIZE/OFF NODE NAME
incomplete line here`,
			expected: []Process{},
		},
		{
			name: "ports are sorted ascending",
			input: `COMMAND   PID   USER   FD   TYPE     DEVICE SIZE/OFF NODE NAME
node      123   user   22u  IPv4 0x123456      0t0  TCP *:9000 (LISTEN)
node      123   user   23u  IPv4 0x123457      0t0  TCP *:3000 (LISTEN)
node      123   user   24u  IPv4 0x123458      0t0  TCP *:5000 (LISTEN)`,
			expected: []Process{
				{PID: 123, Ports: []int{3000, 5000, 9000}, Name: "node", User: "user", Command: "node /srv/project/server.js"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseLsofOutput(tt.input, mockCommandLookup)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(result) != len(tt.expected) {
				t.Fatalf("expected %d processes, got %d", len(tt.expected), len(result))
			}

			// Map iteration order is unspecified; compare sorted by PID
			sort.Slice(result, func(i, j int) bool { return result[i].PID < result[j].PID })
			for i, want := range tt.expected {
				if !reflect.DeepEqual(result[i], want) {
					t.Errorf("process %d: got %+v, want %+v", i, result[i], want)
				}
			}
		})
	}
}

func TestParsePort(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"*:3000", 3000},
		{"127.0.0.1:8080", 8080},
		{"[::1]:3000", 3000},
		{"192.168.1.100:80", 80},
		{"*:notaport", 0},
		{"noport", 0},
		{"", 0},
	}

	for _, tt := range tests {
		if got := parsePort(tt.input); got != tt.expected {
			t.Errorf("parsePort(%q) = %d, want %d", tt.input, got, tt.expected)
		}
	}
}

func TestFindOwners(t *testing.T) {
	scanner := &fakeScanner{processes: []Process{
		{PID: 300, Ports: []int{8000, 9000}},
		{PID: 100, Ports: []int{8000}},
		{PID: 200, Ports: []int{3000}},
	}}

	owners, err := FindOwners(context.Background(), scanner, 8000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(owners) != 2 {
		t.Fatalf("expected 2 owners, got %d", len(owners))
	}
	// Sorted by PID for stable output
	if owners[0].PID != 100 || owners[1].PID != 300 {
		t.Errorf("unexpected owner order: %d, %d", owners[0].PID, owners[1].PID)
	}
}

func TestFindOwnersEmptyPort(t *testing.T) {
	scanner := &fakeScanner{processes: []Process{
		{PID: 100, Ports: []int{3000}},
	}}

	owners, err := FindOwners(context.Background(), scanner, 8000)
	if err != nil {
		t.Fatalf("a free port is not an error, got: %v", err)
	}
	if len(owners) != 0 {
		t.Fatalf("expected no owners, got %d", len(owners))
	}
}

func TestFallbackScanner(t *testing.T) {
	want := []Process{{PID: 1, Ports: []int{80}}}

	t.Run("primary succeeds", func(t *testing.T) {
		s := &fallbackScanner{
			primary:  &fakeScanner{processes: want},
			fallback: &fakeScanner{err: errors.New("must not be called")},
		}
		got, err := s.Scan(context.Background())
		if err != nil || !reflect.DeepEqual(got, want) {
			t.Fatalf("got %+v, %v", got, err)
		}
	})

	t.Run("primary fails", func(t *testing.T) {
		s := &fallbackScanner{
			primary:  &fakeScanner{err: errors.New("no permission")},
			fallback: &fakeScanner{processes: want},
		}
		got, err := s.Scan(context.Background())
		if err != nil || !reflect.DeepEqual(got, want) {
			t.Fatalf("got %+v, %v", got, err)
		}
	})
}

func TestProcessListensOn(t *testing.T) {
	p := Process{PID: 1, Ports: []int{3000, 8000}}
	if !p.ListensOn(8000) {
		t.Error("expected ListensOn(8000) to be true")
	}
	if p.ListensOn(9000) {
		t.Error("expected ListensOn(9000) to be false")
	}
}

func TestProcessLowestPort(t *testing.T) {
	if got := (Process{Ports: []int{3000, 8000}}).LowestPort(); got != 3000 {
		t.Errorf("LowestPort() = %d, want 3000", got)
	}
	if got := (Process{}).LowestPort(); got != 0 {
		t.Errorf("LowestPort() on empty = %d, want 0", got)
	}
}
