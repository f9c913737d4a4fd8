package main

import "testing"

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short     "},
		{"exactlyten", 10, "exactlyten"},
		{"this is too long", 10, "this is t…"},
	}

	for _, tt := range tests {
		if got := truncate(tt.input, tt.maxLen); got != tt.expected {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.expected)
		}
	}
}

func TestJoinInts(t *testing.T) {
	tests := []struct {
		input    []int
		expected string
	}{
		{nil, ""},
		{[]int{1234}, "1234"},
		{[]int{1234, 5678}, "1234, 5678"},
		{[]int{1, 2, 3}, "1, 2, 3"},
	}

	for _, tt := range tests {
		if got := joinInts(tt.input); got != tt.expected {
			t.Errorf("joinInts(%v) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestFormatPorts(t *testing.T) {
	tests := []struct {
		name     string
		ports    []int
		maxWidth int
		expected string
	}{
		{"empty", nil, 18, ""},
		{"single port", []int{3000}, 18, "3000"},
		{"two ports fit", []int{3000, 8080}, 18, "3000, 8080"},
		{"overflow adds count", []int{3000, 3001, 3002, 3003, 3004}, 13, "3000, 3001 +3"},
		{"tight width keeps first port", []int{3000, 3001, 3002, 3003, 3004}, 8, "3000 +4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatPorts(tt.ports, tt.maxWidth); got != tt.expected {
				t.Errorf("formatPorts(%v, %d) = %q, want %q", tt.ports, tt.maxWidth, got, tt.expected)
			}
		})
	}
}
