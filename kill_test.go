package main

import (
	"errors"
	"os"
	"syscall"
	"testing"

	"github.com/shirou/gopsutil/v3/process"
)

func TestGoneOrErr(t *testing.T) {
	permErr := errors.New("operation not permitted")

	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil passes through", nil, nil},
		{"not running maps to gone", process.ErrorProcessNotRunning, errProcessGone},
		{"process done maps to gone", os.ErrProcessDone, errProcessGone},
		{"esrch maps to gone", syscall.ESRCH, errProcessGone},
		{"other errors pass through", permErr, permErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := goneOrErr(tt.in)
			if tt.want == nil {
				if got != nil {
					t.Fatalf("goneOrErr(nil) = %v", got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Errorf("goneOrErr(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestKillerAliveForOwnProcess(t *testing.T) {
	killer := NewKiller()
	if !killer.Alive(os.Getpid()) {
		t.Error("the test process itself should be alive")
	}
}
