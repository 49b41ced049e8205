package cli

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/parleyhq/parley/internal/workflow"
)

func TestRunCmd_Flags(t *testing.T) {
	cmd := NewRunCmd(New())

	tests := []struct {
		name string
		def  string
	}{
		{"auto", "false"},
		{"max-iterations", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Fatalf("expected --%s flag", tt.name)
			}
			if flag.DefValue != tt.def {
				t.Errorf("%s default = %q, expected %q", tt.name, flag.DefValue, tt.def)
			}
		})
	}
}

func TestRunCmd_NonInteractiveWithoutAuto(t *testing.T) {
	chdir(t, t.TempDir())
	if err := os.WriteFile("plan.md", []byte("# Plan"), 0644); err != nil {
		t.Fatalf("failed to write plan: %v", err)
	}

	// Test processes have no terminal on stdin.
	_, err := runCLI(t, "run", "plan.md")
	if err == nil {
		t.Fatal("expected an error without --auto in a non-interactive session")
	}
	if !strings.Contains(err.Error(), "--auto") {
		t.Errorf("error should suggest --auto, got: %v", err)
	}
}

func TestRunCmd_MissingPlan(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := runCLI(t, "run", "missing-plan.md", "--auto")
	if err == nil {
		t.Fatal("expected an error for a missing plan")
	}
	if !strings.Contains(err.Error(), "failed to read plan") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestResumeCmd_NoSavedRun(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := runCLI(t, "resume", "--auto")
	if err == nil {
		t.Fatal("expected an error without a saved workflow")
	}
	if !errors.Is(err, workflow.ErrNoSavedRun) {
		t.Errorf("expected ErrNoSavedRun, got: %v", err)
	}
	if !strings.Contains(err.Error(), "parley run") {
		t.Errorf("error should point at run, got: %v", err)
	}
}

func TestResumeCmd_RejectsArgs(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := runCLI(t, "resume", "plan.md", "--auto")
	if err == nil {
		t.Fatal("expected an error for extra arguments")
	}
}
