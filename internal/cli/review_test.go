package cli

import (
	"os"
	"strings"
	"testing"
)

func TestReviewOptions_Validate(t *testing.T) {
	tests := []struct {
		reviewType string
		wantErr    bool
	}{
		{"plan", false},
		{"code", false},
		{"diff", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.reviewType, func(t *testing.T) {
			err := ReviewOptions{Type: tt.reviewType}.Validate()
			if tt.wantErr && err == nil {
				t.Errorf("Validate(%q) should fail", tt.reviewType)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate(%q) failed: %v", tt.reviewType, err)
			}
		})
	}
}

func TestReviewCmd_Flags(t *testing.T) {
	cmd := NewReviewCmd(New())

	tests := []struct {
		name string
		def  string
	}{
		{"type", "plan"},
		{"auto-context", "false"},
		{"critics", "[]"},
		{"model", ""},
		{"json", "false"},
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

func TestReviewCmd_MissingArtifact(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := runCLI(t, "review", "missing.md")
	if err == nil {
		t.Fatal("expected an error for a missing artifact")
	}
	if !strings.Contains(err.Error(), "failed to read artifact") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestReviewCmd_EmptyArtifact(t *testing.T) {
	chdir(t, t.TempDir())
	if err := os.WriteFile("plan.md", []byte("  \n\t\n"), 0644); err != nil {
		t.Fatalf("failed to write plan: %v", err)
	}

	_, err := runCLI(t, "review", "plan.md")
	if err == nil {
		t.Fatal("expected an error for an empty artifact")
	}
	if !strings.Contains(err.Error(), "is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestReviewCmd_UnknownCritic(t *testing.T) {
	chdir(t, t.TempDir())
	if err := os.WriteFile("plan.md", []byte("# Plan"), 0644); err != nil {
		t.Fatalf("failed to write plan: %v", err)
	}

	_, err := runCLI(t, "review", "plan.md", "--critics", "gemini")
	if err == nil {
		t.Fatal("expected an error for an unknown critic")
	}
	if !strings.Contains(err.Error(), "unknown critic") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestReviewCmd_InvalidType(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := runCLI(t, "review", "plan.md", "--type", "diff")
	if err == nil {
		t.Fatal("expected an error for an invalid review type")
	}
	if !strings.Contains(err.Error(), "plan or code") {
		t.Errorf("unexpected error: %v", err)
	}
}
