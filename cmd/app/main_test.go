package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"rice-mill/internal/adapters/cli"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, 0},
		{"integrity violations", fmt.Errorf("check: %w", cli.ErrIntegrityViolations), exitIntegrity},
		{"other failure", errors.New("connection refused"), exitError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("Expected exit code %d, got %d", tt.want, got)
			}
		})
	}
}

func TestRun_DatabaseFailureIsNotAnIntegrityExit(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"stock"}, &stdout, &stderr)
	if code != exitError {
		t.Fatalf("Expected exit code %d, got %d (stderr: %s)", exitError, code, stderr.String())
	}
	if !strings.Contains(stderr.String(), "Unable to connect to database") {
		t.Errorf("Expected connection error on stderr, got %q", stderr.String())
	}
	if stdout.Len() != 0 {
		t.Errorf("Expected nothing on stdout, got %q", stdout.String())
	}
}
