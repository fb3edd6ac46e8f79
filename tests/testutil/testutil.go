package testutil

import (
	"os"
	"testing"
)

// MustSetTestEnvironment forces GO_ENV=test for the current process and fails
// the test if it cannot be set. This prevents accidental execution of tests
// against production or development databases. Call it from suite setup
// functions before opening any database handle.
func MustSetTestEnvironment(t *testing.T) {
	t.Helper()

	if err := os.Setenv("GO_ENV", "test"); err != nil {
		t.Fatalf("Failed to set GO_ENV=test: %v", err)
	}

	if os.Getenv("GO_ENV") != "test" {
		t.Fatal("Failed to verify GO_ENV=test")
	}
}
