package testrepo

import (
	"context"
	"testing"
)

// NewForTest creates a fixture that is closed when t finishes.
func NewForTest(t testing.TB, name string, res *Resources, opts Options) *Fixture {
	t.Helper()
	f, err := New(name, res, opts)
	if err != nil {
		t.Fatalf("Failed to create test repository %s: %v", name, err)
	}
	t.Cleanup(f.Close)
	return f
}

// ResourcesForTest creates shared resources that are closed when t finishes.
func ResourcesForTest(t testing.TB, opts ResourcesOptions) *Resources {
	t.Helper()
	res, err := CreateResources(context.Background(), opts)
	if err != nil {
		t.Fatalf("Failed to create shared resources: %v", err)
	}
	t.Cleanup(res.Close)
	return res
}
