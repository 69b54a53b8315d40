package errors

import (
	"fmt"
	"testing"
)

func TestBuildDefaults(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("test error")
	ee := New(err).Build()

	if ee.Err.Error() != "test error" {
		t.Errorf("Expected error message 'test error', got '%s'", ee.Err.Error())
	}

	if ee.Category != CategoryGeneric {
		t.Errorf("Expected category 'generic', got '%s'", ee.Category)
	}
}

func TestBuilderSetsMetadata(t *testing.T) {
	t.Parallel()

	ee := Newf("bad batch %d", 7).
		Component("ingest").
		Category(CategoryIngestion).
		Priority(PriorityHigh).
		Context("file_path", "channel_a/2025-07-01.json").
		Build()

	if ee.GetComponent() != "ingest" {
		t.Errorf("Expected component 'ingest', got '%s'", ee.GetComponent())
	}
	if ee.Category != CategoryIngestion {
		t.Errorf("Expected category 'ingestion', got '%s'", ee.Category)
	}
	if ee.GetPriority() != PriorityHigh {
		t.Errorf("Expected priority 'high', got '%s'", ee.GetPriority())
	}
	ctx := ee.GetContext()
	if ctx["file_path"] != "channel_a/2025-07-01.json" {
		t.Errorf("Expected file_path in context, got %v", ctx)
	}
}

func TestInvalidPriorityFallsBackToMedium(t *testing.T) {
	t.Parallel()

	ee := Newf("oops").Priority("urgent").Build()
	if ee.GetPriority() != PriorityMedium {
		t.Errorf("Expected fallback priority 'medium', got '%s'", ee.GetPriority())
	}
}

func TestIsMatchesByCategory(t *testing.T) {
	t.Parallel()

	a := Newf("first").Category(CategoryCast).Build()
	b := Newf("second").Category(CategoryCast).Build()

	if !a.Is(b) {
		t.Error("Expected errors with the same category to match via Is")
	}
}

func TestIsCategoryThroughWrapping(t *testing.T) {
	t.Parallel()

	inner := Newf("store unreachable").Category(CategoryConnectivity).Build()
	wrapped := fmt.Errorf("run aborted: %w", inner)

	if !IsCategory(wrapped, CategoryConnectivity) {
		t.Error("Expected IsCategory to find the category through wrapping")
	}
	if !IsConnectivity(wrapped) {
		t.Error("Expected IsConnectivity to report true")
	}
	if IsNotFound(wrapped) {
		t.Error("Did not expect IsNotFound to report true")
	}
}

func TestDetectCategoryHeuristics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"connectivity", fmt.Errorf("dial tcp: connection refused"), CategoryConnectivity},
		{"parsing", fmt.Errorf("invalid character '}' looking for beginning of value"), CategoryFileParsing},
		{"file io", fmt.Errorf("open x.json: no such file or directory"), CategoryFileIO},
		{"generic", fmt.Errorf("something else"), CategoryGeneric},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := New(tt.err).Build().Category; got != tt.want {
				t.Errorf("detectCategory(%q) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}
