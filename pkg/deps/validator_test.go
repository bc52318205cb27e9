package deps

import (
	"strings"
	"testing"
)

func TestValidatePathRejectsTraversal(t *testing.T) {
	v := NewValidator(1024, 4096, 100.0)

	bad := []string{
		"/etc/passwd",
		"\\windows\\system32",
		"../outside.txt",
		"../../outside.txt",
		"dir/../../outside.txt",
	}
	for _, p := range bad {
		if err := v.ValidatePath(p); err == nil {
			t.Errorf("ValidatePath(%q) succeeded, want error", p)
		}
	}

	good := []string{
		"readme.md",
		"bin/tool.exe",
		"dir/sub/file.txt",
		"dir/../sibling.txt",
	}
	for _, p := range good {
		if err := v.ValidatePath(p); err != nil {
			t.Errorf("ValidatePath(%q) = %v, want nil", p, err)
		}
	}
}

func TestValidateFileSize(t *testing.T) {
	v := NewValidator(100, 1000, 100.0)

	if err := v.ValidateFileSize(100); err != nil {
		t.Errorf("size at limit rejected: %v", err)
	}
	if err := v.ValidateFileSize(101); err == nil {
		t.Error("size over limit accepted")
	}
}

func TestAddExtractedSizeAccumulates(t *testing.T) {
	v := NewValidator(1000, 250, 100.0)

	for i := 0; i < 2; i++ {
		if err := v.AddExtractedSize(100); err != nil {
			t.Fatalf("AddExtractedSize under limit: %v", err)
		}
	}
	if err := v.AddExtractedSize(100); err == nil {
		t.Error("accumulated total over limit accepted")
	}

	v.Reset()
	if err := v.AddExtractedSize(100); err != nil {
		t.Errorf("AddExtractedSize after Reset: %v", err)
	}
}

func TestValidateCompressionRatio(t *testing.T) {
	v := NewValidator(1000, 1000, 10.0)

	if err := v.ValidateCompressionRatio(100, 500); err != nil {
		t.Errorf("ratio 5 rejected: %v", err)
	}
	err := v.ValidateCompressionRatio(10, 1000)
	if err == nil {
		t.Fatal("ratio 100 accepted")
	}
	if !strings.Contains(err.Error(), "compression ratio") {
		t.Errorf("unexpected error message: %v", err)
	}

	// Stored empty entries carry zero compressed bytes.
	if err := v.ValidateCompressionRatio(0, 0); err != nil {
		t.Errorf("empty entry rejected: %v", err)
	}
	if err := v.ValidateCompressionRatio(0, 100); err == nil {
		t.Error("zero compressed with nonzero uncompressed accepted")
	}
}
