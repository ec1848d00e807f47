package security

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	base := t.TempDir()
	if err := os.MkdirAll(filepath.Join(base, "frames"), 0o755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"existing subdirectory", filepath.Join(base, "frames"), false},
		{"missing subdirectory", filepath.Join(base, "frames", "run1"), false},
		{"directory itself", base, false},
		{"dot dot escape", filepath.Join(base, "frames", "..", ".."), true},
		{"sibling", filepath.Join(filepath.Dir(base), "elsewhere"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathWithinDirectory(tt.path, base)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePathWithinDirectory(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePathWithinDirectory_Symlink(t *testing.T) {
	base := t.TempDir()
	outside := t.TempDir()
	link := filepath.Join(base, "link")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	if err := ValidatePathWithinDirectory(filepath.Join(link, "frames"), base); err == nil {
		t.Error("expected a symlinked parent pointing outside to be rejected")
	}
}

func TestValidateOutputDir(t *testing.T) {
	if err := ValidateOutputDir("frames"); err != nil {
		t.Errorf("relative directory rejected: %v", err)
	}
	if err := ValidateOutputDir(filepath.Join(os.TempDir(), "motion-frames")); err != nil {
		t.Errorf("temp directory rejected: %v", err)
	}
	if err := ValidateOutputDir(""); err == nil {
		t.Error("expected empty directory to be rejected")
	}
	if err := ValidateOutputDir("/proc/motion-frames"); err == nil {
		t.Error("expected directory outside cwd and temp to be rejected")
	}
}
