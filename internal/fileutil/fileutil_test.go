package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"vellum/internal/fileutil"
)

func TestIsPDF(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"report.pdf", true},
		{"REPORT.PDF", true},
		{"dir/report.Pdf", true},
		{"report.pdf.part", false},
		{"report.txt", false},
		{"pdf", false},
	}
	for _, tc := range cases {
		if got := fileutil.IsPDF(tc.path); got != tc.want {
			t.Errorf("IsPDF(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestSnapshotMatches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.pdf")
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	snap, err := fileutil.Snap(path)
	if err != nil {
		t.Fatalf("Snap: %v", err)
	}
	if !snap.Matches(path) {
		t.Fatal("unchanged file should match its snapshot")
	}

	if err := os.WriteFile(path, []byte("content grew larger"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if snap.Matches(path) {
		t.Fatal("grown file must not match the old snapshot")
	}

	if snap.Matches(filepath.Join(t.TempDir(), "missing.pdf")) {
		t.Fatal("missing file must not match")
	}
}

func TestMoveFileCreatesTargetDirectory(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "src.pdf")
	if err := os.WriteFile(source, []byte("payload"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	target := filepath.Join(dir, "archive", "deep", "dst.pdf")
	if err := fileutil.MoveFile(source, target); err != nil {
		t.Fatalf("MoveFile: %v", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read target: %v", err)
	}
	if string(data) != "payload" {
		t.Fatalf("unexpected content %q", data)
	}
	if _, err := os.Stat(source); !os.IsNotExist(err) {
		t.Fatal("source should be gone after move")
	}
}

func TestMoveFileMissingSource(t *testing.T) {
	dir := t.TempDir()
	err := fileutil.MoveFile(filepath.Join(dir, "absent.pdf"), filepath.Join(dir, "dst.pdf"))
	if err == nil {
		t.Fatal("expected error for missing source")
	}
}
