package crash

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chartmaker/internal/domain"
	"chartmaker/internal/storage"
)

func TestWriteReportCreatesFileInTemp(t *testing.T) {
	path, err := writeReport(nil, "boom", []byte("stacktrace"))
	if err != nil {
		t.Fatalf("writeReport error: %v", err)
	}
	defer os.Remove(path)
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, "Chartmaker Crash Report") {
		t.Fatalf("report header missing")
	}
	if !strings.Contains(s, "Panic: boom") {
		t.Fatalf("panic content missing: %s", s)
	}
}

func TestRecoverWritesReportAndSnapshot(t *testing.T) {
	var out bytes.Buffer
	oldErr, oldExit := stderr, exitFn
	stderr = &out
	code := 0
	exitFn = func(c int) { code = c }
	defer func() { stderr, exitFn = oldErr, oldExit }()

	dir := t.TempDir()
	s := domain.NewPlayableSong()
	s.SongName = "Unsaved Work"
	h := storage.NewSong(filepath.Join(dir, "song.japs"), s)

	func() {
		defer Recover(h)
		panic("boom")
	}()

	if code != 2 {
		t.Fatalf("expected exit code 2, got %d", code)
	}
	bdir := filepath.Join(dir, storage.BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		t.Fatalf("read backups: %v", err)
	}
	var report, snapshot string
	for _, e := range ents {
		switch {
		case strings.HasPrefix(e.Name(), "crash-") && strings.HasSuffix(e.Name(), ".log"):
			report = filepath.Join(bdir, e.Name())
		case strings.HasSuffix(e.Name(), ".crash"):
			snapshot = filepath.Join(bdir, e.Name())
		}
	}
	if report == "" || snapshot == "" {
		t.Fatalf("expected report and snapshot, got %v", ents)
	}
	b, _ := os.ReadFile(report)
	if !bytes.Contains(b, []byte("Panic: boom")) || !bytes.Contains(b, []byte("Title: Unsaved Work")) {
		t.Fatalf("report content: %s", b)
	}
	if !strings.Contains(out.String(), report) {
		t.Fatalf("stderr does not name the report: %q", out.String())
	}
}

func TestRecoverWithoutPanicDoesNothing(t *testing.T) {
	oldExit := exitFn
	exitFn = func(int) { t.Fatalf("exit called without a panic") }
	defer func() { exitFn = oldExit }()
	func() {
		defer Recover(nil)
	}()
}
