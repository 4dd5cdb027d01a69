package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"chartmaker/internal/domain"
	"chartmaker/internal/song"

	"golang.org/x/text/encoding/unicode"
)

// fakeClock makes every call to now one second later than the previous one.
func fakeClock(t *testing.T) {
	t.Helper()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	old := now
	now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	t.Cleanup(func() { now = old })
}

func testSong(name string) *domain.PlayableSong {
	s := domain.NewPlayableSong()
	s.SongName = name
	s.SongArtist = "Someone"
	s.Timing.Stops = append(s.Timing.Stops, &domain.BPMStop{BPM: 140, Signature: 4, Significant: true})
	s.Charts = append(s.Charts, &domain.ExternalChartMeta{Target: "hard", DifficultyName: "Hard", DifficultyLevel: "10"})
	return s
}

func TestDecodeTextBOM(t *testing.T) {
	got, err := DecodeText([]byte("\xef\xbb\xbf[VERSION]\r\n2\r\n"))
	if err != nil {
		t.Fatalf("utf-8: %v", err)
	}
	if got != "[VERSION]\n2\n" {
		t.Fatalf("utf-8: got %q", got)
	}

	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	b, err := enc.Bytes([]byte("[METADATA]\r\nName: ほし\r\n"))
	if err != nil {
		t.Fatalf("encode utf-16: %v", err)
	}
	got, err = DecodeText(b)
	if err != nil {
		t.Fatalf("utf-16: %v", err)
	}
	if got != "[METADATA]\nName: ほし\n" {
		t.Fatalf("utf-16: got %q", got)
	}
}

func TestSaveSongCreatesAndPrunesBackups(t *testing.T) {
	fakeClock(t)
	path := filepath.Join(t.TempDir(), "starfall"+SongExt)
	h := NewSong(path, testSong("Starfall"))
	h.BackupsKeep = 2

	for i := 0; i < 4; i++ {
		if err := SaveSong(h); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}
	backups, err := Backups(path)
	if err != nil {
		t.Fatalf("list backups: %v", err)
	}
	if len(backups) != 2 {
		t.Fatalf("expected 2 backups after pruning, got %d: %v", len(backups), backups)
	}
	for _, b := range backups {
		if !strings.HasPrefix(filepath.Base(b), "starfall.japs.") || !strings.HasSuffix(b, ".bak") {
			t.Fatalf("unexpected backup name %s", b)
		}
	}
	// no temp files left behind
	ents, _ := os.ReadDir(filepath.Dir(path))
	for _, e := range ents {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Fatalf("temp file left: %s", e.Name())
		}
	}
}

func TestOpenSongRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song"+SongExt)
	if err := SaveSong(NewSong(path, testSong("Round"))); err != nil {
		t.Fatalf("save: %v", err)
	}
	h, err := OpenSong(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if h.Song.SongName != "Round" || len(h.Song.Charts) != 1 || h.Song.Charts[0].Target != "hard" {
		t.Fatalf("unexpected song: %+v", h.Song)
	}
}

func TestOpenSongFallsBackToLatestBackup(t *testing.T) {
	fakeClock(t)
	path := filepath.Join(t.TempDir(), "song"+SongExt)
	h := NewSong(path, testSong("First"))
	if err := SaveSong(h); err != nil {
		t.Fatalf("save: %v", err)
	}
	h.Song.SongName = "Second"
	if err := SaveSong(h); err != nil {
		t.Fatalf("save: %v", err)
	}
	// corrupt the primary file
	if err := os.WriteFile(path, []byte("[VERSION]\n9\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := OpenSong(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if got.Song.SongName != "First" {
		t.Fatalf("expected the backup of the first save, got %q", got.Song.SongName)
	}

	if _, err := OpenSong(filepath.Join(t.TempDir(), "missing"+SongExt)); err == nil {
		t.Fatalf("expected error for a missing song without backups")
	}
}

func TestChartFilesNextToSong(t *testing.T) {
	dir := t.TempDir()
	h := NewSong(filepath.Join(dir, "song"+SongExt), testSong("Charts"))
	meta := h.Song.Charts[0]
	if got := ChartPath(h, meta); got != filepath.Join(dir, "hard.jac") {
		t.Fatalf("chart path: %s", got)
	}

	c := domain.NewChart()
	c.DifficultyName = "Hard"
	c.ChartConstant = 10.5
	c.Lanes = append(c.Lanes, &domain.Lane{Name: "main"})
	if err := SaveChart(h, meta, c); err != nil {
		t.Fatalf("save chart: %v", err)
	}
	got, err := OpenChart(h, meta)
	if err != nil {
		t.Fatalf("open chart: %v", err)
	}
	if got.DifficultyName != "Hard" || got.ChartConstant != 10.5 || len(got.Lanes) != 1 {
		t.Fatalf("unexpected chart: %+v", got)
	}

	if _, err := OpenChart(h, &domain.ExternalChartMeta{DifficultyName: "Empty"}); err == nil {
		t.Fatalf("expected error for a chart without target")
	}
}

func TestOpenChartWithBOMAndCRLF(t *testing.T) {
	dir := t.TempDir()
	h := NewSong(filepath.Join(dir, "song"+SongExt), nil)
	meta := &domain.ExternalChartMeta{Target: "easy"}
	doc := "\xef\xbb\xbfJANOARG Chart Format\r\n[VERSION]\r\n2\r\n[METADATA]\r\nName: Easy\r\n"
	if err := os.WriteFile(ChartPath(h, meta), []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := OpenChart(h, meta)
	if err != nil {
		t.Fatalf("open chart: %v", err)
	}
	if c.DifficultyName != "Easy" {
		t.Fatalf("name: %q", c.DifficultyName)
	}
}

func TestAutosaveCrashSnapshot(t *testing.T) {
	dir := t.TempDir()
	h := NewSong(filepath.Join(dir, "song"+SongExt), testSong("Unsaved"))
	path, err := AutosaveCrashSnapshot(h)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if filepath.Dir(path) != filepath.Join(dir, BackupsDirName) || !strings.HasSuffix(path, ".crash") {
		t.Fatalf("unexpected snapshot path %s", path)
	}
	text, err := ReadText(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	s, err := song.Decode(text)
	if err != nil || s.SongName != "Unsaved" {
		t.Fatalf("snapshot does not decode: %v", err)
	}
	// the primary file is untouched and the snapshot is not a backup
	if _, err := os.Stat(h.Path); !os.IsNotExist(err) {
		t.Fatalf("primary file should not exist: %v", err)
	}
	if b, _ := Backups(h.Path); len(b) != 0 {
		t.Fatalf("snapshot listed as backup: %v", b)
	}
}

func TestWriteDocumentReplacesExistingFile(t *testing.T) {
	fakeClock(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "notes"+ChartExt)
	for _, text := range []string{"first\n", "second\n"} {
		if err := WriteDocument(path, text, 0); err != nil {
			t.Fatalf("write %q: %v", text, err)
		}
	}
	b, err := os.ReadFile(path)
	if err != nil || string(b) != "second\n" {
		t.Fatalf("content = %q, %v", b, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	for _, e := range entries {
		if e.Name() != "notes"+ChartExt && e.Name() != BackupsDirName {
			t.Fatalf("leftover file %s", e.Name())
		}
	}
	backups, _ := Backups(path)
	if len(backups) != 1 {
		t.Fatalf("backups = %v", backups)
	}
}
