/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/alecthomas/kingpin.v2"
	"gopkg.in/yaml.v3"

	"chartmaker/internal/catalog"
	"chartmaker/internal/chart"
	"chartmaker/internal/config"
	"chartmaker/internal/crash"
	"chartmaker/internal/domain"
	"chartmaker/internal/export"
	applog "chartmaker/internal/log"
	"chartmaker/internal/song"
	"chartmaker/internal/storage"
	"chartmaker/internal/version"
)

// Exit codes.
const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

// env bundles what every command needs.
type env struct {
	cfg    config.AppConfig
	secret string
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	log    *slog.Logger
}

func (e *env) failf(format string, args ...any) int {
	_, _ = fmt.Fprintf(e.stderr, "Error: "+format+"\n", args...)
	return exitFail
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	app := kingpin.New("chartmaker", "Validate, format and publish JANOARG charts and song indexes.")
	app.Version(version.String())
	app.UsageWriter(stderr)
	app.ErrorWriter(stderr)
	terminated := false
	app.Terminate(func(int) { terminated = true })

	app.Command("version", "Show version.")

	checkCmd := app.Command("check", "Decode documents and report the first error of each.")
	checkFiles := checkCmd.Arg("files", "Chart (.jac) or song (.japs) files.").Required().ExistingFiles()

	fmtCmd := app.Command("fmt", "Rewrite a document in canonical form.")
	fmtFile := fmtCmd.Arg("file", "Chart (.jac) or song (.japs) file.").Required().ExistingFile()
	fmtWrite := fmtCmd.Flag("write", "Write the result back to the file, keeping a backup.").Short('w').Bool()
	fmtIndent := fmtCmd.Flag("indent", "Spaces per nesting level (default from config).").Default("-1").Int()

	infoCmd := app.Command("info", "Summarize a song and record it in the recent library.")
	infoFile := infoCmd.Arg("song", "Song index (.japs).").Required().ExistingFile()

	recentCmd := app.Command("recent", "List recently opened songs.")
	recentLimit := recentCmd.Flag("limit", "Maximum entries (default from config).").Short('n').Default("-1").Int()

	forgetCmd := app.Command("forget", "Remove a song from the recent library.")
	forgetFile := forgetCmd.Arg("song", "Song index path.").Required().String()

	exportCmd := app.Command("export", "Export documents.")
	jsonCmd := exportCmd.Command("json", "Export a chart or song as schema-checked JSON.")
	jsonFile := jsonCmd.Arg("file", "Chart (.jac) or song (.japs) file.").Required().ExistingFile()
	jsonOut := jsonCmd.Flag("out", "Output file (default stdout).").Short('o').String()
	pdfCmd := exportCmd.Command("pdf", "Export a printable song sheet.")
	pdfFile := pdfCmd.Arg("song", "Song index (.japs).").Required().ExistingFile()
	pdfOut := pdfCmd.Flag("out", "Output file (default next to the song).").Short('o').String()

	publishCmd := app.Command("publish", "Publish a song index to the shared catalog.")
	publishFile := publishCmd.Arg("song", "Song index (.japs).").Required().ExistingFile()

	searchCmd := app.Command("search", "Search the shared catalog.")
	searchText := searchCmd.Arg("text", "Search terms; empty lists the latest songs.").Strings()
	searchLimit := searchCmd.Flag("limit", "Maximum results.").Short('n').Default("20").Int()

	configCmd := app.Command("config", "Inspect or change the configuration.")
	configShowCmd := configCmd.Command("show", "Print the effective configuration.")
	configPassCmd := configCmd.Command("password", "Store the catalog password (read from stdin) in the OS keychain.")
	configForget := configPassCmd.Flag("forget", "Remove the stored password instead.").Bool()

	command, err := app.Parse(args)
	if terminated {
		return exitOK
	}
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		app.Usage(args)
		return exitUsage
	}

	cfg, secret, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Warning: using default configuration: %v\n", err)
	}
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
		Console:   stderr,
	})
	defer func() { _ = applog.Close() }()

	e := &env{cfg: cfg, secret: secret, stdin: stdin, stdout: stdout, stderr: stderr, log: applog.WithComponent("cli")}
	e.log.Debug("start", slog.String("command", command))

	switch command {
	case "version":
		_, _ = fmt.Fprintf(stdout, "Chartmaker %s\n", version.String())
		return exitOK
	case checkCmd.FullCommand():
		return e.check(*checkFiles)
	case fmtCmd.FullCommand():
		return e.format(*fmtFile, *fmtWrite, *fmtIndent)
	case infoCmd.FullCommand():
		return e.info(*infoFile)
	case recentCmd.FullCommand():
		return e.recent(*recentLimit)
	case forgetCmd.FullCommand():
		return e.forget(*forgetFile)
	case jsonCmd.FullCommand():
		return e.exportJSON(*jsonFile, *jsonOut)
	case pdfCmd.FullCommand():
		return e.exportPDF(*pdfFile, *pdfOut)
	case publishCmd.FullCommand():
		return e.publish(*publishFile)
	case searchCmd.FullCommand():
		return e.search(strings.Join(*searchText, " "), *searchLimit)
	case configShowCmd.FullCommand():
		return e.configShow()
	case configPassCmd.FullCommand():
		return e.configPassword(*configForget)
	}
	app.Usage(args)
	return exitUsage
}

// document is a decoded chart or song.
type document struct {
	chart *domain.Chart
	song  *domain.PlayableSong
}

func (d document) summary() string {
	if d.chart != nil {
		hits := 0
		for _, l := range d.chart.Lanes {
			hits += len(l.Objects)
		}
		return fmt.Sprintf("chart %q level %s, %d lanes, %d hits", d.chart.DifficultyName, d.chart.DifficultyLevel, len(d.chart.Lanes), hits)
	}
	return fmt.Sprintf("song %q by %s, %d charts", d.song.SongName, d.song.SongArtist, len(d.song.Charts))
}

func (d document) encode(indent int) string {
	if d.chart != nil {
		return chart.EncodeWith(d.chart, chart.Options{Indent: indent})
	}
	return song.EncodeWith(d.song, song.Options{Indent: indent})
}

// readDocument decodes path strictly; backups are not consulted.
func readDocument(path string) (document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != storage.ChartExt && ext != storage.SongExt {
		return document{}, fmt.Errorf("%s: unknown document type %q (want %s or %s)", path, ext, storage.ChartExt, storage.SongExt)
	}
	text, err := storage.ReadText(path)
	if err != nil {
		return document{}, err
	}
	if ext == storage.ChartExt {
		c, err := chart.Decode(text)
		return document{chart: c}, err
	}
	s, err := song.Decode(text)
	return document{song: s}, err
}

func (e *env) check(files []string) int {
	code := exitOK
	for _, f := range files {
		d, err := readDocument(f)
		if err != nil {
			_, _ = fmt.Fprintf(e.stdout, "%s: %v\n", f, err)
			code = exitFail
			continue
		}
		_, _ = fmt.Fprintf(e.stdout, "%s: ok, %s\n", f, d.summary())
	}
	return code
}

func (e *env) format(path string, write bool, indent int) int {
	if indent < 0 {
		indent = e.cfg.Editor.IndentSize
	}
	d, err := readDocument(path)
	if err != nil {
		return e.failf("%v", err)
	}
	text := d.encode(indent)
	if !write {
		_, _ = io.WriteString(e.stdout, text)
		return exitOK
	}
	if err := storage.WriteDocument(path, text, e.cfg.Editor.BackupsKeep); err != nil {
		return e.failf("write %s: %v", path, err)
	}
	_, _ = fmt.Fprintf(e.stdout, "Formatted %s\n", path)
	return exitOK
}

func (e *env) openLibrary(ctx context.Context) (*storage.Library, error) {
	path, err := e.cfg.LibraryPath()
	if err != nil {
		return nil, err
	}
	return storage.OpenLibrary(ctx, path, storage.LibraryOptions{
		ThumbSize:     e.cfg.Library.ThumbSize,
		MaxThumbBytes: e.cfg.Library.MaxThumbBytes,
	})
}

func (e *env) info(path string) int {
	h, err := storage.OpenSong(path)
	if err != nil {
		return e.failf("%v", err)
	}
	defer crash.Recover(h)
	s := h.Song
	w := e.stdout
	_, _ = fmt.Fprintf(w, "Song:    %s\n", s.SongName)
	_, _ = fmt.Fprintf(w, "Artist:  %s\n", s.SongArtist)
	if s.Genre != "" {
		_, _ = fmt.Fprintf(w, "Genre:   %s\n", s.Genre)
	}
	for _, st := range s.Timing.Stops {
		_, _ = fmt.Fprintf(w, "Tempo:   %g BPM %d/4 at %gs\n", st.BPM, st.Signature, st.Offset)
	}
	for _, m := range s.Charts {
		c, err := storage.OpenChart(h, m)
		if err != nil {
			_, _ = fmt.Fprintf(w, "Chart:   %-10s %s (%s): %v\n", m.DifficultyName, m.DifficultyLevel, m.Target, err)
			continue
		}
		_, _ = fmt.Fprintf(w, "Chart:   %-10s %s (%s): %s\n", m.DifficultyName, m.DifficultyLevel, m.Target, document{chart: c}.summary())
	}

	ctx := context.Background()
	lib, err := e.openLibrary(ctx)
	if err != nil {
		e.log.Warn("recent library unavailable", slog.Any("err", err))
		return exitOK
	}
	defer func() { _ = lib.Close() }()
	rs := storage.RecentFromHandle(h)
	if err := lib.Touch(ctx, rs); err != nil {
		e.log.Warn("record recent song failed", slog.Any("err", err))
	}
	if rs.IconPath != "" {
		if _, err := os.Stat(rs.IconPath); err == nil {
			if _, err := lib.Thumbnail(ctx, rs.IconPath); err != nil {
				e.log.Warn("icon thumbnail failed", slog.String("icon", rs.IconPath), slog.Any("err", err))
			}
		}
	}
	return exitOK
}

func (e *env) recent(limit int) int {
	if limit < 0 {
		limit = e.cfg.Library.RecentLimit
	}
	ctx := context.Background()
	lib, err := e.openLibrary(ctx)
	if err != nil {
		return e.failf("open library: %v", err)
	}
	defer func() { _ = lib.Close() }()
	songs, err := lib.Recent(ctx, limit)
	if err != nil {
		return e.failf("%v", err)
	}
	if len(songs) == 0 {
		_, _ = fmt.Fprintln(e.stdout, "No recent songs.")
		return exitOK
	}
	for _, rs := range songs {
		_, _ = fmt.Fprintf(e.stdout, "%s  %s - %s  %s\n", rs.OpenedAt.Local().Format("2006-01-02 15:04"), rs.SongArtist, rs.SongName, rs.Path)
	}
	return exitOK
}

func (e *env) forget(path string) int {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	ctx := context.Background()
	lib, err := e.openLibrary(ctx)
	if err != nil {
		return e.failf("open library: %v", err)
	}
	defer func() { _ = lib.Close() }()
	if err := lib.Forget(ctx, path); err != nil {
		return e.failf("%v", err)
	}
	return exitOK
}

func (e *env) exportJSON(path, out string) int {
	d, err := readDocument(path)
	if err != nil {
		return e.failf("%v", err)
	}
	var data []byte
	if d.chart != nil {
		data, err = export.ChartJSON(d.chart)
	} else {
		data, err = export.SongJSON(d.song)
	}
	if err != nil {
		return e.failf("%v", err)
	}
	if out == "" {
		_, _ = e.stdout.Write(data)
		return exitOK
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return e.failf("%v", err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return e.failf("write %s: %v", out, err)
	}
	_, _ = fmt.Fprintf(e.stdout, "Exported %s\n", out)
	return exitOK
}

func (e *env) exportPDF(path, out string) int {
	h, err := storage.OpenSong(path)
	if err != nil {
		return e.failf("%v", err)
	}
	if out == "" {
		out = strings.TrimSuffix(path, filepath.Ext(path)) + ".pdf"
	}
	if err := export.SongSheetPDF(h.Song, out, export.SheetOptions{}); err != nil {
		return e.failf("%v", err)
	}
	_, _ = fmt.Fprintf(e.stdout, "Exported %s\n", out)
	return exitOK
}

func (e *env) catalog(ctx context.Context) (*catalog.Catalog, error) {
	if strings.TrimSpace(e.cfg.Catalog.DatabaseURL) == "" {
		return nil, fmt.Errorf("no catalog configured; set catalog.database_url or %s", config.EnvCatalogURL)
	}
	return catalog.Open(ctx, e.cfg.Catalog.DatabaseURL, e.secret)
}

func (e *env) publish(path string) int {
	h, err := storage.OpenSong(path)
	if err != nil {
		return e.failf("%v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.Catalog.Timeout())
	defer cancel()
	c, err := e.catalog(ctx)
	if err != nil {
		return e.failf("%v", err)
	}
	defer func() { _ = c.Close() }()
	id, err := c.PublishSong(ctx, h.Song)
	if err != nil {
		return e.failf("%v", err)
	}
	_, _ = fmt.Fprintf(e.stdout, "Published %q as #%d\n", h.Song.SongName, id)
	return exitOK
}

func (e *env) search(text string, limit int) int {
	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.Catalog.Timeout())
	defer cancel()
	c, err := e.catalog(ctx)
	if err != nil {
		return e.failf("%v", err)
	}
	defer func() { _ = c.Close() }()
	res, err := c.SearchSongs(ctx, text, limit)
	if err != nil {
		return e.failf("%v", err)
	}
	for _, s := range res {
		_, _ = fmt.Fprintf(e.stdout, "#%d  %s - %s  [%s]  %g-%g BPM  v%d\n", s.ID, s.SongArtist, s.SongName, s.Genre, s.BPMMin, s.BPMMax, s.Version)
		for _, cs := range s.Charts {
			_, _ = fmt.Fprintf(e.stdout, "      %-10s %-4s %5.1f  %s\n", cs.DifficultyName, cs.DifficultyLevel, cs.ChartConstant, cs.CharterName)
		}
	}
	return exitOK
}

func (e *env) configShow() int {
	path, _ := config.ConfigPath()
	_, _ = fmt.Fprintf(e.stdout, "# %s\n", path)
	data, err := yaml.Marshal(e.cfg)
	if err != nil {
		return e.failf("%v", err)
	}
	_, _ = e.stdout.Write(data)
	for _, key := range []string{
		"editor.indent_size", "library.path", "library.recent_limit", "catalog.database_url",
		"catalog.timeout_ms", "logging.level", "logging.format", "logging.source", "logging.file",
	} {
		if name, ok := config.EnvOverrideFor(key); ok {
			_, _ = fmt.Fprintf(e.stdout, "# %s overridden by %s\n", key, name)
		}
	}
	return exitOK
}

func (e *env) configPassword(forget bool) int {
	if forget {
		if err := config.ForgetSecret(); err != nil {
			return e.failf("%v", err)
		}
		_, _ = fmt.Fprintln(e.stdout, "Catalog password removed.")
		return exitOK
	}
	line, err := bufio.NewReader(e.stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return e.failf("read password: %v", err)
	}
	pw := strings.TrimRight(line, "\r\n")
	if pw == "" {
		return e.failf("empty password")
	}
	if err := config.Save(e.cfg, pw); err != nil {
		return e.failf("%v", err)
	}
	_, _ = fmt.Fprintln(e.stdout, "Catalog password stored.")
	return exitOK
}
