/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/jung-kurt/gofpdf"

	"chartmaker/internal/codec"
	"chartmaker/internal/domain"
)

// SheetOptions controls the printable song sheet.
// Units are points (pt); the page origin is top-left.
type SheetOptions struct {
	PageWidth  float64 // defaults to A4
	PageHeight float64
	Margin     float64
	Author     string
}

func (o SheetOptions) withDefaults() SheetOptions {
	if o.PageWidth <= 0 || o.PageHeight <= 0 {
		o.PageWidth, o.PageHeight = 595, 842
	}
	if o.Margin <= 0 {
		o.Margin = 42
	}
	if o.Author == "" {
		o.Author = "Chartmaker"
	}
	return o
}

// SongSheetPDF writes a one-document overview of s to outPath: song metadata,
// color swatches, the tempo map and the chart list.
func SongSheetPDF(s *domain.PlayableSong, outPath string, opt SheetOptions) error {
	if s == nil {
		return fmt.Errorf("song is nil")
	}
	opt = opt.withDefaults()

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: opt.PageWidth, Ht: opt.PageHeight},
	})
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(s.SongName+" - Song Sheet", true)
	pdf.SetAuthor(opt.Author, true)
	pdf.SetMargins(opt.Margin, opt.Margin, opt.Margin)
	pdf.SetAutoPageBreak(true, opt.Margin)
	pdf.AddPage()

	width := opt.PageWidth - 2*opt.Margin

	// Header band in the song's own colors.
	setFillColor(pdf, s.BackgroundColor)
	pdf.Rect(opt.Margin, opt.Margin, width, 64, "F")
	setTextColor(pdf, s.InterfaceColor)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetXY(opt.Margin+12, opt.Margin+10)
	pdf.CellFormat(width-24, 24, tr(s.SongName), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.SetX(opt.Margin + 12)
	pdf.CellFormat(width-24, 18, tr(s.SongArtist), "", 1, "L", false, 0, "")
	pdf.SetY(opt.Margin + 76)
	pdf.SetTextColor(0, 0, 0)

	field := func(label, value string) {
		if value == "" {
			return
		}
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(110, 15, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(width-110, 15, tr(value), "", 1, "L", false, 0, "")
	}
	field("Alt. name", s.AltSongName)
	field("Alt. artist", s.AltSongArtist)
	field("Genre", s.Genre)
	field("Location", s.Location)
	field("Clip", s.ClipPath)
	field("Preview", fmt.Sprintf("%ss - %ss", codec.FormatFloat(s.PreviewRange.X), codec.FormatFloat(s.PreviewRange.Y)))
	field("Cover artist", s.Cover.ArtistName)
	field("Icon", s.Cover.IconTarget)

	heading(pdf, "Colors")
	swatch(pdf, "Background", s.BackgroundColor)
	swatch(pdf, "Interface", s.InterfaceColor)
	swatch(pdf, "Cover", s.Cover.BackgroundColor)

	heading(pdf, "Tempo")
	cols := []float64{120, 100, 100, width - 320}
	tableRow(pdf, cols, true, "Offset (s)", "BPM", "Signature", "Significant")
	stops := append([]*domain.BPMStop(nil), s.Timing.Stops...)
	sort.SliceStable(stops, func(i, j int) bool { return stops[i].Offset < stops[j].Offset })
	for _, st := range stops {
		sig := ""
		if st.Significant {
			sig = "yes"
		}
		tableRow(pdf, cols, false, codec.FormatFloat(st.Offset), codec.FormatFloat(st.BPM), codec.FormatInt(st.Signature), sig)
	}
	if len(stops) == 0 {
		note(pdf, "No tempo stops.")
	}

	heading(pdf, "Charts")
	cols = []float64{40, 110, 60, 70, width - 380, 100}
	tableRow(pdf, cols, true, "#", "Difficulty", "Level", "Constant", "Charter", "File")
	charts := append([]*domain.ExternalChartMeta(nil), s.Charts...)
	sort.SliceStable(charts, func(i, j int) bool { return charts[i].DifficultyIndex < charts[j].DifficultyIndex })
	for _, m := range charts {
		tableRow(pdf, cols, false, codec.FormatInt(m.DifficultyIndex), tr(m.DifficultyName), tr(m.DifficultyLevel),
			codec.FormatFloat(m.ChartConstant), tr(m.CharterName), tr(m.Target+".jac"))
	}
	if len(charts) == 0 {
		note(pdf, "No charts.")
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func heading(pdf *gofpdf.Fpdf, title string) {
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 20, title, "B", 1, "L", false, 0, "")
	pdf.Ln(4)
}

func note(pdf *gofpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "I", 10)
	pdf.CellFormat(0, 15, text, "", 1, "L", false, 0, "")
}

func swatch(pdf *gofpdf.Fpdf, label string, c domain.Color) {
	x, y := pdf.GetXY()
	setFillColor(pdf, c)
	pdf.SetDrawColor(0, 0, 0)
	pdf.Rect(x, y+2, 24, 12, "FD")
	pdf.SetXY(x+32, y)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 16, label+"  "+codec.FormatColor(c), "", 1, "L", false, 0, "")
}

func tableRow(pdf *gofpdf.Fpdf, widths []float64, header bool, cells ...string) {
	style := ""
	if header {
		style = "B"
		pdf.SetFillColor(230, 230, 230)
	}
	pdf.SetFont("Helvetica", style, 10)
	for i, w := range widths {
		txt := ""
		if i < len(cells) {
			txt = cells[i]
		}
		pdf.CellFormat(w, 16, txt, "1", 0, "L", header, 0, "")
	}
	pdf.Ln(-1)
}

// channel maps a 0..1 color component to 0..255.
func channel(v float64) int {
	return int(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

func setFillColor(pdf *gofpdf.Fpdf, c domain.Color) {
	pdf.SetFillColor(channel(c.R), channel(c.G), channel(c.B))
}

func setTextColor(pdf *gofpdf.Fpdf, c domain.Color) {
	pdf.SetTextColor(channel(c.R), channel(c.G), channel(c.B))
}
