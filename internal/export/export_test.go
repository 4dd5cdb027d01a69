package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"chartmaker/internal/domain"
)

func sampleChart(t *testing.T) *domain.Chart {
	t.Helper()
	c := domain.NewChart()
	c.DifficultyName = "Hard"
	c.CharterName = "ducdat0507"
	c.DifficultyLevel = "11"
	c.ChartConstant = 11.4
	c.Palette.LaneStyles = append(c.Palette.LaneStyles, &domain.LaneStyle{LaneColor: domain.Color{A: 1}})
	bez, err := domain.NewBezierEase(domain.Vec2{X: 0.25, Y: 0.1}, domain.Vec2{X: 0.25, Y: 1})
	if err != nil {
		t.Fatalf("bezier: %v", err)
	}
	lane := &domain.Lane{Name: "main"}
	lane.Storyboard.Add(domain.Timestamp{ID: domain.TSPivotX, Offset: 4, Duration: 1, Target: 2, Easing: domain.BasicEase(domain.EaseCubic, domain.EaseOut)})
	lane.LaneSteps = []*domain.LaneStep{{
		StartPoint: domain.Vec2{X: -4},
		StartEaseX: bez,
		EndPoint:   domain.Vec2{X: 4},
		Speed:      1,
	}}
	lane.Objects = []*domain.HitObject{
		{Type: domain.HitNormal, Offset: 1, Length: 1},
		{Type: domain.HitCatch, Offset: 2, Length: 1, Flickable: true, FlickDirection: domain.Float(90)},
	}
	c.Lanes = append(c.Lanes, lane)
	return c
}

func sampleSong() *domain.PlayableSong {
	s := domain.NewPlayableSong()
	s.SongName = "Starfall"
	s.SongArtist = "Nyx"
	s.Genre = "Drum & Bass"
	s.BackgroundColor = domain.Color{R: 0.1, G: 0.1, B: 0.2, A: 1}
	s.InterfaceColor = domain.Color{R: 1, G: 1, B: 1, A: 1}
	s.Timing.Stops = []*domain.BPMStop{{Offset: 0, BPM: 174, Signature: 4, Significant: true}}
	s.Charts = []*domain.ExternalChartMeta{{Target: "hard", DifficultyIndex: 2, DifficultyName: "Hard", ChartConstant: 11.4}}
	return s
}

func TestChartJSONValidates(t *testing.T) {
	data, err := ChartJSON(sampleChart(t))
	if err != nil {
		t.Fatalf("ChartJSON: %v", err)
	}
	var doc struct {
		Lanes []struct {
			Objects []struct {
				Type           string   `json:"type"`
				FlickDirection *float64 `json:"flickDirection"`
			} `json:"objects"`
			Storyboard struct {
				Timestamps []struct {
					ID     string `json:"id"`
					Easing struct {
						Function string `json:"function"`
						Mode     string `json:"mode"`
					} `json:"easing"`
				} `json:"timestamps"`
			} `json:"storyboard"`
		} `json:"lanes"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	objs := doc.Lanes[0].Objects
	if objs[0].Type != "Normal" || objs[0].FlickDirection != nil {
		t.Fatalf("first hit: %+v", objs[0])
	}
	if objs[1].Type != "Catch" || objs[1].FlickDirection == nil || *objs[1].FlickDirection != 90 {
		t.Fatalf("second hit: %+v", objs[1])
	}
	ts := doc.Lanes[0].Storyboard.Timestamps[0]
	if ts.Easing.Function != "Cubic" || ts.Easing.Mode != "Out" {
		t.Fatalf("easing: %+v", ts)
	}
}

func TestChartJSONEmptyStoryboardsValidate(t *testing.T) {
	if _, err := ChartJSON(domain.NewChart()); err != nil {
		t.Fatalf("empty chart: %v", err)
	}
	if _, err := ChartJSON(nil); err == nil {
		t.Fatalf("expected error for nil chart")
	}
}

func TestSongJSONValidates(t *testing.T) {
	data, err := SongJSON(sampleSong())
	if err != nil {
		t.Fatalf("SongJSON: %v", err)
	}
	if !bytes.Contains(data, []byte(`"songName": "Starfall"`)) {
		t.Fatalf("unexpected output:\n%s", data)
	}
}

func TestSongJSONRejectsInvalidDocument(t *testing.T) {
	s := sampleSong()
	s.Charts[0].Target = ""
	s.Timing.Stops[0].BPM = 0
	_, err := SongJSON(s)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Problems) < 2 || ve.Document != "song" {
		t.Fatalf("problems: %+v", ve)
	}
}

func TestSongSheetPDFCreatesFile(t *testing.T) {
	s := sampleSong()
	s.AltSongName = "Sternschnuppe"
	for i := 0; i < 80; i++ {
		s.Timing.Stops = append(s.Timing.Stops, &domain.BPMStop{Offset: float64(i + 1), BPM: 174, Signature: 4})
	}
	out := filepath.Join(t.TempDir(), "sheets", "starfall.pdf")
	if err := SongSheetPDF(s, out, SheetOptions{}); err != nil {
		t.Fatalf("export: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF-")) {
		t.Fatalf("not a pdf")
	}
	if err := SongSheetPDF(nil, out, SheetOptions{}); err == nil {
		t.Fatalf("expected error for nil song")
	}
}
