/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package song

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"chartmaker/internal/codec"
	"chartmaker/internal/domain"
)

const sample = "JANOARG Playable Song Format\r\n" +
	"github.com/FFF40/JANOARG\r\n" +
	"\r\n" +
	"[VERSION]\r\n" +
	"2\r\n" +
	"\r\n" +
	"[METADATA]\r\n" +
	"Name: Starfall\r\n" +
	"Alt Name: ほしふり\r\n" +
	"Artist: Someone\r\n" +
	"Genre: Electronic\r\n" +
	"Location: Nowhere\r\n" +
	"Preview Range: 30 45\r\n" +
	"\r\n" +
	"[RESOURCES]\r\n" +
	"Clip: starfall.ogg\r\n" +
	"\r\n" +
	"[COVER]\r\n" +
	"Artist: Painter \r\n" +
	"Background: 0.1 0.1 0.2 1\r\n" +
	"Icon: icon.png\r\n" +
	"Icon Center: 0 12\r\n" +
	"Icon Size: 64\r\n" +
	"+ Layer 1 0 0 0.5\r\n" +
	"  Target: back.png\r\n" +
	"  Tiling\r\n" +
	"+ Layer 1.2 10 -4 1\r\n" +
	"  Target: front.png\r\n" +
	"\r\n" +
	"[COLORS]\r\n" +
	"Background: 0 0 0 1\r\n" +
	"Interface: 1 0.9 0.8 1\r\n" +
	"\r\n" +
	"[TIMING]\r\n" +
	"+ BPM 0.25 174 4 S\r\n" +
	"+ BPM 60 87 3 _\r\n" +
	"\r\n" +
	"[CHARTS]\r\n" +
	" + Chart\r\n" +
	"  Target: hard\r\n" +
	"  Index: 2\r\n" +
	"  Name: Hard\r\n" +
	"  Charter: Someone\r\n" +
	"  Level: 11\r\n" +
	"  Constant: 11.4\r\n"

func TestDecodeSample(t *testing.T) {
	s, err := Decode(sample)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.SongName != "Starfall" || s.AltSongName != "ほしふり" || s.ClipPath != "starfall.ogg" {
		t.Fatalf("metadata: %+v", s)
	}
	if s.PreviewRange != (domain.Vec3{X: 30, Y: 45}) {
		t.Fatalf("preview range: %+v", s.PreviewRange)
	}
	if s.Cover.ArtistName != "Painter" || s.Cover.IconSize != 64 || s.Cover.IconCenter.Y != 12 {
		t.Fatalf("cover: %+v", s.Cover)
	}
	if len(s.Cover.Layers) != 2 || !s.Cover.Layers[0].Tiling || s.Cover.Layers[1].Tiling {
		t.Fatalf("layers: %+v %+v", s.Cover.Layers[0], s.Cover.Layers[1])
	}
	if l := s.Cover.Layers[1]; l.Scale != 1.2 || l.Position != (domain.Vec2{X: 10, Y: -4}) || l.Target != "front.png" {
		t.Fatalf("layer: %+v", l)
	}
	if s.InterfaceColor != (domain.Color{R: 1, G: 0.9, B: 0.8, A: 1}) {
		t.Fatalf("interface: %+v", s.InterfaceColor)
	}
	if len(s.Timing.Stops) != 2 {
		t.Fatalf("stops: %d", len(s.Timing.Stops))
	}
	if st := s.Timing.Stops[0]; st.Offset != 0.25 || st.BPM != 174 || st.Signature != 4 || !st.Significant {
		t.Fatalf("stop 0: %+v", st)
	}
	if s.Timing.Stops[1].Significant {
		t.Fatalf("stop 1 should not be significant")
	}
	if len(s.Charts) != 1 || s.Charts[0].Target != "hard" || s.Charts[0].ChartConstant != 11.4 {
		t.Fatalf("charts: %+v", s.Charts)
	}
}

func TestRoundTrip(t *testing.T) {
	first, err := Decode(sample)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	text := Encode(first)
	second, err := Decode(text)
	if err != nil {
		t.Fatalf("re-decode: %v\n%s", err, text)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("round trip changed the song:\n%s", text)
	}
	for _, want := range []string{
		"\nAlt Name: ほしふり\n",
		"\nPreview Range: 30 45\n",
		"\n+ Layer 1 0 0 0.5\n  Target: back.png\n  Tiling\n",
		"\n+ BPM 0.25 174 4 S\n+ BPM 60 87 3 _\n",
		"\n+ Chart\n  Target: hard\n",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("missing %q in:\n%s", want, text)
		}
	}
	order := []string{"[VERSION]", "[METADATA]", "[RESOURCES]", "[COVER]", "[COLORS]", "[TIMING]", "[CHARTS]"}
	last := -1
	for _, sec := range order {
		i := strings.Index(text, sec)
		if i <= last {
			t.Fatalf("%s out of order", sec)
		}
		last = i
	}
}

func TestTilingToggles(t *testing.T) {
	s, err := Decode("[COVER]\n+ Layer 1 0 0 0\nTiling\nTiling\n")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Cover.Layers[0].Tiling {
		t.Fatalf("two Tiling lines should cancel out")
	}
	s, err = Decode("[COVER]\nTiling\n")
	if err != nil || len(s.Cover.Layers) != 0 {
		t.Fatalf("Tiling without a layer must be ignored: %v", err)
	}
}

func TestZComponentKept(t *testing.T) {
	s := domain.NewPlayableSong()
	s.Cover.IconCenter = domain.Vec3{X: 1, Y: 2, Z: 3}
	got, err := Decode(Encode(s))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Cover.IconCenter != s.Cover.IconCenter {
		t.Fatalf("icon center: %+v", got.Cover.IconCenter)
	}
}

func TestSongErrors(t *testing.T) {
	cases := []struct {
		doc  string
		want error
	}{
		{"[VERSION]\n3", codec.ErrUnsupportedVersion},
		{"[ARTWORK]", codec.ErrInvalidSection},
		{"[TIMING]\n+ BPM 0 120 4", codec.ErrTokenCount},
		{"[TIMING]\n+ BPM 0 fast 4 S", codec.ErrFormat},
		{"[COVER]\n+ Layer 1 0 0", codec.ErrTokenCount},
		{"[CHARTS]\n+ Video", codec.ErrUnknownIdentifier},
		{"[CHARTS]\n+ Chart\nIndex: two", codec.ErrFormat},
		{"[METADATA]\nPreview Range: 1", codec.ErrFormat},
	}
	for _, tc := range cases {
		s, err := Decode(tc.doc)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%q: expected %v, got %v", tc.doc, tc.want, err)
		}
		if s != nil {
			t.Fatalf("%q: partial song returned", tc.doc)
		}
	}

	_, err := Decode("[METADATA]\nName: x\nBackground: 1 1 one 1\n")
	var de *codec.DecodeError
	if !errors.As(err, &de) || de.Line != 3 {
		t.Fatalf("unexpected error: %v", err)
	}
}
