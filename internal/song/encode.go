/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package song

import (
	"strings"

	"chartmaker/internal/codec"
	"chartmaker/internal/domain"
)

// Options control cosmetic aspects of the encoded text.
type Options struct {
	Indent int
}

var DefaultOptions = Options{Indent: codec.DefaultIndent}

// Encode renders s in canonical form.
func Encode(s *domain.PlayableSong) string { return EncodeWith(s, DefaultOptions) }

func EncodeWith(s *domain.PlayableSong, opts Options) string {
	w := codec.NewWriter(opts.Indent)
	w.Line(0, FormatName)
	w.Line(0, codec.Project)

	w.Section(sectionVersion)
	w.Line(0, codec.FormatInt(FormatVersion))

	w.Section(sectionMetadata)
	w.Meta(0, "Name", s.SongName)
	w.MetaIf(0, "Alt Name", s.AltSongName)
	w.Meta(0, "Artist", s.SongArtist)
	w.MetaIf(0, "Alt Artist", s.AltSongArtist)
	w.Meta(0, "Genre", s.Genre)
	w.Meta(0, "Location", s.Location)
	w.Meta(0, "Preview Range", formatPlanar(s.PreviewRange))

	w.Section(sectionResources)
	w.Meta(0, "Clip", s.ClipPath)

	c := &s.Cover
	w.Section(sectionCover)
	w.Meta(0, "Artist", c.ArtistName)
	w.MetaIf(0, "Alt Artist", c.AltArtistName)
	w.Meta(0, "Background", codec.FormatColor(c.BackgroundColor))
	w.Meta(0, "Icon", c.IconTarget)
	w.Meta(0, "Icon Center", formatPlanar(c.IconCenter))
	w.Meta(0, "Icon Size", codec.FormatFloat(c.IconSize))
	for _, l := range c.Layers {
		w.Line(0, record(kindLayer,
			codec.FormatFloat(l.Scale), codec.FormatVec2(l.Position), codec.FormatFloat(l.ParallaxFactor)))
		w.Meta(1, "Target", l.Target)
		if l.Tiling {
			w.Line(1, tilingFlag)
		}
	}

	w.Section(sectionColors)
	w.Meta(0, "Background", codec.FormatColor(s.BackgroundColor))
	w.Meta(0, "Interface", codec.FormatColor(s.InterfaceColor))

	w.Section(sectionTiming)
	for _, st := range s.Timing.Stops {
		flag := "_"
		if st.Significant {
			flag = significantFlag
		}
		w.Line(0, record(kindBPM,
			codec.FormatFloat(st.Offset), codec.FormatFloat(st.BPM), codec.FormatInt(st.Signature), flag))
	}

	w.Section(sectionCharts)
	for _, m := range s.Charts {
		w.Line(0, codec.ObjectMarker+" "+kindChart)
		w.Meta(1, "Target", m.Target)
		w.Meta(1, "Index", codec.FormatInt(m.DifficultyIndex))
		w.Meta(1, "Name", m.DifficultyName)
		w.Meta(1, "Charter", m.CharterName)
		w.Meta(1, "Level", m.DifficultyLevel)
		w.Meta(1, "Constant", codec.FormatFloat(m.ChartConstant))
	}
	return w.String()
}

func record(kind string, fields ...string) string {
	return codec.ObjectMarker + " " + kind + " " + strings.Join(fields, " ")
}

// formatPlanar writes "x y", adding z only when it is set.
func formatPlanar(v domain.Vec3) string {
	if v.Z == 0 {
		return codec.FormatVec2(domain.Vec2{X: v.X, Y: v.Y})
	}
	return codec.FormatVec3(v)
}
