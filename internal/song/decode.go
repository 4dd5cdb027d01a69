/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package song reads and writes playable song index documents (.japs):
// song metadata, layered cover art, the tempo map and references to the
// chart files of each difficulty.
package song

import (
	"chartmaker/internal/codec"
	"chartmaker/internal/domain"
	applog "chartmaker/internal/log"
)

// FormatVersion is the newest song format version this package understands.
const FormatVersion = 2

// FormatName is the first line of every encoded song.
const FormatName = "JANOARG Playable Song Format"

const (
	sectionVersion   = "VERSION"
	sectionMetadata  = "METADATA"
	sectionResources = "RESOURCES"
	sectionCover     = "COVER"
	sectionColors    = "COLORS"
	sectionTiming    = "TIMING"
	sectionCharts    = "CHARTS"
)

const (
	kindLayer = "Layer"
	kindBPM   = "BPM"
	kindChart = "Chart"
)

// tilingFlag on its own line marks the current cover layer as tiled.
const tilingFlag = "Tiling"

// significantFlag marks a tempo stop that starts a new section.
const significantFlag = "S"

type target int

const (
	targetNone target = iota
	targetVersion
	targetSong
	targetCover
	targetTiming
	targetCharts
	targetLayer
	targetStop
	targetChart
)

type decoder struct {
	song   *domain.PlayableSong
	target target
	layer  *domain.CoverLayer
	chart  *domain.ExternalChartMeta
}

// Decode parses a song index document. On failure it returns a
// *codec.DecodeError naming the offending line and no song.
func Decode(text string) (*domain.PlayableSong, error) {
	d := &decoder{song: domain.NewPlayableSong()}
	if err := codec.EachLine(text, d.line); err != nil {
		return nil, err
	}
	applog.WithComponent("song").Debug("decoded song",
		"name", d.song.SongName,
		"layers", len(d.song.Cover.Layers),
		"bpm_stops", len(d.song.Timing.Stops),
		"charts", len(d.song.Charts),
	)
	return d.song, nil
}

func (d *decoder) line(line string) error {
	if name, ok := codec.SectionName(line); ok {
		return d.section(name)
	}
	if codec.IsObject(line) {
		return d.object(codec.Fields(line))
	}
	if key, value, ok := codec.SplitMetadata(line); ok {
		return d.metadata(key, value)
	}
	switch d.target {
	case targetLayer:
		if line == tilingFlag {
			d.layer.Tiling = !d.layer.Tiling
		}
	case targetVersion:
		return codec.CheckVersion(line, FormatVersion)
	}
	return nil
}

func (d *decoder) section(name string) error {
	switch name {
	case sectionVersion:
		d.target = targetVersion
	case sectionMetadata, sectionResources, sectionColors:
		d.target = targetSong
	case sectionCover:
		d.target = targetCover
	case sectionTiming:
		d.target = targetTiming
	case sectionCharts:
		d.target = targetCharts
	default:
		return &codec.InvalidSectionError{Name: name}
	}
	return nil
}

func (d *decoder) object(toks []string) error {
	kind, err := codec.ObjectKind(toks)
	if err != nil {
		return err
	}
	switch kind {
	case kindLayer:
		return d.addLayer(toks)
	case kindBPM:
		return d.addStop(toks)
	case kindChart:
		m := &domain.ExternalChartMeta{}
		d.song.Charts = append(d.song.Charts, m)
		d.chart, d.target = m, targetChart
		return nil
	}
	return &codec.UnknownIdentifierError{Kind: "object", Name: kind}
}

func (d *decoder) addLayer(toks []string) error {
	if err := codec.RequireTokens(kindLayer, toks, 6); err != nil {
		return err
	}
	v, err := codec.ParseFloats(toks[2:6])
	if err != nil {
		return err
	}
	l := &domain.CoverLayer{Scale: v[0], Position: domain.Vec2{X: v[1], Y: v[2]}, ParallaxFactor: v[3]}
	d.song.Cover.Layers = append(d.song.Cover.Layers, l)
	d.layer, d.target = l, targetLayer
	return nil
}

func (d *decoder) addStop(toks []string) error {
	if err := codec.RequireTokens(kindBPM, toks, 6); err != nil {
		return err
	}
	v, err := codec.ParseFloats(toks[2:4])
	if err != nil {
		return err
	}
	sig, err := codec.ParseInt(toks[4])
	if err != nil {
		return err
	}
	s := &domain.BPMStop{Offset: v[0], BPM: v[1], Signature: sig, Significant: toks[5] == significantFlag}
	d.song.Timing.Stops = append(d.song.Timing.Stops, s)
	d.target = targetStop
	return nil
}

func (d *decoder) metadata(key, value string) error {
	var err error
	switch d.target {
	case targetSong:
		s := d.song
		switch key {
		case "Name":
			s.SongName = value
		case "Alt Name":
			s.AltSongName = value
		case "Artist":
			s.SongArtist = value
		case "Alt Artist":
			s.AltSongArtist = value
		case "Genre":
			s.Genre = value
		case "Location":
			s.Location = value
		case "Preview Range":
			s.PreviewRange, err = codec.ParseVec3Loose(value)
		case "Clip":
			s.ClipPath = value
		case "Background":
			s.BackgroundColor, err = codec.ParseColor(value)
		case "Interface":
			s.InterfaceColor, err = codec.ParseColor(value)
		}
	case targetCover:
		c := &d.song.Cover
		switch key {
		case "Artist":
			c.ArtistName = value
		case "Alt Artist":
			c.AltArtistName = value
		case "Background":
			c.BackgroundColor, err = codec.ParseColor(value)
		case "Icon":
			c.IconTarget = value
		case "Icon Center":
			c.IconCenter, err = codec.ParseVec3Loose(value)
		case "Icon Size":
			c.IconSize, err = codec.ParseFloat(value)
		}
	case targetLayer:
		if key == "Target" {
			d.layer.Target = value
		}
	case targetChart:
		m := d.chart
		switch key {
		case "Target":
			m.Target = value
		case "Index":
			m.DifficultyIndex, err = codec.ParseInt(value)
		case "Name":
			m.DifficultyName = value
		case "Charter":
			m.CharterName = value
		case "Level":
			m.DifficultyLevel = value
		case "Constant":
			m.ChartConstant, err = codec.ParseFloat(value)
		}
	}
	return err
}
