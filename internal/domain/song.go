/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "time"

// PlayableSong is the root of a song index document. Charts are referenced
// by file target and decoded separately.
type PlayableSong struct {
	SongName      string `json:"songName"`
	AltSongName   string `json:"altSongName,omitempty"`
	SongArtist    string `json:"songArtist"`
	AltSongArtist string `json:"altSongArtist,omitempty"`
	Genre         string `json:"genre"`
	Location      string `json:"location"`
	PreviewRange  Vec3   `json:"previewRange"` // x..y in seconds, z unused
	ClipPath      string `json:"clipPath"`

	BackgroundColor Color `json:"backgroundColor"`
	InterfaceColor  Color `json:"interfaceColor"`

	Cover  Cover                `json:"cover"`
	Timing TempoMap             `json:"timing"`
	Charts []*ExternalChartMeta `json:"charts"`
}

// NewPlayableSong returns an empty song with initialized collections.
func NewPlayableSong() *PlayableSong {
	return &PlayableSong{
		Cover:  Cover{Layers: []*CoverLayer{}},
		Timing: TempoMap{Stops: []*BPMStop{}},
		Charts: []*ExternalChartMeta{},
	}
}

// Cover is the layered jacket artwork of a song.
type Cover struct {
	ArtistName      string        `json:"artistName"`
	AltArtistName   string        `json:"altArtistName,omitempty"`
	BackgroundColor Color         `json:"backgroundColor"`
	IconTarget      string        `json:"iconTarget"`
	IconCenter      Vec3          `json:"iconCenter"`
	IconSize        float64       `json:"iconSize"`
	Layers          []*CoverLayer `json:"layers"`
}

// CoverLayer is one image of the cover stack.
type CoverLayer struct {
	Scale          float64 `json:"scale"`
	Position       Vec2    `json:"position"`
	ParallaxFactor float64 `json:"parallaxFactor"`
	Target         string  `json:"target"`
	Tiling         bool    `json:"tiling"`
}

// TempoMap is the ordered list of tempo changes of a song.
type TempoMap struct {
	Stops []*BPMStop `json:"stops"`
}

// BPMStop sets the tempo and time signature from Offset (seconds) onwards.
type BPMStop struct {
	Offset      float64 `json:"offset"`
	BPM         float64 `json:"bpm"`
	Signature   int     `json:"signature"`
	Significant bool    `json:"significant"`
}

// ExternalChartMeta describes a chart stored in its own file next to the song.
type ExternalChartMeta struct {
	Target          string  `json:"target"`
	DifficultyIndex int     `json:"difficultyIndex"`
	DifficultyName  string  `json:"difficultyName"`
	CharterName     string  `json:"charterName"`
	DifficultyLevel string  `json:"difficultyLevel"`
	ChartConstant   float64 `json:"chartConstant"`
}

// RecentSong is a library entry for a song the editor opened recently.
type RecentSong struct {
	Path            string    `json:"path"`
	IconPath        string    `json:"iconPath,omitempty"`
	SongName        string    `json:"songName"`
	SongArtist      string    `json:"songArtist"`
	BackgroundColor Color     `json:"backgroundColor"`
	InterfaceColor  Color     `json:"interfaceColor"`
	OpenedAt        time.Time `json:"openedAt"`
}
