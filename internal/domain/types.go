/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "fmt"

// This file defines the chart document graph: the playable lane/note timeline
// read by the game client and written by the chart editor.
// Collections hold pointers so that a decoder can keep writing into the most
// recently appended entity while later siblings are still being appended.

// Default material and color target names used when a style carries no override.
const (
	DefaultMaterial    = "Default"
	DefaultColorTarget = "_Color"
)

// Chart is the root of a chart document.
type Chart struct {
	DifficultyIndex int     `json:"difficultyIndex"`
	DifficultyName  string  `json:"difficultyName"`
	CharterName     string  `json:"charterName"`
	AltCharterName  string  `json:"altCharterName,omitempty"`
	DifficultyLevel string  `json:"difficultyLevel"`
	ChartConstant   float64 `json:"chartConstant"`

	Camera  CameraController `json:"camera"`
	Palette Palette          `json:"palette"`
	Groups  []*LaneGroup     `json:"groups"`
	Lanes   []*Lane          `json:"lanes"`
}

// NewChart returns an empty chart with initialized collections.
func NewChart() *Chart {
	return &Chart{
		Palette: Palette{LaneStyles: []*LaneStyle{}, HitStyles: []*HitStyle{}},
		Groups:  []*LaneGroup{},
		Lanes:   []*Lane{},
	}
}

// CameraController places the camera around a pivot point.
type CameraController struct {
	Pivot         Vec3       `json:"pivot"`
	Rotation      Vec3       `json:"rotation"`
	PivotDistance float64    `json:"pivotDistance"`
	Storyboard    Storyboard `json:"storyboard"`
}

// Palette holds the chart-wide colors and the style tables referenced by index
// from lanes and hit objects.
type Palette struct {
	BackgroundColor Color        `json:"backgroundColor"`
	InterfaceColor  Color        `json:"interfaceColor"`
	LaneStyles      []*LaneStyle `json:"laneStyles"`
	HitStyles       []*HitStyle  `json:"hitStyles"`
	Storyboard      Storyboard   `json:"storyboard"`
}

// LaneGroup is a named transform that lanes (and other groups) attach to by name.
type LaneGroup struct {
	Position   Vec3       `json:"position"`
	Rotation   Vec3       `json:"rotation"`
	Name       string     `json:"name"`
	Group      string     `json:"group,omitempty"` // parent group name
	Storyboard Storyboard `json:"storyboard"`
}

// LaneStyle describes how a lane and its judgment line are drawn.
// Empty material/target fields mean "no override".
type LaneStyle struct {
	LaneColor        Color      `json:"laneColor"`
	JudgeColor       Color      `json:"judgeColor"`
	Name             string     `json:"name,omitempty"`
	LaneMaterial     string     `json:"laneMaterial,omitempty"`
	LaneColorTarget  string     `json:"laneColorTarget,omitempty"`
	JudgeMaterial    string     `json:"judgeMaterial,omitempty"`
	JudgeColorTarget string     `json:"judgeColorTarget,omitempty"`
	Storyboard       Storyboard `json:"storyboard"`
}

// EffectiveLaneMaterial returns the lane material, falling back to DefaultMaterial.
func (s *LaneStyle) EffectiveLaneMaterial() string { return orDefault(s.LaneMaterial, DefaultMaterial) }

// EffectiveLaneColorTarget returns the lane color target, falling back to DefaultColorTarget.
func (s *LaneStyle) EffectiveLaneColorTarget() string {
	return orDefault(s.LaneColorTarget, DefaultColorTarget)
}

// EffectiveJudgeMaterial returns the judge material, falling back to DefaultMaterial.
func (s *LaneStyle) EffectiveJudgeMaterial() string { return orDefault(s.JudgeMaterial, DefaultMaterial) }

// EffectiveJudgeColorTarget returns the judge color target, falling back to DefaultColorTarget.
func (s *LaneStyle) EffectiveJudgeColorTarget() string {
	return orDefault(s.JudgeColorTarget, DefaultColorTarget)
}

// HitStyle describes how hit objects are drawn.
type HitStyle struct {
	HoldTailColor       Color      `json:"holdTailColor"`
	NormalColor         Color      `json:"normalColor"`
	CatchColor          Color      `json:"catchColor"`
	Name                string     `json:"name,omitempty"`
	MainMaterial        string     `json:"mainMaterial,omitempty"`
	MainColorTarget     string     `json:"mainColorTarget,omitempty"`
	HoldTailMaterial    string     `json:"holdTailMaterial,omitempty"`
	HoldTailColorTarget string     `json:"holdTailColorTarget,omitempty"`
	Storyboard          Storyboard `json:"storyboard"`
}

// EffectiveMainMaterial returns the main material, falling back to DefaultMaterial.
func (s *HitStyle) EffectiveMainMaterial() string { return orDefault(s.MainMaterial, DefaultMaterial) }

// EffectiveMainColorTarget returns the main color target, falling back to DefaultColorTarget.
func (s *HitStyle) EffectiveMainColorTarget() string {
	return orDefault(s.MainColorTarget, DefaultColorTarget)
}

// EffectiveHoldTailMaterial returns the hold tail material, falling back to DefaultMaterial.
func (s *HitStyle) EffectiveHoldTailMaterial() string {
	return orDefault(s.HoldTailMaterial, DefaultMaterial)
}

// EffectiveHoldTailColorTarget returns the hold tail color target, falling back to DefaultColorTarget.
func (s *HitStyle) EffectiveHoldTailColorTarget() string {
	return orDefault(s.HoldTailColorTarget, DefaultColorTarget)
}

// Lane is a note-carrying track. It owns its steps and hit objects.
type Lane struct {
	Position   Vec3         `json:"position"`
	Rotation   Vec3         `json:"rotation"`
	StyleIndex int          `json:"styleIndex"`
	Name       string       `json:"name,omitempty"`
	Group      string       `json:"group,omitempty"`
	Storyboard Storyboard   `json:"storyboard"`
	LaneSteps  []*LaneStep  `json:"laneSteps"`
	Objects    []*HitObject `json:"objects"`
}

// LaneStep is one segment of a lane's path, from StartPoint to EndPoint.
type LaneStep struct {
	Offset     BeatPosition  `json:"offset"`
	StartPoint Vec2          `json:"startPoint"`
	StartEaseX EaseDirective `json:"startEaseX"`
	StartEaseY EaseDirective `json:"startEaseY"`
	EndPoint   Vec2          `json:"endPoint"`
	EndEaseX   EaseDirective `json:"endEaseX"`
	EndEaseY   EaseDirective `json:"endEaseY"`
	Speed      float64       `json:"speed"`
	Storyboard Storyboard    `json:"storyboard"`
}

// HitType is the kind of a playable note.
type HitType int

const (
	HitNormal HitType = iota
	HitCatch
)

var hitTypeNames = [...]string{"Normal", "Catch"}

func (t HitType) String() string {
	if t < 0 || int(t) >= len(hitTypeNames) {
		return "HitType(?)"
	}
	return hitTypeNames[t]
}

// ParseHitType matches name case-sensitively against the known hit types.
func ParseHitType(name string) (HitType, bool) {
	for i, n := range hitTypeNames {
		if n == name {
			return HitType(i), true
		}
	}
	return 0, false
}

func (t HitType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *HitType) UnmarshalText(b []byte) error {
	v, ok := ParseHitType(string(b))
	if !ok {
		return fmt.Errorf("unknown hit type %q", string(b))
	}
	*t = v
	return nil
}

// HitObject is one playable note on a lane.
type HitObject struct {
	Type           HitType      `json:"type"`
	Offset         BeatPosition `json:"offset"`
	Position       float64      `json:"position"`
	Length         float64      `json:"length"`
	HoldLength     float64      `json:"holdLength"`
	Flickable      bool         `json:"flickable"`
	FlickDirection NullFloat    `json:"flickDirection"` // unset: flick in any direction
	StyleIndex     int          `json:"styleIndex"`
	IsFake         bool         `json:"isFake"`
	Storyboard     Storyboard   `json:"storyboard"`
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
