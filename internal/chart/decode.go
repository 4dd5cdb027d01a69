/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package chart reads and writes chart documents (.jac): the lane, note and
// camera timeline of one difficulty.
//
// The format is line oriented. Lines are classified, in this order, as a
// section header "[NAME]", a storyboard entry "$ ...", an object record
// "+ Kind ...", a "Key: value" metadata line, or a version number inside
// [VERSION]. Everything else is ignored. Nesting is implied by record order:
// LaneStep and Hit records belong to the most recent Lane.
package chart

import (
	"chartmaker/internal/codec"
	"chartmaker/internal/domain"
	applog "chartmaker/internal/log"
)

// FormatVersion is the newest chart format version this package understands.
const FormatVersion = 2

// FormatName is the first line of every encoded chart.
const FormatName = "JANOARG Chart Format"

// Section names. PALLETE is spelled as in existing files.
const (
	sectionVersion  = "VERSION"
	sectionMetadata = "METADATA"
	sectionCamera   = "CAMERA"
	sectionPalette  = "PALLETE"
	sectionGroups   = "GROUPS"
	sectionObjects  = "OBJECTS"
)

// Record kinds of "+ Kind" lines and their minimum token counts, marker and
// kind included.
const (
	kindGroup     = "Group"
	kindLaneStyle = "LaneStyle"
	kindHitStyle  = "HitStyle"
	kindLane      = "Lane"
	kindLaneStep  = "LaneStep"
	kindHit       = "Hit"
)

var minTokens = map[string]int{
	kindGroup:     8,
	kindLaneStyle: 10,
	kindHitStyle:  14,
	kindLane:      9,
	kindLaneStep:  12,
	kindHit:       10,
}

// target is the entity that receives metadata lines.
type target int

const (
	targetNone target = iota
	targetVersion
	targetChart
	targetCamera
	targetPalette
	targetGroups // inside [GROUPS] before any group
	targetLanes  // inside [OBJECTS] before any lane
	targetGroup
	targetLaneStyle
	targetHitStyle
	targetLane
	targetLaneStep
	targetHit
)

type decoder struct {
	chart *domain.Chart

	target target

	group     *domain.LaneGroup
	laneStyle *domain.LaneStyle
	hitStyle  *domain.HitStyle
	lane      *domain.Lane

	storyboard  *domain.Storyboard
	currentLane *domain.Lane // parent of LaneStep and Hit records
}

// Decode parses a chart document. On failure it returns a *codec.DecodeError
// naming the offending line and no chart.
func Decode(text string) (*domain.Chart, error) {
	d := &decoder{chart: domain.NewChart()}
	if err := codec.EachLine(text, d.line); err != nil {
		return nil, err
	}
	applog.WithComponent("chart").Debug("decoded chart",
		"groups", len(d.chart.Groups),
		"lanes", len(d.chart.Lanes),
		"lane_styles", len(d.chart.Palette.LaneStyles),
		"hit_styles", len(d.chart.Palette.HitStyles),
	)
	return d.chart, nil
}

func (d *decoder) line(line string) error {
	if name, ok := codec.SectionName(line); ok {
		return d.section(name)
	}
	if codec.IsStoryboard(line) {
		return codec.DecodeStoryboardLine(d.storyboard, line)
	}
	if codec.IsObject(line) {
		return d.object(codec.Fields(line))
	}
	if key, value, ok := codec.SplitMetadata(line); ok {
		return d.metadata(key, value)
	}
	if d.target == targetVersion {
		return codec.CheckVersion(line, FormatVersion)
	}
	return nil
}

func (d *decoder) section(name string) error {
	c := d.chart
	switch name {
	case sectionVersion:
		d.target = targetVersion
	case sectionMetadata:
		d.target = targetChart
	case sectionCamera:
		d.target = targetCamera
		d.storyboard = &c.Camera.Storyboard
	case sectionPalette:
		d.target = targetPalette
		d.storyboard = &c.Palette.Storyboard
	case sectionGroups:
		d.target = targetGroups
		d.storyboard = nil
	case sectionObjects:
		d.target = targetLanes
		d.storyboard = nil
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
	need, ok := minTokens[kind]
	if !ok {
		return &codec.UnknownIdentifierError{Kind: "object", Name: kind}
	}
	if err := codec.RequireTokens(kind, toks, need); err != nil {
		return err
	}

	switch kind {
	case kindGroup:
		return d.addGroup(toks)
	case kindLaneStyle:
		return d.addLaneStyle(toks)
	case kindHitStyle:
		return d.addHitStyle(toks)
	case kindLane:
		return d.addLane(toks)
	case kindLaneStep:
		return d.addLaneStep(toks)
	default:
		return d.addHit(toks)
	}
}

func (d *decoder) addGroup(toks []string) error {
	pos, err := codec.Vec3From(toks[2:5])
	if err != nil {
		return err
	}
	rot, err := codec.Vec3From(toks[5:8])
	if err != nil {
		return err
	}
	g := &domain.LaneGroup{Position: pos, Rotation: rot}
	d.chart.Groups = append(d.chart.Groups, g)
	d.group, d.target, d.storyboard = g, targetGroup, &g.Storyboard
	return nil
}

func (d *decoder) addLaneStyle(toks []string) error {
	lane, err := codec.ColorFrom(toks[2:6])
	if err != nil {
		return err
	}
	judge, err := codec.ColorFrom(toks[6:10])
	if err != nil {
		return err
	}
	s := &domain.LaneStyle{LaneColor: lane, JudgeColor: judge}
	d.chart.Palette.LaneStyles = append(d.chart.Palette.LaneStyles, s)
	d.laneStyle, d.target, d.storyboard = s, targetLaneStyle, &s.Storyboard
	return nil
}

func (d *decoder) addHitStyle(toks []string) error {
	var cols [3]domain.Color
	for i := range cols {
		c, err := codec.ColorFrom(toks[2+4*i : 6+4*i])
		if err != nil {
			return err
		}
		cols[i] = c
	}
	s := &domain.HitStyle{HoldTailColor: cols[0], NormalColor: cols[1], CatchColor: cols[2]}
	d.chart.Palette.HitStyles = append(d.chart.Palette.HitStyles, s)
	d.hitStyle, d.target, d.storyboard = s, targetHitStyle, &s.Storyboard
	return nil
}

func (d *decoder) addLane(toks []string) error {
	pos, err := codec.Vec3From(toks[2:5])
	if err != nil {
		return err
	}
	rot, err := codec.Vec3From(toks[5:8])
	if err != nil {
		return err
	}
	style, err := codec.ParseInt(toks[8])
	if err != nil {
		return err
	}
	l := &domain.Lane{Position: pos, Rotation: rot, StyleIndex: style}
	d.chart.Lanes = append(d.chart.Lanes, l)
	d.lane, d.currentLane = l, l
	d.target, d.storyboard = targetLane, &l.Storyboard
	return nil
}

func (d *decoder) addLaneStep(toks []string) error {
	if d.currentLane == nil {
		return &codec.MissingParentError{Kind: kindLaneStep, Parent: kindLane}
	}
	var (
		s   domain.LaneStep
		err error
	)
	if s.Offset, err = codec.ParseBeat(toks[2]); err != nil {
		return err
	}
	if s.StartPoint, err = vec2(toks[3], toks[4]); err != nil {
		return err
	}
	if s.StartEaseX, err = codec.ParseEase(toks[5]); err != nil {
		return err
	}
	if s.StartEaseY, err = codec.ParseEase(toks[6]); err != nil {
		return err
	}
	if s.EndPoint, err = vec2(toks[7], toks[8]); err != nil {
		return err
	}
	if s.EndEaseX, err = codec.ParseEase(toks[9]); err != nil {
		return err
	}
	if s.EndEaseY, err = codec.ParseEase(toks[10]); err != nil {
		return err
	}
	if s.Speed, err = codec.ParseFloat(toks[11]); err != nil {
		return err
	}
	step := &s
	d.currentLane.LaneSteps = append(d.currentLane.LaneSteps, step)
	d.target, d.storyboard = targetLaneStep, &step.Storyboard
	return nil
}

func (d *decoder) addHit(toks []string) error {
	if d.currentLane == nil {
		return &codec.MissingParentError{Kind: kindHit, Parent: kindLane}
	}
	typ, ok := domain.ParseHitType(toks[2])
	if !ok {
		return &codec.UnknownIdentifierError{Kind: "hit type", Name: toks[2]}
	}
	h := &domain.HitObject{Type: typ}
	var err error
	if h.Offset, err = codec.ParseBeat(toks[3]); err != nil {
		return err
	}
	if h.Position, err = codec.ParseFloat(toks[4]); err != nil {
		return err
	}
	if h.Length, err = codec.ParseFloat(toks[5]); err != nil {
		return err
	}
	if h.HoldLength, err = codec.ParseFloat(toks[6]); err != nil {
		return err
	}
	if h.Flickable, h.FlickDirection, err = parseFlick(toks[7]); err != nil {
		return err
	}
	if h.StyleIndex, err = codec.ParseInt(toks[8]); err != nil {
		return err
	}
	h.IsFake = toks[9] == fakeToken

	d.currentLane.Objects = append(d.currentLane.Objects, h)
	d.target, d.storyboard = targetHit, &h.Storyboard
	return nil
}

const (
	fakeToken = "_"
	realToken = "R"
)

// parseFlick decodes "N", "F" or "F<degrees>".
func parseFlick(tok string) (bool, domain.NullFloat, error) {
	switch {
	case tok == "N":
		return false, domain.Unset, nil
	case tok == "F":
		return true, domain.Unset, nil
	case tok[0] == 'F':
		dir, err := codec.ParseFloat(tok[1:])
		if err != nil {
			return false, domain.Unset, err
		}
		return true, domain.Float(dir), nil
	}
	return false, domain.Unset, &codec.FormatError{Kind: "flick", Token: tok}
}

func vec2(x, y string) (domain.Vec2, error) {
	return codec.ParseVec2(x + " " + y)
}

func (d *decoder) metadata(key, value string) error {
	switch d.target {
	case targetChart:
		return d.chartMeta(key, value)
	case targetCamera:
		return d.cameraMeta(key, value)
	case targetPalette:
		return d.paletteMeta(key, value)
	case targetGroup:
		switch key {
		case "Name":
			d.group.Name = value
		case "Group":
			d.group.Group = value
		}
	case targetLaneStyle:
		s := d.laneStyle
		switch key {
		case "Name":
			s.Name = value
		case "Lane Material":
			s.LaneMaterial = value
		case "Lane Target":
			s.LaneColorTarget = value
		case "Judge Material":
			s.JudgeMaterial = value
		case "Judge Target":
			s.JudgeColorTarget = value
		}
	case targetHitStyle:
		s := d.hitStyle
		switch key {
		case "Name":
			s.Name = value
		case "Main Material":
			s.MainMaterial = value
		case "Main Target":
			s.MainColorTarget = value
		case "Hold Tail Material":
			s.HoldTailMaterial = value
		case "Hold Tail Target":
			s.HoldTailColorTarget = value
		}
	case targetLane:
		switch key {
		case "Name":
			d.lane.Name = value
		case "Group":
			d.lane.Group = value
		}
	}
	// Unknown keys and keyless targets are skipped.
	return nil
}

func (d *decoder) chartMeta(key, value string) error {
	c := d.chart
	var err error
	switch key {
	case "Index":
		c.DifficultyIndex, err = codec.ParseInt(value)
	case "Name":
		c.DifficultyName = value
	case "Charter":
		c.CharterName = value
	case "Alt Charter":
		c.AltCharterName = value
	case "Level":
		c.DifficultyLevel = value
	case "Constant":
		c.ChartConstant, err = codec.ParseFloat(value)
	}
	return err
}

func (d *decoder) cameraMeta(key, value string) error {
	cam := &d.chart.Camera
	var err error
	switch key {
	case "Pivot":
		cam.Pivot, err = codec.ParseVec3(value)
	case "Rotation":
		cam.Rotation, err = codec.ParseVec3(value)
	case "Distance":
		cam.PivotDistance, err = codec.ParseFloat(value)
	}
	return err
}

func (d *decoder) paletteMeta(key, value string) error {
	p := &d.chart.Palette
	var err error
	switch key {
	case "Background":
		p.BackgroundColor, err = codec.ParseColor(value)
	case "Interface":
		p.InterfaceColor, err = codec.ParseColor(value)
	}
	return err
}
