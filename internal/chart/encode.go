/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package chart

import (
	"strings"

	"chartmaker/internal/codec"
	"chartmaker/internal/domain"
)

// Options control cosmetic aspects of the encoded text.
type Options struct {
	// Indent is the number of spaces per nesting level. Zero writes every line flush left.
	Indent int
}

// DefaultOptions are used by Encode.
var DefaultOptions = Options{Indent: codec.DefaultIndent}

// Encode renders c in canonical form.
func Encode(c *domain.Chart) string { return EncodeWith(c, DefaultOptions) }

// EncodeWith renders c using opts. The document is not validated; whatever
// it holds is written.
func EncodeWith(c *domain.Chart, opts Options) string {
	w := codec.NewWriter(opts.Indent)
	w.Line(0, FormatName)
	w.Line(0, codec.Project)

	w.Section(sectionVersion)
	w.Line(0, codec.FormatInt(FormatVersion))

	w.Section(sectionMetadata)
	w.Meta(0, "Index", codec.FormatInt(c.DifficultyIndex))
	w.Meta(0, "Name", c.DifficultyName)
	w.Meta(0, "Charter", c.CharterName)
	w.MetaIf(0, "Alt Charter", c.AltCharterName)
	w.Meta(0, "Level", c.DifficultyLevel)
	w.Meta(0, "Constant", codec.FormatFloat(c.ChartConstant))

	w.Section(sectionCamera)
	w.Meta(0, "Pivot", codec.FormatVec3(c.Camera.Pivot))
	w.Meta(0, "Rotation", codec.FormatVec3(c.Camera.Rotation))
	w.Meta(0, "Distance", codec.FormatFloat(c.Camera.PivotDistance))
	w.Storyboard(0, &c.Camera.Storyboard)

	w.Section(sectionGroups)
	for _, g := range c.Groups {
		encodeGroup(w, g)
	}

	w.Section(sectionPalette)
	w.Meta(0, "Background", codec.FormatColor(c.Palette.BackgroundColor))
	w.Meta(0, "Interface", codec.FormatColor(c.Palette.InterfaceColor))
	w.Storyboard(0, &c.Palette.Storyboard)
	for _, s := range c.Palette.LaneStyles {
		encodeLaneStyle(w, s)
	}
	for _, s := range c.Palette.HitStyles {
		encodeHitStyle(w, s)
	}

	w.Section(sectionObjects)
	for _, l := range c.Lanes {
		encodeLane(w, l)
	}
	return w.String()
}

func record(kind string, fields ...string) string {
	return codec.ObjectMarker + " " + kind + " " + strings.Join(fields, " ")
}

func encodeGroup(w *codec.Writer, g *domain.LaneGroup) {
	w.Line(0, record(kindGroup, codec.FormatVec3(g.Position), codec.FormatVec3(g.Rotation)))
	w.MetaIf(1, "Name", g.Name)
	w.MetaIf(1, "Group", g.Group)
	w.Storyboard(1, &g.Storyboard)
}

// override writes key only when value differs from the built-in default.
func override(w *codec.Writer, key, value, def string) {
	if value != "" && value != def {
		w.Meta(1, key, value)
	}
}

func encodeLaneStyle(w *codec.Writer, s *domain.LaneStyle) {
	w.Line(0, record(kindLaneStyle, codec.FormatColor(s.LaneColor), codec.FormatColor(s.JudgeColor)))
	w.MetaIf(1, "Name", s.Name)
	override(w, "Lane Material", s.LaneMaterial, domain.DefaultMaterial)
	override(w, "Lane Target", s.LaneColorTarget, domain.DefaultColorTarget)
	override(w, "Judge Material", s.JudgeMaterial, domain.DefaultMaterial)
	override(w, "Judge Target", s.JudgeColorTarget, domain.DefaultColorTarget)
	w.Storyboard(1, &s.Storyboard)
}

func encodeHitStyle(w *codec.Writer, s *domain.HitStyle) {
	w.Line(0, record(kindHitStyle,
		codec.FormatColor(s.HoldTailColor), codec.FormatColor(s.NormalColor), codec.FormatColor(s.CatchColor)))
	w.MetaIf(1, "Name", s.Name)
	override(w, "Main Material", s.MainMaterial, domain.DefaultMaterial)
	override(w, "Main Target", s.MainColorTarget, domain.DefaultColorTarget)
	override(w, "Hold Tail Material", s.HoldTailMaterial, domain.DefaultMaterial)
	override(w, "Hold Tail Target", s.HoldTailColorTarget, domain.DefaultColorTarget)
	w.Storyboard(1, &s.Storyboard)
}

func encodeLane(w *codec.Writer, l *domain.Lane) {
	w.Line(0, record(kindLane, codec.FormatVec3(l.Position), codec.FormatVec3(l.Rotation), codec.FormatInt(l.StyleIndex)))
	w.MetaIf(1, "Name", l.Name)
	w.MetaIf(1, "Group", l.Group)
	w.Storyboard(1, &l.Storyboard)
	for _, s := range l.LaneSteps {
		w.Line(1, record(kindLaneStep,
			codec.FormatBeat(s.Offset),
			codec.FormatVec2(s.StartPoint), codec.FormatEase(s.StartEaseX), codec.FormatEase(s.StartEaseY),
			codec.FormatVec2(s.EndPoint), codec.FormatEase(s.EndEaseX), codec.FormatEase(s.EndEaseY),
			codec.FormatFloat(s.Speed)))
		w.Storyboard(2, &s.Storyboard)
	}
	for _, h := range l.Objects {
		w.Line(1, record(kindHit,
			h.Type.String(),
			codec.FormatBeat(h.Offset),
			codec.FormatFloat(h.Position),
			codec.FormatFloat(h.Length),
			codec.FormatFloat(h.HoldLength),
			formatFlick(h.Flickable, h.FlickDirection),
			codec.FormatInt(h.StyleIndex),
			formatFake(h.IsFake)))
		w.Storyboard(2, &h.Storyboard)
	}
}

func formatFlick(flickable bool, dir domain.NullFloat) string {
	if !flickable {
		return "N"
	}
	if dir.Valid {
		return "F" + codec.FormatFloat(dir.Float64)
	}
	return "F"
}

func formatFake(fake bool) string {
	if fake {
		return fakeToken
	}
	return realToken
}
