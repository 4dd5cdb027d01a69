/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"encoding/json"
	"math"
)

// Vec2 is a 2D point or size.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Vec3 is a 3D point, rotation (degrees) or, for songs, a padded 2D range.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Color is a linear RGBA color with components in the 0..1 range.
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// White is the zero-override color used by freshly created styles.
var White = Color{R: 1, G: 1, B: 1, A: 1}

// BeatPosition is a musical time measured in beats.
type BeatPosition float64

// NewBeatPosition builds a position from a whole beat count and a fractional
// sub-beat num/den. The numerator carries the sign of the fraction.
// A zero denominator yields the whole beat count.
func NewBeatPosition(whole, num, den int) BeatPosition {
	if den == 0 {
		return BeatPosition(whole)
	}
	return BeatPosition(float64(whole) + float64(num)/float64(den))
}

// Beats returns the position as a plain float.
func (b BeatPosition) Beats() float64 { return float64(b) }

// NullFloat is a float that may be unset.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

// Float returns a set NullFloat.
func Float(v float64) NullFloat { return NullFloat{Float64: v, Valid: true} }

// Unset is the "no value" NullFloat.
var Unset = NullFloat{}

// OrNaN returns the value, or NaN when unset.
func (n NullFloat) OrNaN() float64 {
	if !n.Valid {
		return math.NaN()
	}
	return n.Float64
}

func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Float64)
}

func (n *NullFloat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = NullFloat{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = Float(v)
	return nil
}
