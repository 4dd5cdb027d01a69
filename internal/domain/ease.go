/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"errors"
	"fmt"
)

// EaseFunction names one of the closed-form easing curves.
type EaseFunction int

const (
	EaseLinear EaseFunction = iota
	EaseSine
	EaseQuadratic
	EaseCubic
	EaseQuartic
	EaseQuintic
	EaseExponential
	EaseCircle
	EaseBack
	EaseElastic
	EaseBounce
)

var easeFunctionNames = [...]string{
	"Linear", "Sine", "Quadratic", "Cubic", "Quartic", "Quintic",
	"Exponential", "Circle", "Back", "Elastic", "Bounce",
}

func (f EaseFunction) String() string {
	if f < 0 || int(f) >= len(easeFunctionNames) {
		return fmt.Sprintf("EaseFunction(%d)", int(f))
	}
	return easeFunctionNames[f]
}

// ParseEaseFunction matches name case-sensitively.
func ParseEaseFunction(name string) (EaseFunction, bool) {
	for i, n := range easeFunctionNames {
		if n == name {
			return EaseFunction(i), true
		}
	}
	return 0, false
}

func (f EaseFunction) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

func (f *EaseFunction) UnmarshalText(b []byte) error {
	v, ok := ParseEaseFunction(string(b))
	if !ok {
		return fmt.Errorf("unknown ease function %q", string(b))
	}
	*f = v
	return nil
}

// EaseMode selects which end of the curve is eased.
type EaseMode int

const (
	EaseIn EaseMode = iota
	EaseOut
	EaseInOut
)

var easeModeNames = [...]string{"In", "Out", "InOut"}

func (m EaseMode) String() string {
	if m < 0 || int(m) >= len(easeModeNames) {
		return fmt.Sprintf("EaseMode(%d)", int(m))
	}
	return easeModeNames[m]
}

// ParseEaseMode matches name case-sensitively.
func ParseEaseMode(name string) (EaseMode, bool) {
	for i, n := range easeModeNames {
		if n == name {
			return EaseMode(i), true
		}
	}
	return 0, false
}

func (m EaseMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *EaseMode) UnmarshalText(b []byte) error {
	v, ok := ParseEaseMode(string(b))
	if !ok {
		return fmt.Errorf("unknown ease mode %q", string(b))
	}
	*m = v
	return nil
}

// EaseKind tags the active variant of an EaseDirective.
type EaseKind int

const (
	EaseKindBasic EaseKind = iota
	EaseKindBezier
)

func (k EaseKind) String() string {
	switch k {
	case EaseKindBasic:
		return "Basic"
	case EaseKindBezier:
		return "Bezier"
	}
	return fmt.Sprintf("EaseKind(%d)", int(k))
}

func (k EaseKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *EaseKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "Basic":
		*k = EaseKindBasic
	case "Bezier":
		*k = EaseKindBezier
	default:
		return fmt.Errorf("unknown ease kind %q", string(b))
	}
	return nil
}

// ErrControlPointRange reports a Bezier control point whose x lies outside [0,1].
var ErrControlPointRange = errors.New("bezier control point x must be within [0,1]")

// EaseDirective describes an animation curve. Kind selects the variant:
// Basic uses Function and Mode, Bezier uses P1 and P2.
// The zero value is a linear ease.
type EaseDirective struct {
	Kind     EaseKind     `json:"kind"`
	Function EaseFunction `json:"function"`
	Mode     EaseMode     `json:"mode"`
	P1       Vec2         `json:"p1"`
	P2       Vec2         `json:"p2"`
}

// LinearEase returns the linear directive.
func LinearEase() EaseDirective { return EaseDirective{Kind: EaseKindBasic, Function: EaseLinear} }

// BasicEase returns a named easing. Mode is kept but has no effect for EaseLinear.
func BasicEase(fn EaseFunction, mode EaseMode) EaseDirective {
	return EaseDirective{Kind: EaseKindBasic, Function: fn, Mode: mode}
}

// NewBezierEase returns a cubic Bezier easing through (0,0), p1, p2, (1,1).
func NewBezierEase(p1, p2 Vec2) (EaseDirective, error) {
	if !inUnit(p1.X) || !inUnit(p2.X) {
		return EaseDirective{}, fmt.Errorf("%w: got %v and %v", ErrControlPointRange, p1.X, p2.X)
	}
	return EaseDirective{Kind: EaseKindBezier, P1: p1, P2: p2}, nil
}

// IsLinear reports whether the directive is the basic linear ease.
func (e EaseDirective) IsLinear() bool {
	return e.Kind == EaseKindBasic && e.Function == EaseLinear
}

// Equal compares two directives, ignoring the fields of the inactive variant
// and the mode of a linear ease.
func (e EaseDirective) Equal(o EaseDirective) bool {
	if e.Kind != o.Kind {
		return false
	}
	switch e.Kind {
	case EaseKindBezier:
		return e.P1 == o.P1 && e.P2 == o.P2
	default:
		if e.Function != o.Function {
			return false
		}
		return e.Function == EaseLinear || e.Mode == o.Mode
	}
}

func inUnit(v float64) bool { return v >= 0 && v <= 1 }
