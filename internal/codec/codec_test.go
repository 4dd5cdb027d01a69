/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package codec

import (
	"errors"
	"math"
	"strings"
	"testing"

	"chartmaker/internal/domain"
)

func TestBeatDualNotation(t *testing.T) {
	frac, err := ParseBeat("4b1/3")
	if err != nil {
		t.Fatalf("fraction: %v", err)
	}
	dec, err := ParseBeat("4.333333")
	if err != nil {
		t.Fatalf("decimal: %v", err)
	}
	if math.Abs(float64(frac-dec)) > 1e-6 {
		t.Fatalf("notations differ: %v vs %v", frac, dec)
	}
	if got := FormatBeat(frac); strings.Contains(got, "/") || !strings.HasPrefix(got, "4b333") {
		t.Fatalf("expected decimal form, got %q", got)
	}
}

func TestBeatForms(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"4b5", 4.5},
		{"4", 4},
		{"-2b25", -2.25},
		{"-1b1/2", -1.5},
		{"-0b1/4", -0.25},
		{"0b3/4", 0.75},
	}
	for _, c := range cases {
		got, err := ParseBeat(c.in)
		if err != nil {
			t.Fatalf("%s: %v", c.in, err)
		}
		if float64(got) != c.want {
			t.Fatalf("%s: got %v want %v", c.in, got, c.want)
		}
	}
	if FormatBeat(4.5) != "4b5" || FormatBeat(4) != "4" || FormatBeat(-0.25) != "-0b25" {
		t.Fatalf("unexpected encodings: %s %s %s", FormatBeat(4.5), FormatBeat(4), FormatBeat(-0.25))
	}
	for _, bad := range []string{"x", "4b1/0", "4/3", "ab1/2", "1b2b3"} {
		if _, err := ParseBeat(bad); !errors.Is(err, ErrFormat) {
			t.Fatalf("%q: expected ErrFormat, got %v", bad, err)
		}
	}
}

func TestEaseGrammar(t *testing.T) {
	e, err := ParseEase("Bezier/0;0;1;1")
	if err != nil {
		t.Fatalf("bezier: %v", err)
	}
	if e.Kind != domain.EaseKindBezier || e.P1 != (domain.Vec2{}) || e.P2 != (domain.Vec2{X: 1, Y: 1}) {
		t.Fatalf("unexpected directive: %+v", e)
	}
	if got := FormatEase(e); got != "Bezier/0;0;1;1" {
		t.Fatalf("encode: got %q", got)
	}

	for _, s := range []string{"Linear", "Sine/In", "Elastic/InOut", "Bezier/0.25;0.1;0.25;1"} {
		e, err := ParseEase(s)
		if err != nil {
			t.Fatalf("%s: %v", s, err)
		}
		if got := FormatEase(e); got != s {
			t.Fatalf("round trip %q -> %q", s, got)
		}
	}
	if got := FormatEase(domain.BasicEase(domain.EaseLinear, domain.EaseOut)); got != "Linear" {
		t.Fatalf("linear ignores mode, got %q", got)
	}
}

func TestEaseErrors(t *testing.T) {
	cases := map[string]error{
		"Bezier/1.5;0;0.5;1": ErrRange,
		"Bezier/0;0;1":       ErrFormat,
		"Bezier/a;0;1;1":     ErrFormat,
		"sine/In":            ErrUnknownIdentifier,
		"Sine/Sideways":      ErrUnknownIdentifier,
		"Sine":               ErrFormat,
		"Sine/In/Out":        ErrFormat,
	}
	for in, want := range cases {
		if _, err := ParseEase(in); !errors.Is(err, want) {
			t.Fatalf("%q: expected %v, got %v", in, want, err)
		}
	}
	_, err := ParseEase("Bezier/-0.1;0;1;1")
	if !errors.Is(err, domain.ErrControlPointRange) {
		t.Fatalf("range error should wrap the domain cause: %v", err)
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	line := "$ RotationY 2b5 1 90 _ Cubic/Out"
	var sb domain.Storyboard
	if err := DecodeStoryboardLine(&sb, line); err != nil {
		t.Fatalf("decode: %v", err)
	}
	ts := sb.Timestamps[0]
	if ts.ID != domain.TSRotationY || ts.Offset != 2.5 || ts.Target != 90 || ts.From.Valid {
		t.Fatalf("unexpected timestamp: %+v", ts)
	}
	if got := FormatTimestamp(ts); got != line {
		t.Fatalf("encode: got %q want %q", got, line)
	}

	ts.From = domain.Float(-1.5)
	if got := FormatTimestamp(ts); !strings.Contains(got, " -1.5 ") {
		t.Fatalf("from not emitted: %q", got)
	}
}

func TestTimestampErrors(t *testing.T) {
	var sb domain.Storyboard
	if err := DecodeStoryboardLine(&sb, "$ PivotX 0 1 2 _"); !errors.Is(err, ErrTokenCount) {
		t.Fatalf("expected ErrTokenCount, got %v", err)
	}
	if err := DecodeStoryboardLine(&sb, "$ Wobble 0 1 2 _ Linear"); !errors.Is(err, ErrUnknownIdentifier) {
		t.Fatalf("expected ErrUnknownIdentifier, got %v", err)
	}
	if err := DecodeStoryboardLine(nil, "$ PivotX 0 1 2 _ Linear"); !errors.Is(err, ErrMissingParent) {
		t.Fatalf("expected ErrMissingParent, got %v", err)
	}
	if sb.Len() != 0 {
		t.Fatalf("failed lines must not append")
	}
}

func TestVectorsAndColors(t *testing.T) {
	if _, err := ParseVec3("1 2"); !errors.Is(err, ErrFormat) {
		t.Fatalf("short vector accepted: %v", err)
	}
	v, err := ParseVec3Loose("10 20")
	if err != nil || v != (domain.Vec3{X: 10, Y: 20}) {
		t.Fatalf("loose vector: %v %v", v, err)
	}
	c, err := ParseColor("1 0.5 0 1")
	if err != nil || FormatColor(c) != "1 0.5 0 1" {
		t.Fatalf("color: %v %v", c, err)
	}
	if FormatFloat(1e21) != "1000000000000000000000" {
		t.Fatalf("float must not use exponent form: %s", FormatFloat(1e21))
	}
}

func TestEachLineWrapsErrors(t *testing.T) {
	text := "a\r\n  b\nc"
	var seen []string
	err := EachLine(text, func(line string) error {
		seen = append(seen, line)
		if line == "c" {
			return &FormatError{Kind: "float", Token: "c"}
		}
		return nil
	})
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DecodeError, got %v", err)
	}
	if de.Line != 3 || de.Content != "c" || !errors.Is(err, ErrFormat) {
		t.Fatalf("unexpected wrap: %+v", de)
	}
	if strings.Join(seen, ",") != "a,b,c" {
		t.Fatalf("lines not trimmed: %q", seen)
	}
}

func TestCheckVersion(t *testing.T) {
	for _, l := range []string{"", "two", "1", "2"} {
		if err := CheckVersion(l, 2); err != nil {
			t.Fatalf("%q: %v", l, err)
		}
	}
	err := CheckVersion("3", 2)
	var ue *UnsupportedVersionError
	if !errors.As(err, &ue) || ue.Version != 3 || !strings.Contains(err.Error(), "upgrade") {
		t.Fatalf("unexpected: %v", err)
	}
}

func TestWriterIndent(t *testing.T) {
	w := NewWriter(3)
	w.Line(0, "+ Lane")
	w.Meta(1, "Name", "x")
	w.MetaIf(1, "Group", " ")
	if got := w.String(); got != "+ Lane\n   Name: x\n" {
		t.Fatalf("got %q", got)
	}
}

func TestFloatRejectsNonDecimalSpellings(t *testing.T) {
	for _, tok := range []string{"NaN", "nan", "Inf", "+Inf", "-inf", "0x1p2", "1_0", "", "-", "."} {
		if _, err := ParseFloat(tok); !errors.Is(err, ErrFormat) {
			t.Fatalf("%q: expected ErrFormat, got %v", tok, err)
		}
	}
	for tok, want := range map[string]float64{"1e2": 100, "-0.5": -0.5, "+3": 3, ".5": 0.5} {
		if got, err := ParseFloat(tok); err != nil || got != want {
			t.Fatalf("%q = %v, %v; want %v", tok, got, err, want)
		}
	}
	if _, err := ParseBeat("NaNbInf"); !errors.Is(err, ErrFormat) {
		t.Fatalf("beat: expected ErrFormat, got %v", err)
	}
}

func TestTimestampNonFiniteValues(t *testing.T) {
	var sb domain.Storyboard
	for _, line := range []string{
		"$ PivotX 0 1 2 NaN Linear",
		"$ PivotY 0x1p2 1 2 _ Linear",
		"$ PivotY 0 1 Inf _ Linear",
	} {
		if err := DecodeStoryboardLine(&sb, line); !errors.Is(err, ErrFormat) {
			t.Fatalf("%q: expected ErrFormat, got %v", line, err)
		}
	}
	if sb.Len() != 0 {
		t.Fatalf("rejected lines must not be appended: %+v", sb.Timestamps)
	}

	ts := domain.Timestamp{ID: domain.TSPivotX, Duration: 1, Target: 2, From: domain.Float(math.NaN())}
	if got := FormatTimestamp(ts); got != "$ PivotX 0 1 2 _ Linear" {
		t.Fatalf("non-finite from should be written as unset: %q", got)
	}
	ts.From = domain.Float(math.Inf(-1))
	if got := FormatTimestamp(ts); !strings.Contains(got, " 2 _ ") {
		t.Fatalf("infinite from should be written as unset: %q", got)
	}
}

func TestTimestampIgnoresTrailingTokens(t *testing.T) {
	var sb domain.Storyboard
	if err := DecodeStoryboardLine(&sb, "$ PivotX 0 1 2 _ Linear extra tokens"); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sb.Len() != 1 || sb.Timestamps[0].Target != 2 || !sb.Timestamps[0].Easing.IsLinear() {
		t.Fatalf("unexpected timestamp: %+v", sb.Timestamps)
	}
}
