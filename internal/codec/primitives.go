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
	"strconv"
	"strings"

	"chartmaker/internal/domain"
)

// Numbers are always written with '.' as decimal separator and without
// exponent or grouping, independent of the host locale.

func numErr(kind, tok string, err error) error {
	var ne *strconv.NumError
	if errors.As(err, &ne) {
		err = ne.Err
	}
	return &FormatError{Kind: kind, Token: tok, Err: err}
}

// ParseInt parses a decimal integer token.
func ParseInt(tok string) (int, error) {
	v, err := strconv.Atoi(tok)
	if err != nil {
		return 0, numErr("integer", tok, err)
	}
	return v, nil
}

// ParseFloat parses a decimal float token. Hex floats, "Inf" and "NaN"
// are rejected.
func ParseFloat(tok string) (float64, error) {
	if !isDecimal(tok) {
		return 0, &FormatError{Kind: "float", Token: tok}
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, numErr("float", tok, err)
	}
	return v, nil
}

// isDecimal reports whether tok only uses the characters of a plain
// decimal number: digits, sign, point and exponent.
func isDecimal(tok string) bool {
	digits := false
	for i := 0; i < len(tok); i++ {
		switch c := tok[i]; {
		case c >= '0' && c <= '9':
			digits = true
		case c == '+', c == '-', c == '.', c == 'e', c == 'E':
		default:
			return false
		}
	}
	return digits
}

func FormatInt(v int) string { return strconv.Itoa(v) }

// FormatFloat renders v with the fewest digits that parse back to the same value.
func FormatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// ParseFloats parses every token of toks.
func ParseFloats(toks []string) ([]float64, error) {
	out := make([]float64, len(toks))
	for i, t := range toks {
		v, err := ParseFloat(t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func parseComponents(kind, s string, minN, maxN int) ([]float64, error) {
	toks := Fields(s)
	if len(toks) < minN || len(toks) > maxN {
		return nil, &FormatError{Kind: kind, Token: s}
	}
	return ParseFloats(toks)
}

// ParseVec2 parses "x y".
func ParseVec2(s string) (domain.Vec2, error) {
	c, err := parseComponents("vector", s, 2, 2)
	if err != nil {
		return domain.Vec2{}, err
	}
	return domain.Vec2{X: c[0], Y: c[1]}, nil
}

// ParseVec3 parses "x y z".
func ParseVec3(s string) (domain.Vec3, error) {
	c, err := parseComponents("vector", s, 3, 3)
	if err != nil {
		return domain.Vec3{}, err
	}
	return domain.Vec3{X: c[0], Y: c[1], Z: c[2]}, nil
}

// ParseVec3Loose parses "x y" or "x y z"; a missing z is zero.
func ParseVec3Loose(s string) (domain.Vec3, error) {
	c, err := parseComponents("vector", s, 2, 3)
	if err != nil {
		return domain.Vec3{}, err
	}
	v := domain.Vec3{X: c[0], Y: c[1]}
	if len(c) == 3 {
		v.Z = c[2]
	}
	return v, nil
}

// ParseColor parses "r g b a".
func ParseColor(s string) (domain.Color, error) {
	c, err := parseComponents("color", s, 4, 4)
	if err != nil {
		return domain.Color{}, err
	}
	return domain.Color{R: c[0], G: c[1], B: c[2], A: c[3]}, nil
}

// Vec3From builds a vector from three already split tokens.
func Vec3From(toks []string) (domain.Vec3, error) {
	return ParseVec3(strings.Join(toks, " "))
}

// ColorFrom builds a color from four already split tokens.
func ColorFrom(toks []string) (domain.Color, error) {
	return ParseColor(strings.Join(toks, " "))
}

func FormatVec2(v domain.Vec2) string { return FormatFloat(v.X) + " " + FormatFloat(v.Y) }

func FormatVec3(v domain.Vec3) string {
	return FormatFloat(v.X) + " " + FormatFloat(v.Y) + " " + FormatFloat(v.Z)
}

func FormatColor(c domain.Color) string {
	return FormatFloat(c.R) + " " + FormatFloat(c.G) + " " + FormatFloat(c.B) + " " + FormatFloat(c.A)
}

// ParseBeat parses a beat position written either as "[-]whole b num/den"
// (for example "4b1/3" or "-1b1/2") or as a decimal with 'b' in place of the
// decimal point ("4b5" is 4.5). A plain decimal ("4.5") is accepted too.
func ParseBeat(tok string) (domain.BeatPosition, error) {
	slash := strings.IndexByte(tok, '/')
	if slash < 0 {
		dec := strings.ReplaceAll(tok, "b", ".")
		if !isDecimal(dec) {
			return 0, &FormatError{Kind: "beat position", Token: tok}
		}
		v, err := strconv.ParseFloat(dec, 64)
		if err != nil {
			return 0, numErr("beat position", tok, err)
		}
		return domain.BeatPosition(v), nil
	}

	b := strings.IndexByte(tok, 'b')
	if b < 0 || b > slash {
		return 0, &FormatError{Kind: "beat position", Token: tok}
	}
	whole, err := strconv.Atoi(tok[:b])
	if err != nil {
		return 0, numErr("beat position", tok, err)
	}
	num, err := strconv.Atoi(tok[b+1 : slash])
	if err != nil {
		return 0, numErr("beat position", tok, err)
	}
	den, err := strconv.Atoi(tok[slash+1:])
	if err != nil {
		return 0, numErr("beat position", tok, err)
	}
	if den <= 0 {
		return 0, &FormatError{Kind: "beat position", Token: tok, Err: errors.New("denominator must be positive")}
	}
	// "-0b1/2" has a zero whole part, so the sign is read from the text.
	if tok[0] == '-' {
		num = -num
	}
	return domain.NewBeatPosition(whole, num, den), nil
}

// FormatBeat writes the decimal notation, e.g. 4.5 as "4b5" and 4 as "4".
func FormatBeat(b domain.BeatPosition) string {
	return strings.Replace(FormatFloat(float64(b)), ".", "b", 1)
}
