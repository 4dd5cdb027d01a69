/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package codec

import (
	"strings"

	"chartmaker/internal/domain"
)

const bezierTag = "Bezier"

// ParseEase decodes "Linear", "<Function>/<Mode>" or "Bezier/x1;y1;x2;y2".
func ParseEase(tok string) (domain.EaseDirective, error) {
	if tok == "Linear" {
		return domain.LinearEase(), nil
	}
	parts := strings.Split(tok, "/")
	if len(parts) != 2 {
		return domain.EaseDirective{}, &FormatError{Kind: "easing", Token: tok}
	}

	if parts[0] == bezierTag {
		nums := strings.Split(parts[1], ";")
		if len(nums) != 4 {
			return domain.EaseDirective{}, &FormatError{Kind: "bezier easing", Token: tok}
		}
		c, err := ParseFloats(nums)
		if err != nil {
			return domain.EaseDirective{}, err
		}
		e, err := domain.NewBezierEase(domain.Vec2{X: c[0], Y: c[1]}, domain.Vec2{X: c[2], Y: c[3]})
		if err != nil {
			return domain.EaseDirective{}, &RangeError{What: "bezier control point", Err: err}
		}
		return e, nil
	}

	fn, ok := domain.ParseEaseFunction(parts[0])
	if !ok {
		return domain.EaseDirective{}, &UnknownIdentifierError{Kind: "ease function", Name: parts[0]}
	}
	mode, ok := domain.ParseEaseMode(parts[1])
	if !ok {
		return domain.EaseDirective{}, &UnknownIdentifierError{Kind: "ease mode", Name: parts[1]}
	}
	return domain.BasicEase(fn, mode), nil
}

// FormatEase is the inverse of ParseEase.
func FormatEase(e domain.EaseDirective) string {
	switch e.Kind {
	case domain.EaseKindBezier:
		return bezierTag + "/" + FormatFloat(e.P1.X) + ";" + FormatFloat(e.P1.Y) + ";" +
			FormatFloat(e.P2.X) + ";" + FormatFloat(e.P2.Y)
	default:
		if e.Function == domain.EaseLinear {
			return "Linear"
		}
		return e.Function.String() + "/" + e.Mode.String()
	}
}
