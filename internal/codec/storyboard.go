/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package codec

import (
	"math"
	"strings"

	"chartmaker/internal/domain"
)

// StoryboardMarker starts every storyboard line.
const StoryboardMarker = "$"

// unsetToken stands for an unset "from" value.
const unsetToken = "_"

// ParseTimestamp decodes the tokens of "$ <id> <offset> <duration> <target> <from|_> <easing>".
// toks[0] is the marker. Tokens after the easing are ignored.
func ParseTimestamp(toks []string) (domain.Timestamp, error) {
	// counted after the marker
	if len(toks)-1 < 6 {
		return domain.Timestamp{}, &TokenCountError{Kind: "storyboard entry", Want: 6, Got: len(toks) - 1}
	}
	var ts domain.Timestamp
	id, ok := domain.ParseTimestampID(toks[1])
	if !ok {
		return ts, &UnknownIdentifierError{Kind: "timestamp id", Name: toks[1]}
	}
	ts.ID = id

	var err error
	if ts.Offset, err = ParseBeat(toks[2]); err != nil {
		return ts, err
	}
	if ts.Duration, err = ParseFloat(toks[3]); err != nil {
		return ts, err
	}
	if ts.Target, err = ParseFloat(toks[4]); err != nil {
		return ts, err
	}
	if toks[5] != unsetToken {
		f, err := ParseFloat(toks[5])
		if err != nil {
			return ts, err
		}
		ts.From = domain.Float(f)
	}
	if ts.Easing, err = ParseEase(toks[6]); err != nil {
		return ts, err
	}
	return ts, nil
}

// FormatTimestamp renders ts without indentation or line break.
func FormatTimestamp(ts domain.Timestamp) string {
	from := unsetToken
	if ts.From.Valid && !math.IsNaN(ts.From.Float64) && !math.IsInf(ts.From.Float64, 0) {
		from = FormatFloat(ts.From.Float64)
	}
	return strings.Join([]string{
		StoryboardMarker,
		ts.ID.String(),
		FormatBeat(ts.Offset),
		FormatFloat(ts.Duration),
		FormatFloat(ts.Target),
		from,
		FormatEase(ts.Easing),
	}, " ")
}

// DecodeStoryboardLine parses line and appends the result to sb.
// A nil sb means no animatable entity is active.
func DecodeStoryboardLine(sb *domain.Storyboard, line string) error {
	if sb == nil {
		return &MissingParentError{Kind: "storyboard entry", Parent: "animatable object"}
	}
	ts, err := ParseTimestamp(Fields(line))
	if err != nil {
		return err
	}
	sb.Add(ts)
	return nil
}
