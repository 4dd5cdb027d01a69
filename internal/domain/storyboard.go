/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "fmt"

// TimestampID names the animated property a Timestamp drives.
type TimestampID int

const (
	TSPivotX TimestampID = iota
	TSPivotY
	TSPivotZ
	TSRotationX
	TSRotationY
	TSRotationZ
	TSPivotDistance
	TSBackgroundColorR
	TSBackgroundColorG
	TSBackgroundColorB
	TSBackgroundColorA
	TSInterfaceColorR
	TSInterfaceColorG
	TSInterfaceColorB
	TSInterfaceColorA
	TSPositionX
	TSPositionY
	TSPositionZ
	TSLaneColorR
	TSLaneColorG
	TSLaneColorB
	TSLaneColorA
	TSJudgeColorR
	TSJudgeColorG
	TSJudgeColorB
	TSJudgeColorA
	TSHoldTailColorR
	TSHoldTailColorG
	TSHoldTailColorB
	TSHoldTailColorA
	TSNormalColorR
	TSNormalColorG
	TSNormalColorB
	TSNormalColorA
	TSCatchColorR
	TSCatchColorG
	TSCatchColorB
	TSCatchColorA
	TSStartPointX
	TSStartPointY
	TSEndPointX
	TSEndPointY
	TSSpeed
	TSPosition
	TSLength
)

var timestampIDNames = [...]string{
	"PivotX", "PivotY", "PivotZ",
	"RotationX", "RotationY", "RotationZ",
	"PivotDistance",
	"BackgroundColorR", "BackgroundColorG", "BackgroundColorB", "BackgroundColorA",
	"InterfaceColorR", "InterfaceColorG", "InterfaceColorB", "InterfaceColorA",
	"PositionX", "PositionY", "PositionZ",
	"LaneColorR", "LaneColorG", "LaneColorB", "LaneColorA",
	"JudgeColorR", "JudgeColorG", "JudgeColorB", "JudgeColorA",
	"HoldTailColorR", "HoldTailColorG", "HoldTailColorB", "HoldTailColorA",
	"NormalColorR", "NormalColorG", "NormalColorB", "NormalColorA",
	"CatchColorR", "CatchColorG", "CatchColorB", "CatchColorA",
	"StartPointX", "StartPointY", "EndPointX", "EndPointY",
	"Speed", "Position", "Length",
}

func (id TimestampID) String() string {
	if id < 0 || int(id) >= len(timestampIDNames) {
		return fmt.Sprintf("TimestampID(%d)", int(id))
	}
	return timestampIDNames[id]
}

// ParseTimestampID matches name case-sensitively against the known property tags.
func ParseTimestampID(name string) (TimestampID, bool) {
	for i, n := range timestampIDNames {
		if n == name {
			return TimestampID(i), true
		}
	}
	return 0, false
}

func (id TimestampID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *TimestampID) UnmarshalText(b []byte) error {
	v, ok := ParseTimestampID(string(b))
	if !ok {
		return fmt.Errorf("unknown timestamp id %q", string(b))
	}
	*id = v
	return nil
}

// TimestampIDNames lists every property tag in declaration order.
func TimestampIDNames() []string {
	out := make([]string, len(timestampIDNames))
	copy(out, timestampIDNames[:])
	return out
}

// Timestamp is one keyframe: starting at Offset, the property moves to Target
// over Duration beats. An unset From continues from the value in effect.
type Timestamp struct {
	ID       TimestampID   `json:"id"`
	Offset   BeatPosition  `json:"offset"`
	Duration float64       `json:"duration"`
	Target   float64       `json:"target"`
	From     NullFloat     `json:"from"`
	Easing   EaseDirective `json:"easing"`
}

// Storyboard is the keyframe track of one entity, kept in document order.
type Storyboard struct {
	Timestamps []Timestamp `json:"timestamps"`
}

// Add appends ts.
func (s *Storyboard) Add(ts Timestamp) { s.Timestamps = append(s.Timestamps, ts) }

func (s *Storyboard) Len() int { return len(s.Timestamps) }
