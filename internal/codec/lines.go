/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package codec

import (
	"fmt"
	"strconv"
	"strings"

	"chartmaker/internal/domain"
)

// ObjectMarker starts every object record line.
const ObjectMarker = "+"

// Project is the homepage line written under the format name in every file.
const Project = "github.com/FFF40/JANOARG"

// DefaultIndent is the number of spaces per nesting level used by the encoders.
const DefaultIndent = 2

// Fields splits a record line on whitespace. Runs of separators produce no empty tokens.
func Fields(line string) []string { return strings.Fields(line) }

// EachLine calls fn for every line of text with surrounding whitespace
// removed. Indentation carries no meaning. The first error is returned as a
// *DecodeError carrying the 1-based line number and the raw line.
func EachLine(text string, fn func(line string) error) error {
	text = strings.TrimPrefix(text, "\ufeff")
	for i, raw := range strings.Split(text, "\n") {
		raw = strings.TrimSuffix(raw, "\r")
		if err := fn(strings.TrimSpace(raw)); err != nil {
			return &DecodeError{Line: i + 1, Content: raw, Err: err}
		}
	}
	return nil
}

// SectionName reports whether line is a "[NAME]" header and returns NAME.
func SectionName(line string) (string, bool) {
	if len(line) < 2 || line[0] != '[' || line[len(line)-1] != ']' {
		return "", false
	}
	return line[1 : len(line)-1], true
}

// IsStoryboard reports whether line is a storyboard entry.
func IsStoryboard(line string) bool { return strings.HasPrefix(line, StoryboardMarker) }

// IsObject reports whether line is an object record.
func IsObject(line string) bool { return strings.HasPrefix(line, ObjectMarker) }

// SplitMetadata splits "Key: value" at the first ": ". The value is trimmed.
func SplitMetadata(line string) (key, value string, ok bool) {
	i := strings.Index(line, ": ")
	if i < 0 {
		return "", "", false
	}
	return line[:i], strings.TrimSpace(line[i+2:]), true
}

// ObjectKind returns the record kind of an object line split into toks.
func ObjectKind(toks []string) (string, error) {
	if len(toks) < 2 {
		return "", &TokenCountError{Kind: "object", Want: 2, Got: len(toks)}
	}
	return toks[1], nil
}

// RequireTokens fails with a TokenCountError when toks is shorter than n.
func RequireTokens(kind string, toks []string, n int) error {
	if len(toks) < n {
		return &TokenCountError{Kind: kind, Want: n, Got: len(toks)}
	}
	return nil
}

// CheckVersion inspects a line of a VERSION section. Blank and non-numeric
// lines are ignored; a number above supported is rejected.
func CheckVersion(line string, supported int) error {
	if line == "" {
		return nil
	}
	v, err := strconv.Atoi(line)
	if err != nil {
		return nil
	}
	if v > supported {
		return &UnsupportedVersionError{Version: v, Supported: supported}
	}
	return nil
}

// Writer accumulates encoded lines. Depth is multiplied by the indent size
// to produce leading spaces.
type Writer struct {
	b      strings.Builder
	indent int
}

// NewWriter returns a Writer indenting by indent spaces per level.
// A negative indent is treated as zero.
func NewWriter(indent int) *Writer {
	if indent < 0 {
		indent = 0
	}
	return &Writer{indent: indent}
}

// Line writes one line at the given depth.
func (w *Writer) Line(depth int, s string) {
	if n := depth * w.indent; n > 0 {
		w.b.WriteString(strings.Repeat(" ", n))
	}
	w.b.WriteString(s)
	w.b.WriteByte('\n')
}

// Linef is Line with formatting.
func (w *Writer) Linef(depth int, format string, args ...any) {
	w.Line(depth, fmt.Sprintf(format, args...))
}

// Meta writes "key: value" at depth.
func (w *Writer) Meta(depth int, key, value string) { w.Line(depth, key+": "+value) }

// MetaIf writes "key: value" only when value is not blank.
func (w *Writer) MetaIf(depth int, key, value string) {
	if strings.TrimSpace(value) != "" {
		w.Meta(depth, key, value)
	}
}

// Blank writes an empty line.
func (w *Writer) Blank() { w.b.WriteByte('\n') }

// Section writes a blank separator line followed by "[name]".
func (w *Writer) Section(name string) {
	w.Blank()
	w.Line(0, "["+name+"]")
}

// Storyboard writes one line per timestamp of sb in stored order.
func (w *Writer) Storyboard(depth int, sb *domain.Storyboard) {
	for _, ts := range sb.Timestamps {
		w.Line(depth, FormatTimestamp(ts))
	}
}

func (w *Writer) String() string { return w.b.String() }
