/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"chartmaker/internal/domain"
)

//go:embed schema/*.json
var schemaFS embed.FS

// ValidationError lists the schema violations of an exported document.
type ValidationError struct {
	Document string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s export failed validation: %s", e.Document, strings.Join(e.Problems, "; "))
}

var (
	schemasOnce sync.Once
	chartSchema *gojsonschema.Schema
	songSchema  *gojsonschema.Schema
	schemasErr  error
)

func loadSchemas() error {
	schemasOnce.Do(func() {
		chartSchema, schemasErr = compileSchema("schema/chart.json")
		if schemasErr != nil {
			return
		}
		songSchema, schemasErr = compileSchema("schema/song.json")
	})
	return schemasErr
}

func compileSchema(name string) (*gojsonschema.Schema, error) {
	common, err := schemaFS.ReadFile("schema/common.json")
	if err != nil {
		return nil, err
	}
	doc, err := schemaFS.ReadFile(name)
	if err != nil {
		return nil, err
	}
	sl := gojsonschema.NewSchemaLoader()
	if err := sl.AddSchemas(gojsonschema.NewBytesLoader(common)); err != nil {
		return nil, fmt.Errorf("load common schema: %w", err)
	}
	s, err := sl.Compile(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	return s, nil
}

// ChartJSON renders c as indented JSON and checks it against the chart schema.
func ChartJSON(c *domain.Chart) ([]byte, error) {
	if c == nil {
		return nil, errors.New("chart is nil")
	}
	if err := loadSchemas(); err != nil {
		return nil, err
	}
	return marshalValidated("chart", c, chartSchema)
}

// SongJSON renders s as indented JSON and checks it against the song schema.
func SongJSON(s *domain.PlayableSong) ([]byte, error) {
	if s == nil {
		return nil, errors.New("song is nil")
	}
	if err := loadSchemas(); err != nil {
		return nil, err
	}
	return marshalValidated("song", s, songSchema)
}

func marshalValidated(kind string, v any, schema *gojsonschema.Schema) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", kind, err)
	}
	res, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("validate %s: %w", kind, err)
	}
	if !res.Valid() {
		ve := &ValidationError{Document: kind}
		for _, e := range res.Errors() {
			ve.Problems = append(ve.Problems, e.String())
		}
		return nil, ve
	}
	return append(data, '\n'), nil
}
