// Copyright 2021-2023
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package stac

import (
	"regexp"
	"strings"

	json "github.com/goccy/go-json"
)

const (
	DefaultLimit = 10
	MaxLimit     = 10_000
)

// Filter languages accepted by the filter extension
const (
	CQLJSON  = "cql-json"
	CQL2JSON = "cql2-json"
	CQL2Text = "cql2-text"
)

type SortBy struct {
	Field     string `json:"field" validate:"required"`
	Direction string `json:"direction" validate:"oneof=asc desc"`
}

type Fields struct {
	Include []string `json:"include,omitempty"`
	Exclude []string `json:"exclude,omitempty"`
}

// Geometry is a GeoJSON geometry kept in raw form
type Geometry struct {
	Type        string          `json:"type" validate:"required"`
	Coordinates json.RawMessage `json:"coordinates,omitempty"`
	Geometries  json.RawMessage `json:"geometries,omitempty"`
}

// Search is the body of POST /search
type Search struct {
	Collections []string                  `json:"collections,omitempty" validate:"omitempty,dive,required"`
	Ids         []string                  `json:"ids,omitempty" validate:"omitempty,dive,required"`
	Bbox        []float64                 `json:"bbox,omitempty" validate:"omitempty,len=4|len=6"`
	Intersects  *Geometry                 `json:"intersects,omitempty"`
	Datetime    string                    `json:"datetime,omitempty"`
	Limit       int                       `json:"limit" validate:"min=0"`
	Query       map[string]map[string]any `json:"query,omitempty"`
	Fields      *Fields                   `json:"fields,omitempty"`
	SortBy      []SortBy                  `json:"sortby,omitempty" validate:"omitempty,dive"`
	Filter      *json.RawMessage          `json:"filter,omitempty"`
	FilterLang  string                    `json:"filter-lang,omitempty" validate:"omitempty,oneof=cql-json cql2-json cql2-text"`
	Token       string                    `json:"token,omitempty"`
	Conf        *json.RawMessage          `json:"conf,omitempty"`
}

// GetSearchParams carries the parameters of GET /search as they appear in
// the query string
type GetSearchParams struct {
	Collections []string
	Ids         []string
	Bbox        []float64
	Datetime    string
	Limit       int
	Query       string
	Token       string
	Fields      []string
	SortBy      string
}

var signedTokenRe = regexp.MustCompile(`^([\+-]?)(.*)$`)

// ParseSortBy parses a comma separated list of [+-]field expressions
func ParseSortBy(sortByStr string) []SortBy {
	if sortByStr == "" {
		return nil
	}
	tokens := strings.Split(sortByStr, ",")
	sort := make([]SortBy, 0, len(tokens))
	for _, token := range tokens {
		groups := signedTokenRe.FindStringSubmatch(strings.TrimSpace(token))
		if groups[2] == "" {
			continue
		}
		direction := "asc"
		if groups[1] == "-" {
			direction = "desc"
		}
		sort = append(sort, SortBy{Field: groups[2], Direction: direction})
	}
	return sort
}

// ParseFields splits [+-]field tokens into include and exclude lists
func ParseFields(tokens []string) *Fields {
	if len(tokens) == 0 {
		return nil
	}
	fields := &Fields{
		Include: make([]string, 0, len(tokens)),
		Exclude: make([]string, 0, len(tokens)),
	}
	for _, token := range tokens {
		groups := signedTokenRe.FindStringSubmatch(strings.TrimSpace(token))
		if groups[2] == "" {
			continue
		}
		if groups[1] == "-" {
			fields.Exclude = append(fields.Exclude, groups[2])
		} else {
			fields.Include = append(fields.Include, groups[2])
		}
	}
	return fields
}

// ToSearch converts GET parameters into the equivalent POST body
func (p *GetSearchParams) ToSearch() (*Search, error) {
	search := &Search{
		Collections: p.Collections,
		Ids:         p.Ids,
		Bbox:        p.Bbox,
		Datetime:    p.Datetime,
		Limit:       p.Limit,
		Token:       p.Token,
		Fields:      ParseFields(p.Fields),
		SortBy:      ParseSortBy(p.SortBy),
	}
	if p.Query != "" {
		if err := json.Unmarshal([]byte(p.Query), &search.Query); err != nil {
			return nil, NewValidationError("query", "query must be a JSON object of the form {\"field\": {\"op\": value}}")
		}
	}
	search.Normalize()
	return search, nil
}

// Normalize applies the default limit, clamps it to MaxLimit and defaults the
// filter language
func (s *Search) Normalize() {
	if s.Limit == 0 {
		s.Limit = DefaultLimit
	}
	if s.Limit > MaxLimit {
		s.Limit = MaxLimit
	}
	if s.Filter != nil && s.FilterLang == "" {
		s.FilterLang = CQLJSON
	}
}
