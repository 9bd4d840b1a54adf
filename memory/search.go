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

package memory

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-geospatial/go-stac-api/stac"
	json "github.com/goccy/go-json"
)

// bounds is a 2D envelope: minx, miny, maxx, maxy
type bounds [4]float64

func (b bounds) intersects(o bounds) bool {
	return b[0] <= o[2] && o[0] <= b[2] && b[1] <= o[3] && o[1] <= b[3]
}

func toBounds(bbox []float64) (bounds, bool) {
	switch len(bbox) {
	case 4:
		return bounds{bbox[0], bbox[1], bbox[2], bbox[3]}, true
	case 6:
		return bounds{bbox[0], bbox[1], bbox[3], bbox[4]}, true
	}
	return bounds{}, false
}

// searchArea returns the envelope of the bbox or the intersects geometry.
// Geometries are matched by envelope only.
func searchArea(s *stac.Search) (*bounds, error) {
	if len(s.Bbox) > 0 {
		b, ok := toBounds(s.Bbox)
		if !ok {
			return nil, stac.NewValidationError("bbox", "bbox must be 4 or 6 coordinates")
		}
		return &b, nil
	}
	if s.Intersects != nil {
		b, err := geometryBounds(s.Intersects)
		if err != nil {
			return nil, err
		}
		return &b, nil
	}
	return nil, nil
}

func geometryBounds(g *stac.Geometry) (bounds, error) {
	b := bounds{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
	var walk func(v any)
	walk = func(v any) {
		arr, ok := v.([]any)
		if !ok {
			return
		}
		if len(arr) >= 2 {
			x, xok := arr[0].(float64)
			y, yok := arr[1].(float64)
			if xok && yok {
				b[0], b[1] = math.Min(b[0], x), math.Min(b[1], y)
				b[2], b[3] = math.Max(b[2], x), math.Max(b[3], y)
				return
			}
		}
		for _, child := range arr {
			walk(child)
		}
	}

	if len(g.Coordinates) > 0 {
		var coords any
		if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
			return bounds{}, stac.NewValidationError("intersects", "invalid coordinates")
		}
		walk(coords)
	}
	if len(g.Geometries) > 0 {
		var children []stac.Geometry
		if err := json.Unmarshal(g.Geometries, &children); err != nil {
			return bounds{}, stac.NewValidationError("intersects", "invalid geometries")
		}
		for i := range children {
			cb, err := geometryBounds(&children[i])
			if err != nil {
				return bounds{}, err
			}
			b[0], b[1] = math.Min(b[0], cb[0]), math.Min(b[1], cb[1])
			b[2], b[3] = math.Max(b[2], cb[2]), math.Max(b[3], cb[3])
		}
	}
	if math.IsInf(b[0], 1) {
		return bounds{}, stac.NewValidationError("intersects", "geometry has no coordinates")
	}
	return b, nil
}

func matches(item *stac.Item, s *stac.Search, interval stac.Interval, area *bounds) bool {
	if len(s.Ids) > 0 && !contains(s.Ids, item.ID) {
		return false
	}
	if area != nil {
		b, ok := toBounds(item.Bbox)
		if !ok || !area.intersects(b) {
			return false
		}
	}
	if interval.Start != nil || interval.End != nil {
		if !matchesInterval(item, interval) {
			return false
		}
	}
	for field, ops := range s.Query {
		value, ok := lookupField(item, field)
		if !ok {
			return false
		}
		for op, operand := range ops {
			if !compareOp(op, value, operand) {
				return false
			}
		}
	}
	return true
}

// matchesInterval checks datetime, or start_datetime/end_datetime when
// datetime is null
func matchesInterval(item *stac.Item, interval stac.Interval) bool {
	if dt := item.Datetime(); dt != "" {
		t, err := time.Parse(time.RFC3339Nano, dt)
		return err == nil && interval.Contains(t)
	}

	startStr, _ := item.Properties["start_datetime"].(string)
	endStr, _ := item.Properties["end_datetime"].(string)
	start, err := time.Parse(time.RFC3339Nano, startStr)
	if err != nil {
		return false
	}
	end, err := time.Parse(time.RFC3339Nano, endStr)
	if err != nil {
		return false
	}
	if interval.End != nil && start.After(*interval.End) {
		return false
	}
	if interval.Start != nil && end.Before(*interval.Start) {
		return false
	}
	return true
}

// lookupField resolves id, collection, properties.<name> or a bare property
// name
func lookupField(item *stac.Item, field string) (any, bool) {
	switch field {
	case "id":
		return item.ID, true
	case "collection":
		return item.Collection, true
	}
	field = strings.TrimPrefix(field, "properties.")
	v, ok := item.Properties[field]
	return v, ok
}

func compareOp(op string, value, operand any) bool {
	switch op {
	case "eq":
		return compare(value, operand) == 0
	case "neq":
		return compare(value, operand) != 0
	case "lt":
		return compare(value, operand) < 0
	case "lte":
		return compare(value, operand) <= 0
	case "gt":
		return compare(value, operand) > 0
	case "gte":
		return compare(value, operand) >= 0
	case "in":
		list, ok := operand.([]any)
		if !ok {
			return false
		}
		for _, candidate := range list {
			if compare(value, candidate) == 0 {
				return true
			}
		}
		return false
	}
	return false
}

// compare orders numbers numerically and everything else by its string form
func compare(a, b any) int {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// sortItems orders by sortby, then by collection and id so pages are stable
func sortItems(items []stac.Item, sortBy []stac.SortBy) {
	sort.SliceStable(items, func(i, j int) bool {
		for _, key := range sortBy {
			a, _ := lookupField(&items[i], key.Field)
			b, _ := lookupField(&items[j], key.Field)
			cmp := compare(a, b)
			if cmp == 0 {
				continue
			}
			if key.Direction == "desc" {
				return cmp > 0
			}
			return cmp < 0
		}
		if items[i].Collection != items[j].Collection {
			return items[i].Collection < items[j].Collection
		}
		return items[i].ID < items[j].ID
	})
}

// tokens are the offset of the first item of the page
func parseToken(token string) (int, error) {
	if token == "" {
		return 0, nil
	}
	offset, err := strconv.Atoi(strings.TrimPrefix(token, "offset:"))
	if err != nil || offset < 0 {
		return 0, stac.NewValidationError("token", "invalid pagination token '%s'", token)
	}
	return offset, nil
}

func formatToken(offset int) string {
	return "offset:" + strconv.Itoa(offset)
}

func paginate(items []stac.Item, offset, limit int, fields *stac.Fields) (*stac.ItemCollection, error) {
	matched := len(items)
	if offset > matched {
		offset = matched
	}
	end := offset + limit
	if end > matched {
		end = matched
	}

	page := items[offset:end]
	if fields != nil {
		for i := range page {
			if err := applyFields(&page[i], fields); err != nil {
				return nil, err
			}
		}
	}

	result := stac.NewItemCollection(page)
	result.Context = &stac.ResultContext{
		Returned: len(page),
		Limit:    limit,
		Matched:  &matched,
	}
	if end < matched {
		result.NextToken = formatToken(end)
	}
	if offset > 0 {
		prev := offset - limit
		if prev < 0 {
			prev = 0
		}
		result.PrevToken = formatToken(prev)
	}
	return result, nil
}

// fields that survive an include list
var alwaysIncluded = []string{"type", "id", "collection", "links"}

// applyFields implements the fields extension on a single item. Entries are
// top level keys or properties.<name>.
func applyFields(item *stac.Item, fields *stac.Fields) error {
	raw, err := json.Marshal(item)
	if err != nil {
		return err
	}
	doc := make(map[string]json.RawMessage)
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}

	props := item.Properties
	if len(fields.Include) > 0 {
		kept := make(map[string]json.RawMessage, len(fields.Include)+len(alwaysIncluded))
		keptProps := map[string]any{}
		wholeProps := false
		for _, key := range alwaysIncluded {
			if v, ok := doc[key]; ok {
				kept[key] = v
			}
		}
		for _, field := range fields.Include {
			if name, ok := strings.CutPrefix(field, "properties."); ok {
				if v, ok := props[name]; ok {
					keptProps[name] = v
				}
				continue
			}
			if field == "properties" {
				wholeProps = true
			}
			if v, ok := doc[field]; ok {
				kept[field] = v
			}
		}
		if !wholeProps {
			props = keptProps
		}
		doc = kept
	}

	for _, field := range fields.Exclude {
		if name, ok := strings.CutPrefix(field, "properties."); ok {
			delete(props, name)
			continue
		}
		delete(doc, field)
		if field == "properties" {
			props = nil
		}
	}

	delete(doc, "properties")
	if props != nil {
		encoded, err := json.Marshal(props)
		if err != nil {
			return err
		}
		doc["properties"] = encoded
	}

	encoded, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var out stac.Item
	if err := json.Unmarshal(encoded, &out); err != nil {
		return err
	}
	*item = out
	return nil
}

func contains(list []string, v string) bool {
	for _, candidate := range list {
		if candidate == v {
			return true
		}
	}
	return false
}
