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
	json "github.com/goccy/go-json"
)

const Version = "1.0.0"

// Item is a single catalogued asset. Fields not modelled here are kept in
// Extra and written back unchanged.
type Item struct {
	Type           string                     `json:"type"`
	StacVersion    string                     `json:"stac_version,omitempty"`
	StacExtensions []string                   `json:"stac_extensions,omitempty"`
	ID             string                     `json:"id"`
	Collection     string                     `json:"collection,omitempty"`
	Geometry       json.RawMessage            `json:"geometry,omitempty"`
	Bbox           []float64                  `json:"bbox,omitempty"`
	Properties     map[string]any             `json:"properties"`
	Links          []Link                     `json:"links"`
	Assets         json.RawMessage            `json:"assets,omitempty"`
	Extra          map[string]json.RawMessage `json:"-"`
}

func (i Item) MarshalJSON() ([]byte, error) {
	type alias Item
	a := alias(i)
	if a.Type == "" {
		a.Type = "Feature"
	}
	if a.Properties == nil {
		a.Properties = map[string]any{}
	}
	if a.Links == nil {
		a.Links = []Link{}
	}
	return marshalWithExtra(a, i.Extra)
}

func (i *Item) UnmarshalJSON(data []byte) error {
	type alias Item
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extra, err := extraFields(data, a)
	if err != nil {
		return err
	}
	*i = Item(a)
	i.Extra = extra
	return nil
}

// Datetime returns the properties.datetime value or the empty string
func (i *Item) Datetime() string {
	if v, ok := i.Properties["datetime"].(string); ok {
		return v
	}
	return ""
}

// Collection groups items sharing metadata
type Collection struct {
	Type           string                     `json:"type"`
	StacVersion    string                     `json:"stac_version,omitempty"`
	StacExtensions []string                   `json:"stac_extensions,omitempty"`
	ID             string                     `json:"id"`
	Title          string                     `json:"title,omitempty"`
	Description    string                     `json:"description,omitempty"`
	Keywords       []string                   `json:"keywords,omitempty"`
	License        string                     `json:"license,omitempty"`
	Extent         json.RawMessage            `json:"extent,omitempty"`
	Links          []Link                     `json:"links"`
	Extra          map[string]json.RawMessage `json:"-"`
}

func (c Collection) MarshalJSON() ([]byte, error) {
	type alias Collection
	a := alias(c)
	if a.Type == "" {
		a.Type = "Collection"
	}
	if a.Links == nil {
		a.Links = []Link{}
	}
	return marshalWithExtra(a, c.Extra)
}

func (c *Collection) UnmarshalJSON(data []byte) error {
	type alias Collection
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extra, err := extraFields(data, a)
	if err != nil {
		return err
	}
	*c = Collection(a)
	c.Extra = extra
	return nil
}

// ResultContext is the context extension block of an ItemCollection
type ResultContext struct {
	Returned int  `json:"returned"`
	Limit    int  `json:"limit"`
	Matched  *int `json:"matched,omitempty"`
}

// ItemCollection is a page of items. NextToken and PrevToken are opaque
// pagination tokens turned into links by the router.
type ItemCollection struct {
	Type      string         `json:"type"`
	Features  []Item         `json:"features"`
	Links     []Link         `json:"links"`
	Context   *ResultContext `json:"context,omitempty"`
	NextToken string         `json:"-"`
	PrevToken string         `json:"-"`
}

// NewItemCollection returns a FeatureCollection wrapping items
func NewItemCollection(items []Item) *ItemCollection {
	if items == nil {
		items = []Item{}
	}
	return &ItemCollection{
		Type:     "FeatureCollection",
		Features: items,
		Links:    []Link{},
	}
}

// Collections is the GET /collections response
type Collections struct {
	Collections []Collection `json:"collections"`
	Links       []Link       `json:"links"`
}

// Conformance lists the conformance classes an API implements
type Conformance struct {
	ConformsTo []string `json:"conformsTo"`
}

func marshalWithExtra(known any, extra map[string]json.RawMessage) ([]byte, error) {
	raw, err := json.Marshal(known)
	if err != nil || len(extra) == 0 {
		return raw, err
	}

	merged := make(map[string]json.RawMessage, len(extra)+10)
	if err := json.Unmarshal(raw, &merged); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// extraFields returns the members of data that known does not write back.
// Empty values dropped by omitempty stay in the result so a round trip keeps
// them.
func extraFields(data []byte, known any) (map[string]json.RawMessage, error) {
	all := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	emitted, err := json.Marshal(known)
	if err != nil {
		return nil, err
	}
	written := make(map[string]json.RawMessage, len(all))
	if err := json.Unmarshal(emitted, &written); err != nil {
		return nil, err
	}
	for k := range written {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}
