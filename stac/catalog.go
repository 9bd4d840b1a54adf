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

// RelQueryables is the OGC link relation of the queryables document
const RelQueryables = "http://www.opengis.net/def/rel/ogc/1.0/queryables"

// FilterExtensionName enables the queryables link on the landing page
const FilterExtensionName = "FilterExtension"

type LandingPage struct {
	Type           string   `json:"type"`
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	StacVersion    string   `json:"stac_version"`
	ConformsTo     []string `json:"conformsTo"`
	Links          []Link   `json:"links"`
	StacExtensions []string `json:"stac_extensions"`
}

// LandingMeta is the fixed metadata of a landing page
type LandingMeta struct {
	StacVersion string
	ID          string
	Title       string
	Description string
}

// DefaultLandingMeta returns the metadata used when none is configured
func DefaultLandingMeta() LandingMeta {
	return LandingMeta{
		StacVersion: Version,
		ID:          "stac-fastapi",
		Title:       "stac-fastapi",
		Description: "stac-fastapi",
	}
}

// BaseConformance is the list every core client starts from before adding
// the classes of its enabled extensions
var BaseConformance = []string{
	"https://api.stacspec.org/v1.0.0-beta.2/core",
	"https://api.stacspec.org/v1.0.0-beta.2/ogcapi-features",
	"https://api.stacspec.org/v1.0.0-beta.2/item-search",
}

// NewLandingPage builds the landing page document for baseURL. enabled
// reports whether an extension is active; only FilterExtension is consulted.
// Conformance classes and collection child links are added by the caller.
func NewLandingPage(baseURL string, meta LandingMeta, enabled func(name string) bool) *LandingPage {
	links := make([]Link, 0, 6)
	links = append(links, Link{
		Rel:  "self",
		Type: MimeJSON,
		Href: Join(baseURL, ""),
	})
	links = append(links, Link{
		Rel:  "data",
		Type: MimeJSON,
		Href: Join(baseURL, "collections"),
	})
	links = append(links, Link{
		Rel:   "docs",
		Type:  MimeJSON,
		Title: "OpenAPI docs",
		Href:  Join(baseURL, "docs"),
	})
	links = append(links, Link{
		Rel:   "conformance",
		Type:  MimeJSON,
		Title: "STAC/WFS3 conformance classes implemented by this server",
		Href:  Join(baseURL, "conformance"),
	})
	links = append(links, Link{
		Rel:   "search",
		Type:  MimeJSON,
		Title: "STAC search",
		Href:  Join(baseURL, "search"),
	})

	if enabled != nil && enabled(FilterExtensionName) {
		links = append(links, Link{
			Rel:   RelQueryables,
			Type:  MimeGeoJSON,
			Title: "Filter Queryables",
			Href:  Join(baseURL, "queryables"),
		})
	}

	return &LandingPage{
		Type:        "Catalog",
		ID:          meta.ID,
		Title:       meta.Title,
		Description: meta.Description,
		StacVersion: meta.StacVersion,
		ConformsTo: []string{
			"https://stacspec.org/STAC-api.html",
			"http://docs.opengeospatial.org/is/17-069r3/17-069r3.html#ats_geojson",
		},
		Links:          links,
		StacExtensions: []string{},
	}
}

// AddChild appends a child link for collection. The title falls back to
// the collection id.
func (l *LandingPage) AddChild(baseURL string, collection *Collection) {
	title := collection.Title
	if title == "" {
		title = collection.ID
	}
	l.Links = append(l.Links, Link{
		Rel:   "child",
		Type:  MimeJSON,
		Title: title,
		Href:  Join(baseURL, "collections/"+collection.ID),
	})
}
