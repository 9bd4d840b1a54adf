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
	"strings"

	json "github.com/goccy/go-json"
)

// Media types used by STAC links and responses.
const (
	MimeJSON    = "application/json"
	MimeGeoJSON = "application/geo+json"
	MimeSchema  = "application/schema+json"
)

type Link struct {
	Rel    string           `json:"rel"`
	Type   string           `json:"type,omitempty"`
	Title  string           `json:"title,omitempty"`
	Href   string           `json:"href"`
	Method string           `json:"method,omitempty"`
	Body   *json.RawMessage `json:"body,omitempty"`
}

// Join appends endpoint to baseURL making sure exactly one slash separates them.
// An empty endpoint returns the base URL without a trailing slash.
func Join(baseURL string, endpoint string) string {
	base := strings.TrimRight(baseURL, "/")
	endpoint = strings.TrimLeft(endpoint, "/")
	if endpoint == "" {
		return base
	}
	return base + "/" + endpoint
}

// AddLink creates a new link reference in the Links array of a document
// rel is the name of the link relationship
// baseURL is the root of the API including any route prefix
// endpoint is the last portion of the URL i.e. <base url>/<endpoint>
func AddLink(links []Link, baseURL string, rel string, endpoint string, mimeType string) []Link {
	return append(links, Link{
		Rel:  rel,
		Type: mimeType,
		Href: Join(baseURL, endpoint),
	})
}

// AddLinkPost creates a new POST link reference carrying body
func AddLinkPost(links []Link, baseURL string, rel string, endpoint string, mimeType string, body *json.RawMessage) []Link {
	return append(links, Link{
		Rel:    rel,
		Type:   mimeType,
		Href:   Join(baseURL, endpoint),
		Method: "POST",
		Body:   body,
	})
}

// WithoutRels returns links minus every link whose rel is in rels. It is used
// to drop server generated links before they are re-added for a new base URL.
func WithoutRels(links []Link, rels ...string) []Link {
	out := make([]Link, 0, len(links))
	for _, link := range links {
		drop := false
		for _, rel := range rels {
			if link.Rel == rel {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, link)
		}
	}
	return out
}
