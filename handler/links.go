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

package handler

import (
	"fmt"

	"github.com/go-geospatial/go-stac-api/stac"
)

// server generated rels; stored copies are dropped before re-adding them
var generatedRels = []string{"self", "root", "parent", "items", "collection"}

// enrichCollection adds self, root, parent and items references
func enrichCollection(collection *stac.Collection, baseURL string) {
	links := stac.WithoutRels(collection.Links, generatedRels...)
	endpoint := fmt.Sprintf("/collections/%s", collection.ID)
	links = stac.AddLink(links, baseURL, "self", endpoint, stac.MimeJSON)
	links = stac.AddLink(links, baseURL, "root", "/", stac.MimeJSON)
	links = stac.AddLink(links, baseURL, "parent", "/", stac.MimeJSON)
	links = stac.AddLink(links, baseURL, "items", endpoint+"/items", stac.MimeGeoJSON)
	collection.Links = links
}

// enrichItem adds self, parent, collection and root references
func enrichItem(item *stac.Item, baseURL string) {
	links := stac.WithoutRels(item.Links, generatedRels...)
	collectionEndpoint := fmt.Sprintf("/collections/%s", item.Collection)
	links = stac.AddLink(links, baseURL, "collection", collectionEndpoint, stac.MimeJSON)
	links = stac.AddLink(links, baseURL, "parent", collectionEndpoint, stac.MimeJSON)
	links = stac.AddLink(links, baseURL, "root", "/", stac.MimeJSON)
	links = stac.AddLink(links, baseURL, "self", fmt.Sprintf("%s/items/%s", collectionEndpoint, item.ID), stac.MimeGeoJSON)
	item.Links = links
}

func enrichItems(items []stac.Item, baseURL string) {
	for i := range items {
		enrichItem(&items[i], baseURL)
	}
}
