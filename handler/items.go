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
	"strconv"

	"github.com/go-geospatial/go-stac-api/common"
	"github.com/go-geospatial/go-stac-api/stac"
	"github.com/gofiber/fiber/v2"
)

// Item returns details of a specific item
// GET /collections/:collection_id/items/:item_id
func (h *Core) Item(c *fiber.Ctx) error {
	item, err := h.client.GetItem(c.UserContext(), c.Params("item_id"), c.Params("collection_id"))
	if err != nil {
		return err
	}
	enrichItem(item, h.baseURL(c))
	return common.GeoJSON(c, item)
}

// Items returns a page of items in a collection
// GET /collections/:collection_id/items
func (h *Core) Items(c *fiber.Ctx) error {
	baseURL := h.baseURL(c)
	collectionID := c.Params("collection_id")

	limit, err := parseLimit(c.Query("limit", strconv.Itoa(stac.DefaultLimit)))
	if err != nil {
		return err
	}
	if limit == 0 {
		limit = stac.DefaultLimit
	}
	token := c.Query("token", "")

	featureCollection, err := h.client.ItemCollection(c.UserContext(), collectionID, limit, token)
	if err != nil {
		return err
	}
	enrichItems(featureCollection.Features, baseURL)

	endpoint := fmt.Sprintf("/collections/%s", collectionID)
	queryParts := []string{fmt.Sprintf("limit=%d", limit)}

	links := make([]stac.Link, 0, 5)
	links = stac.AddLink(links, baseURL, "collection", endpoint, stac.MimeJSON)
	links = stac.AddLink(links, baseURL, "parent", endpoint, stac.MimeJSON)
	links = stac.AddLink(links, baseURL, "root", "/", stac.MimeJSON)
	links = stac.AddLink(links, baseURL, "self", endpoint+"/items?"+queryWithToken(queryParts, token), stac.MimeGeoJSON)
	if featureCollection.NextToken != "" {
		links = stac.AddLink(links, baseURL, "next", endpoint+"/items?"+queryWithToken(queryParts, featureCollection.NextToken), stac.MimeGeoJSON)
	}
	if featureCollection.PrevToken != "" {
		links = stac.AddLink(links, baseURL, "previous", endpoint+"/items?"+queryWithToken(queryParts, featureCollection.PrevToken), stac.MimeGeoJSON)
	}
	featureCollection.Links = links

	return common.GeoJSON(c, featureCollection)
}
