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
	"github.com/go-geospatial/go-stac-api/stac"
	"github.com/gofiber/fiber/v2"
)

// Collection returns details of a specific collection
// GET /collections/:collection_id
func (h *Core) Collection(c *fiber.Ctx) error {
	collection, err := h.client.GetCollection(c.UserContext(), c.Params("collection_id"))
	if err != nil {
		return err
	}
	enrichCollection(collection, h.baseURL(c))
	return c.JSON(collection)
}

// Collections returns a list of collections managed by this STAC server
// GET /collections
func (h *Core) Collections(c *fiber.Ctx) error {
	baseURL := h.baseURL(c)

	collections, err := h.client.AllCollections(c.UserContext())
	if err != nil {
		return err
	}
	if collections == nil {
		collections = []stac.Collection{}
	}
	for i := range collections {
		enrichCollection(&collections[i], baseURL)
	}

	links := make([]stac.Link, 0, 3)
	links = stac.AddLink(links, baseURL, "self", "/collections", stac.MimeJSON)
	links = stac.AddLink(links, baseURL, "root", "/", stac.MimeJSON)
	links = stac.AddLink(links, baseURL, "parent", "/", stac.MimeJSON)

	return c.JSON(stac.Collections{
		Collections: collections,
		Links:       links,
	})
}
