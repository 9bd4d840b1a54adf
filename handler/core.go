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

// Package handler adapts a core client to fiber endpoints.
package handler

import (
	"context"
	"fmt"

	"github.com/go-geospatial/go-stac-api/common"
	"github.com/go-geospatial/go-stac-api/core"
	"github.com/go-geospatial/go-stac-api/stac"
	"github.com/gofiber/fiber/v2"
)

// Core serves the read side endpoints of a core client
type Core struct {
	client core.AsyncCoreClient
	async  bool
	prefix string
}

// NewCore picks the endpoint adapter for client, which must implement
// core.AsyncCoreClient or core.CoreClient. prefix is the route prefix the
// endpoints are mounted under and is used to build absolute links.
func NewCore(client any, prefix string) (*Core, error) {
	h := &Core{prefix: prefix}

	switch cl := client.(type) {
	case core.AsyncCoreClient:
		h.client = cl
		h.async = true
	case core.CoreClient:
		h.client = syncCore{cl}
	default:
		return nil, fmt.Errorf("core endpoints: %w (got %T)", core.ErrUnsupportedClient, client)
	}
	return h, nil
}

// Async reports whether the client is the context-aware variant
func (h *Core) Async() bool {
	return h.async
}

// baseURL is the absolute URL of the API root for this request
func (h *Core) baseURL(c *fiber.Ctx) string {
	return stac.Join(common.BaseURL(c), h.prefix)
}

type syncCore struct {
	client core.CoreClient
}

func (s syncCore) LandingPage(_ context.Context, baseURL string) (*stac.LandingPage, error) {
	return s.client.LandingPage(baseURL)
}

func (s syncCore) Conformance(context.Context) (*stac.Conformance, error) {
	return s.client.Conformance()
}

func (s syncCore) GetSearch(_ context.Context, params *stac.GetSearchParams) (*stac.ItemCollection, error) {
	return s.client.GetSearch(params)
}

func (s syncCore) PostSearch(_ context.Context, search *stac.Search) (*stac.ItemCollection, error) {
	return s.client.PostSearch(search)
}

func (s syncCore) GetItem(_ context.Context, itemID, collectionID string) (*stac.Item, error) {
	return s.client.GetItem(itemID, collectionID)
}

func (s syncCore) AllCollections(context.Context) ([]stac.Collection, error) {
	return s.client.AllCollections()
}

func (s syncCore) GetCollection(_ context.Context, collectionID string) (*stac.Collection, error) {
	return s.client.GetCollection(collectionID)
}

func (s syncCore) ItemCollection(_ context.Context, collectionID string, limit int, token string) (*stac.ItemCollection, error) {
	return s.client.ItemCollection(collectionID, limit, token)
}
