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

package extensions

import (
	"context"
	"fmt"

	"github.com/go-geospatial/go-stac-api/core"
	"github.com/go-geospatial/go-stac-api/stac"
	"github.com/gofiber/fiber/v2"
)

// FilterConformance are the default conformance classes of the filter
// extension
var FilterConformance = []string{
	"https://api.stacspec.org/v1.0.0-rc.2/item-search#filter",
	"http://www.opengis.net/spec/ogcapi-features-3/1.0/conf/filter",
	"http://www.opengis.net/spec/ogcapi-features-3/1.0/conf/features-filter",
	"http://www.opengis.net/spec/cql2/1.0/conf/basic-cql2",
	"http://www.opengis.net/spec/cql2/1.0/conf/cql2-json",
}

// FilterExtension serves the queryables documents:
//
//	GET /queryables
//	GET /collections/:collection_id/queryables
type FilterExtension struct {
	client      core.AsyncFiltersClient
	conformance []string
}

// NewFilterExtension accepts a core.AsyncFiltersClient or a
// core.FiltersClient. A nil client serves the default queryables.
func NewFilterExtension(client any) (*FilterExtension, error) {
	f := &FilterExtension{conformance: FilterConformance}

	switch cl := client.(type) {
	case nil:
		f.client = core.AsyncBaseFiltersClient{}
	case core.AsyncFiltersClient:
		f.client = cl
	case core.FiltersClient:
		f.client = syncFilters{cl}
	default:
		return nil, fmt.Errorf("filter extension: %w (got %T)", core.ErrUnsupportedClient, client)
	}
	return f, nil
}

func (f *FilterExtension) Name() string {
	return stac.FilterExtensionName
}

func (f *FilterExtension) ConformanceClasses() []string {
	return f.conformance
}

func (f *FilterExtension) Register(router fiber.Router) error {
	router.Get("/queryables", f.queryables)
	router.Get("/collections/:collection_id/queryables", f.queryables)
	return nil
}

func (f *FilterExtension) queryables(c *fiber.Ctx) error {
	schema, err := f.client.GetQueryables(c.UserContext(), c.Params("collection_id"))
	if err != nil {
		return err
	}
	return c.JSON(schema, stac.MimeSchema)
}

type syncFilters struct {
	client core.FiltersClient
}

func (s syncFilters) GetQueryables(_ context.Context, collectionID string) (map[string]any, error) {
	return s.client.GetQueryables(collectionID)
}
