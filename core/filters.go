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

package core

import (
	"context"

	"github.com/go-geospatial/go-stac-api/stac"
)

// FiltersClient serves the queryables of the filter extension. An empty
// collectionID asks for the queryables shared by all collections.
type FiltersClient interface {
	GetQueryables(collectionID string) (map[string]any, error)
}

type AsyncFiltersClient interface {
	GetQueryables(ctx context.Context, collectionID string) (map[string]any, error)
}

// BaseFiltersClient returns the blank queryables schema for every
// collection. Embed it and override GetQueryables to publish real fields.
type BaseFiltersClient struct{}

func (BaseFiltersClient) GetQueryables(string) (map[string]any, error) {
	return stac.DefaultQueryables(), nil
}

// AsyncBaseFiltersClient is BaseFiltersClient for the Async variant
type AsyncBaseFiltersClient struct{}

func (AsyncBaseFiltersClient) GetQueryables(context.Context, string) (map[string]any, error) {
	return stac.DefaultQueryables(), nil
}
