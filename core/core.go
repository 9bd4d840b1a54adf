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

// Package core defines the contracts a concrete STAC catalog implements.
//
// Every contract comes in two variants. The synchronous variant is called
// inline on the request goroutine. The Async variant takes a context.Context
// and may block on I/O; it receives the request context. The router and the
// extensions pick the adapter for a client once, at startup.
package core

import (
	"context"

	"github.com/go-geospatial/go-stac-api/stac"
)

// CoreClient is the read side of a catalog
type CoreClient interface {
	// LandingPage is called with GET /
	LandingPage(baseURL string) (*stac.LandingPage, error)
	// Conformance is called with GET /conformance
	Conformance() (*stac.Conformance, error)
	// GetSearch is called with GET /search
	GetSearch(params *stac.GetSearchParams) (*stac.ItemCollection, error)
	// PostSearch is called with POST /search
	PostSearch(search *stac.Search) (*stac.ItemCollection, error)
	// GetItem is called with GET /collections/{collection_id}/items/{item_id}
	GetItem(itemID, collectionID string) (*stac.Item, error)
	// AllCollections is called with GET /collections
	AllCollections() ([]stac.Collection, error)
	// GetCollection is called with GET /collections/{collection_id}
	GetCollection(collectionID string) (*stac.Collection, error)
	// ItemCollection is called with GET /collections/{collection_id}/items
	ItemCollection(collectionID string, limit int, token string) (*stac.ItemCollection, error)
}

// AsyncCoreClient is CoreClient for implementations that wait on I/O
type AsyncCoreClient interface {
	LandingPage(ctx context.Context, baseURL string) (*stac.LandingPage, error)
	Conformance(ctx context.Context) (*stac.Conformance, error)
	GetSearch(ctx context.Context, params *stac.GetSearchParams) (*stac.ItemCollection, error)
	PostSearch(ctx context.Context, search *stac.Search) (*stac.ItemCollection, error)
	GetItem(ctx context.Context, itemID, collectionID string) (*stac.Item, error)
	AllCollections(ctx context.Context) ([]stac.Collection, error)
	GetCollection(ctx context.Context, collectionID string) (*stac.Collection, error)
	ItemCollection(ctx context.Context, collectionID string, limit int, token string) (*stac.ItemCollection, error)
}

// Base carries what every core client shares: the enabled extensions and
// the landing page metadata. Concrete clients embed it.
type Base struct {
	Extensions Extensions
	Meta       stac.LandingMeta
}

// NewBase returns a Base with default landing metadata
func NewBase(extensions ...Extension) Base {
	return Base{
		Extensions: extensions,
		Meta:       stac.DefaultLandingMeta(),
	}
}

// ExtensionIsEnabled reports whether an extension named name is registered
func (b *Base) ExtensionIsEnabled(name string) bool {
	return b.Extensions.IsEnabled(name)
}

// ConformanceClasses returns the base conformance list followed by the
// classes of each enabled extension, in registration order
func (b *Base) ConformanceClasses() []string {
	return b.Extensions.ConformanceClasses(stac.BaseConformance)
}

// BuildLandingPage assembles the landing page for baseURL with conformance
// classes and one child link per collection
func (b *Base) BuildLandingPage(baseURL string, collections []stac.Collection) *stac.LandingPage {
	meta := b.Meta
	if meta == (stac.LandingMeta{}) {
		meta = stac.DefaultLandingMeta()
	}

	landing := stac.NewLandingPage(baseURL, meta, b.ExtensionIsEnabled)
	landing.ConformsTo = b.ConformanceClasses()
	for i := range collections {
		landing.AddChild(baseURL, &collections[i])
	}
	return landing
}
