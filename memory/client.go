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

// Package memory is an in-memory catalog implementing the synchronous core,
// transactions and filters contracts. It backs tests and the "memory"
// database backend.
package memory

import (
	"sort"
	"sync"

	"github.com/go-geospatial/go-stac-api/core"
	"github.com/go-geospatial/go-stac-api/stac"
	json "github.com/goccy/go-json"
)

// LookupFunc reports whether a document exists. itemID is empty for
// collection lookups. A returned error aborts the operation unchanged.
type LookupFunc func(collectionID, itemID string) (bool, error)

type Client struct {
	core.Base
	core.BaseFiltersClient

	mu          sync.RWMutex
	collections map[string]*stac.Collection
	items       map[string]map[string]*stac.Item
	lookup      LookupFunc
}

var (
	_ core.CoreClient         = (*Client)(nil)
	_ core.TransactionsClient = (*Client)(nil)
	_ core.FiltersClient      = (*Client)(nil)
)

func New(extensions ...core.Extension) *Client {
	c := &Client{
		Base:        core.NewBase(extensions...),
		collections: make(map[string]*stac.Collection),
		items:       make(map[string]map[string]*stac.Item),
	}
	c.lookup = c.exists
	return c
}

// SetLookup replaces the existence check used by every operation. Passing nil
// restores the default.
func (c *Client) SetLookup(fn LookupFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if fn == nil {
		fn = c.exists
	}
	c.lookup = fn
}

// exists is the default lookup; callers hold mu
func (c *Client) exists(collectionID, itemID string) (bool, error) {
	if itemID == "" {
		_, ok := c.collections[collectionID]
		return ok, nil
	}
	_, ok := c.items[collectionID][itemID]
	return ok, nil
}

func (c *Client) LandingPage(baseURL string) (*stac.LandingPage, error) {
	collections, err := c.AllCollections()
	if err != nil {
		return nil, err
	}
	return c.BuildLandingPage(baseURL, collections), nil
}

func (c *Client) Conformance() (*stac.Conformance, error) {
	return &stac.Conformance{ConformsTo: c.ConformanceClasses()}, nil
}

func (c *Client) AllCollections() ([]stac.Collection, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, len(c.collections))
	for id := range c.collections {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]stac.Collection, 0, len(ids))
	for _, id := range ids {
		collection, err := clone(c.collections[id])
		if err != nil {
			return nil, err
		}
		out = append(out, *collection)
	}
	return out, nil
}

func (c *Client) GetCollection(collectionID string) (*stac.Collection, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	found, err := c.lookup(collectionID, "")
	if err != nil {
		return nil, err
	}
	stored, ok := c.collections[collectionID]
	if !found || !ok {
		return nil, stac.NewNotFoundError("collection", collectionID)
	}
	return clone(stored)
}

func (c *Client) GetItem(itemID, collectionID string) (*stac.Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	found, err := c.lookup(collectionID, itemID)
	if err != nil {
		return nil, err
	}
	stored, ok := c.items[collectionID][itemID]
	if !found || !ok {
		return nil, stac.NewNotFoundError("item", itemID)
	}
	return clone(stored)
}

func (c *Client) ItemCollection(collectionID string, limit int, token string) (*stac.ItemCollection, error) {
	if _, err := c.GetCollection(collectionID); err != nil {
		return nil, err
	}
	return c.PostSearch(&stac.Search{
		Collections: []string{collectionID},
		Limit:       limit,
		Token:       token,
	})
}

func (c *Client) GetSearch(params *stac.GetSearchParams) (*stac.ItemCollection, error) {
	search, err := params.ToSearch()
	if err != nil {
		return nil, err
	}
	return c.PostSearch(search)
}

func (c *Client) PostSearch(search *stac.Search) (*stac.ItemCollection, error) {
	s := *search
	if s.Limit < 0 {
		return nil, stac.NewValidationError("limit", "limit '%d' must be greater than 0", s.Limit)
	}
	s.Normalize()

	interval, err := stac.ParseDatetime(s.Datetime)
	if err != nil {
		return nil, err
	}
	offset, err := parseToken(s.Token)
	if err != nil {
		return nil, err
	}
	area, err := searchArea(&s)
	if err != nil {
		return nil, err
	}
	filter, err := compileFilter(s.Filter, s.FilterLang)
	if err != nil {
		return nil, err
	}

	matched := make([]stac.Item, 0, s.Limit)
	c.mu.RLock()
	for _, collectionID := range c.searchCollections(s.Collections) {
		for _, stored := range c.items[collectionID] {
			if !matches(stored, &s, interval, area) || !filter(stored) {
				continue
			}
			item, err := clone(stored)
			if err != nil {
				c.mu.RUnlock()
				return nil, err
			}
			matched = append(matched, *item)
		}
	}
	c.mu.RUnlock()

	sortItems(matched, s.SortBy)
	return paginate(matched, offset, s.Limit, s.Fields)
}

// searchCollections returns the ids to scan; callers hold mu
func (c *Client) searchCollections(requested []string) []string {
	if len(requested) > 0 {
		ids := make([]string, 0, len(requested))
		for _, id := range requested {
			if !contains(ids, id) {
				ids = append(ids, id)
			}
		}
		return ids
	}
	ids := make([]string, 0, len(c.items))
	for id := range c.items {
		ids = append(ids, id)
	}
	return ids
}

// clone deep copies a document so callers never share maps or slices with
// the store
func clone[T any](doc *T) (*T, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
