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

package memory

import (
	"github.com/go-geospatial/go-stac-api/jsonutil"
	"github.com/go-geospatial/go-stac-api/stac"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CreateItem stores item in collectionID. An item without an id is given a
// random uuid.
func (c *Client) CreateItem(collectionID string, item *stac.Item) (*stac.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireCollection(collectionID); err != nil {
		return nil, err
	}

	stored, err := clone(item)
	if err != nil {
		return nil, err
	}
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	stored.Collection = collectionID

	found, err := c.lookup(collectionID, stored.ID)
	if err != nil {
		return nil, err
	}
	if found {
		return nil, stac.NewConflictError("item", stored.ID)
	}

	if c.items[collectionID] == nil {
		c.items[collectionID] = make(map[string]*stac.Item)
	}
	c.items[collectionID][stored.ID] = stored
	log.Debug().Str("collection", collectionID).Str("id", stored.ID).Msg("created item")
	return clone(stored)
}

// UpdateItem replaces an existing item
func (c *Client) UpdateItem(collectionID, itemID string, item *stac.Item) (*stac.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireCollection(collectionID); err != nil {
		return nil, err
	}
	found, err := c.lookup(collectionID, itemID)
	if err != nil {
		return nil, err
	}
	previous, ok := c.items[collectionID][itemID]
	if !found || !ok {
		return nil, stac.NewNotFoundError("item", itemID)
	}

	stored, err := clone(item)
	if err != nil {
		return nil, err
	}
	stored.ID = itemID
	stored.Collection = collectionID

	logChanges("item", itemID, previous, stored)
	c.items[collectionID][itemID] = stored
	return clone(stored)
}

func (c *Client) DeleteItem(itemID, collectionID string) (*stac.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	found, err := c.lookup(collectionID, itemID)
	if err != nil {
		return nil, err
	}
	stored, ok := c.items[collectionID][itemID]
	if !found || !ok {
		return nil, stac.NewNotFoundError("item", itemID)
	}

	delete(c.items[collectionID], itemID)
	log.Debug().Str("collection", collectionID).Str("id", itemID).Msg("deleted item")
	return stored, nil
}

func (c *Client) CreateCollection(collection *stac.Collection) (*stac.Collection, error) {
	if err := stac.ValidateID(collection.ID); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	found, err := c.lookup(collection.ID, "")
	if err != nil {
		return nil, err
	}
	if found {
		return nil, stac.NewConflictError("collection", collection.ID)
	}

	stored, err := clone(collection)
	if err != nil {
		return nil, err
	}
	c.collections[stored.ID] = stored
	log.Debug().Str("id", stored.ID).Msg("created collection")
	return clone(stored)
}

// UpdateCollection replaces collectionID, creating it when it does not exist
func (c *Client) UpdateCollection(collectionID string, collection *stac.Collection) (*stac.Collection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	found, err := c.lookup(collectionID, "")
	if err != nil {
		return nil, err
	}

	stored, err := clone(collection)
	if err != nil {
		return nil, err
	}
	stored.ID = collectionID

	if previous, ok := c.collections[collectionID]; found && ok {
		logChanges("collection", collectionID, previous, stored)
	} else {
		log.Debug().Str("id", collectionID).Msg("update of missing collection; creating it")
	}
	c.collections[collectionID] = stored
	return clone(stored)
}

// DeleteCollection removes collectionID and every item in it
func (c *Client) DeleteCollection(collectionID string) (*stac.Collection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireCollection(collectionID); err != nil {
		return nil, err
	}
	stored := c.collections[collectionID]

	delete(c.collections, collectionID)
	delete(c.items, collectionID)
	log.Debug().Str("id", collectionID).Msg("deleted collection")
	return stored, nil
}

// requireCollection fails with not found unless collectionID exists; callers
// hold mu
func (c *Client) requireCollection(collectionID string) error {
	found, err := c.lookup(collectionID, "")
	if err != nil {
		return err
	}
	if _, ok := c.collections[collectionID]; !found || !ok {
		return stac.NewNotFoundError("collection", collectionID)
	}
	return nil
}

func logChanges(kind, id string, previous, next any) {
	changed, err := jsonutil.DiffValues(previous, next)
	if err != nil {
		log.Warn().Err(err).Str(kind, id).Msg("could not diff update")
		return
	}
	log.Debug().Str(kind, id).Strs("changed", changed).Msg("replaced " + kind)
}
