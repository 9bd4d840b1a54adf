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

package database

import (
	"context"

	"github.com/go-geospatial/go-stac-api/stac"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// exec runs a pgstac function taking one JSON document
func (c *Client) exec(ctx context.Context, op, query string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return stac.NewValidationError("body", "cannot marshal document: %v", err)
	}
	return c.guard(op, func() error {
		_, err := c.db.Exec(ctx, query, string(raw))
		return err
	})
}

func (c *Client) CreateItem(ctx context.Context, collectionID string, item *stac.Item) (*stac.Item, error) {
	found, err := c.lookupCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, stac.NewNotFoundError("collection", collectionID)
	}

	created := *item
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	created.Collection = collectionID

	if found, err = c.lookupItem(ctx, collectionID, created.ID); err != nil {
		return nil, err
	}
	if found {
		return nil, stac.NewConflictError("item", created.ID)
	}

	if err := c.exec(ctx, "create item", "SELECT create_item($1::text::jsonb)", created); err != nil {
		if isUniqueViolation(err) {
			return nil, stac.NewConflictError("item", created.ID)
		}
		return nil, err
	}
	log.Debug().Str("collection", collectionID).Str("id", created.ID).Msg("created item")
	return &created, nil
}

func (c *Client) UpdateItem(ctx context.Context, collectionID, itemID string, item *stac.Item) (*stac.Item, error) {
	found, err := c.lookupItem(ctx, collectionID, itemID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, stac.NewNotFoundError("item", itemID)
	}

	updated := *item
	updated.ID = itemID
	updated.Collection = collectionID

	if err := c.exec(ctx, "update item", "SELECT update_item($1::text::jsonb)", updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteItem(ctx context.Context, itemID, collectionID string) (*stac.Item, error) {
	item, err := c.GetItem(ctx, itemID, collectionID)
	if err != nil {
		return nil, err
	}

	err = c.guard("delete item", func() error {
		_, err := c.db.Exec(ctx, "SELECT delete_item($1::text, $2::text)", itemID, collectionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (c *Client) CreateCollection(ctx context.Context, collection *stac.Collection) (*stac.Collection, error) {
	if err := stac.ValidateID(collection.ID); err != nil {
		return nil, err
	}

	found, err := c.lookupCollection(ctx, collection.ID)
	if err != nil {
		return nil, err
	}
	if found {
		return nil, stac.NewConflictError("collection", collection.ID)
	}

	if err := c.exec(ctx, "create collection", "SELECT create_collection($1::text::jsonb)", collection); err != nil {
		if isUniqueViolation(err) {
			return nil, stac.NewConflictError("collection", collection.ID)
		}
		return nil, err
	}
	return c.GetCollection(ctx, collection.ID)
}

// UpdateCollection replaces collectionID, creating it when it does not exist
func (c *Client) UpdateCollection(ctx context.Context, collectionID string, collection *stac.Collection) (*stac.Collection, error) {
	updated := *collection
	updated.ID = collectionID

	if err := c.exec(ctx, "update collection", "SELECT upsert_collection($1::text::jsonb)", updated); err != nil {
		return nil, err
	}
	return c.GetCollection(ctx, collectionID)
}

func (c *Client) DeleteCollection(ctx context.Context, collectionID string) (*stac.Collection, error) {
	collection, err := c.GetCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}

	err = c.guard("delete collection", func() error {
		_, err := c.db.Exec(ctx, "SELECT delete_collection($1::text)", collectionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return collection, nil
}
