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

// Package extensions implements the optional STAC API capabilities.
package extensions

import (
	"context"
	"fmt"

	"github.com/go-geospatial/go-stac-api/common"
	"github.com/go-geospatial/go-stac-api/core"
	"github.com/go-geospatial/go-stac-api/stac"
	json "github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const TransactionExtensionName = "TransactionExtension"

// TransactionConformance are the default conformance classes of the
// transaction extension
var TransactionConformance = []string{
	"https://api.stacspec.org/v1.0.0-rc.2/ogcapi-features/extensions/transaction",
	"http://www.opengis.net/spec/ogcapi-features-4/1.0/conf/simpletx",
}

// TransactionExtension adds the endpoints which create, update and delete
// items and collections:
//
//	POST   /collections
//	PUT    /collections/:collection_id
//	DELETE /collections/:collection_id
//	POST   /collections/:collection_id/items
//	PUT    /collections/:collection_id/items/:item_id
//	DELETE /collections/:collection_id/items/:item_id
//
// https://github.com/radiantearth/stac-api-spec/blob/master/ogcapi-features/extensions/transaction/README.md
type TransactionExtension struct {
	client      core.AsyncTransactionsClient
	async       bool
	conformance []string
}

type TransactionOption func(*TransactionExtension)

// WithTransactionConformance replaces the default conformance classes
func WithTransactionConformance(classes ...string) TransactionOption {
	return func(t *TransactionExtension) {
		t.conformance = classes
	}
}

// NewTransactionExtension picks the endpoint adapter for client. client must
// implement core.AsyncTransactionsClient or core.TransactionsClient.
func NewTransactionExtension(client any, opts ...TransactionOption) (*TransactionExtension, error) {
	t := &TransactionExtension{conformance: TransactionConformance}

	switch cl := client.(type) {
	case core.AsyncTransactionsClient:
		t.client = cl
		t.async = true
	case core.TransactionsClient:
		t.client = syncTransactions{cl}
	default:
		return nil, fmt.Errorf("transaction extension: %w (got %T)", core.ErrUnsupportedClient, client)
	}

	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func (t *TransactionExtension) Name() string {
	return TransactionExtensionName
}

func (t *TransactionExtension) ConformanceClasses() []string {
	return t.conformance
}

// Async reports whether the client is the context-aware variant
func (t *TransactionExtension) Async() bool {
	return t.async
}

// Register binds the six transaction routes onto router
func (t *TransactionExtension) Register(router fiber.Router) error {
	router.Post("/collections/:collection_id/items", t.createItem)
	router.Put("/collections/:collection_id/items/:item_id", t.updateItem)
	router.Delete("/collections/:collection_id/items/:item_id", t.deleteItem)
	router.Post("/collections", t.createCollection)
	router.Put("/collections/:collection_id", t.updateCollection)
	router.Delete("/collections/:collection_id", t.deleteCollection)

	log.Debug().Bool("async", t.async).Msg("registered transaction extension routes")
	return nil
}

func (t *TransactionExtension) createItem(c *fiber.Ctx) error {
	collectionID := c.Params("collection_id")
	item, err := parseItem(c, collectionID, "")
	if err != nil {
		return err
	}

	created, err := t.client.CreateItem(c.UserContext(), collectionID, item)
	if err != nil {
		return err
	}
	return common.GeoJSON(c, created)
}

func (t *TransactionExtension) updateItem(c *fiber.Ctx) error {
	collectionID := c.Params("collection_id")
	itemID := c.Params("item_id")
	item, err := parseItem(c, collectionID, itemID)
	if err != nil {
		return err
	}

	updated, err := t.client.UpdateItem(c.UserContext(), collectionID, itemID, item)
	if err != nil {
		return err
	}
	return common.GeoJSON(c, updated)
}

func (t *TransactionExtension) deleteItem(c *fiber.Ctx) error {
	deleted, err := t.client.DeleteItem(c.UserContext(), c.Params("item_id"), c.Params("collection_id"))
	if err != nil {
		return err
	}
	return common.GeoJSON(c, deleted)
}

func (t *TransactionExtension) createCollection(c *fiber.Ctx) error {
	collection, err := parseCollection(c, "")
	if err != nil {
		return err
	}

	created, err := t.client.CreateCollection(c.UserContext(), collection)
	if err != nil {
		return err
	}
	return c.JSON(created)
}

func (t *TransactionExtension) updateCollection(c *fiber.Ctx) error {
	collectionID := c.Params("collection_id")
	collection, err := parseCollection(c, collectionID)
	if err != nil {
		return err
	}

	updated, err := t.client.UpdateCollection(c.UserContext(), collectionID, collection)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

func (t *TransactionExtension) deleteCollection(c *fiber.Ctx) error {
	deleted, err := t.client.DeleteCollection(c.UserContext(), c.Params("collection_id"))
	if err != nil {
		return err
	}
	return c.JSON(deleted)
}

func parseItem(c *fiber.Ctx, collectionID, itemID string) (*stac.Item, error) {
	var item stac.Item
	if err := json.Unmarshal(c.Body(), &item); err != nil {
		log.Error().Err(err).Str("RequestBody", string(c.Body())).Msg("cannot unmarshal provided item JSON")
		return nil, stac.NewValidationError("body", "JSON parse failed; item must be a valid JSON object")
	}

	var err error
	if item.Collection, err = stac.ResolveID("collection", collectionID, item.Collection); err != nil {
		return nil, err
	}
	if itemID != "" {
		if item.ID, err = stac.ResolveID("id", itemID, item.ID); err != nil {
			return nil, err
		}
	}
	if item.ID != "" {
		if err := stac.ValidateID(item.ID); err != nil {
			return nil, err
		}
	}
	return &item, nil
}

func parseCollection(c *fiber.Ctx, collectionID string) (*stac.Collection, error) {
	var collection stac.Collection
	if err := json.Unmarshal(c.Body(), &collection); err != nil {
		log.Error().Err(err).Str("RequestBody", string(c.Body())).Msg("cannot unmarshal provided collection JSON")
		return nil, stac.NewValidationError("body", "JSON parse failed; collection must be a valid JSON object")
	}

	var err error
	if collection.ID, err = stac.ResolveID("id", collectionID, collection.ID); err != nil {
		return nil, err
	}
	if err := stac.ValidateID(collection.ID); err != nil {
		return nil, err
	}
	return &collection, nil
}

// syncTransactions adapts a synchronous client to the Async contract. The
// request context is dropped; the call runs inline.
type syncTransactions struct {
	client core.TransactionsClient
}

func (s syncTransactions) CreateItem(_ context.Context, collectionID string, item *stac.Item) (*stac.Item, error) {
	return s.client.CreateItem(collectionID, item)
}

func (s syncTransactions) UpdateItem(_ context.Context, collectionID, itemID string, item *stac.Item) (*stac.Item, error) {
	return s.client.UpdateItem(collectionID, itemID, item)
}

func (s syncTransactions) DeleteItem(_ context.Context, itemID, collectionID string) (*stac.Item, error) {
	return s.client.DeleteItem(itemID, collectionID)
}

func (s syncTransactions) CreateCollection(_ context.Context, collection *stac.Collection) (*stac.Collection, error) {
	return s.client.CreateCollection(collection)
}

func (s syncTransactions) UpdateCollection(_ context.Context, collectionID string, collection *stac.Collection) (*stac.Collection, error) {
	return s.client.UpdateCollection(collectionID, collection)
}

func (s syncTransactions) DeleteCollection(_ context.Context, collectionID string) (*stac.Collection, error) {
	return s.client.DeleteCollection(collectionID)
}
