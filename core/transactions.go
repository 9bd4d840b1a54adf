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

// TransactionsClient is the write side of a catalog. Updates replace the
// whole document; the implementation diffs against what it has stored.
type TransactionsClient interface {
	// CreateItem is called with POST /collections/{collection_id}/items
	CreateItem(collectionID string, item *stac.Item) (*stac.Item, error)
	// UpdateItem is called with PUT /collections/{collection_id}/items/{item_id}
	UpdateItem(collectionID, itemID string, item *stac.Item) (*stac.Item, error)
	// DeleteItem is called with DELETE /collections/{collection_id}/items/{item_id}
	// and returns the deleted item
	DeleteItem(itemID, collectionID string) (*stac.Item, error)
	// CreateCollection is called with POST /collections
	CreateCollection(collection *stac.Collection) (*stac.Collection, error)
	// UpdateCollection is called with PUT /collections/{collection_id}
	UpdateCollection(collectionID string, collection *stac.Collection) (*stac.Collection, error)
	// DeleteCollection is called with DELETE /collections/{collection_id}
	// and returns the deleted collection
	DeleteCollection(collectionID string) (*stac.Collection, error)
}

// AsyncTransactionsClient is TransactionsClient for implementations that
// wait on I/O
type AsyncTransactionsClient interface {
	CreateItem(ctx context.Context, collectionID string, item *stac.Item) (*stac.Item, error)
	UpdateItem(ctx context.Context, collectionID, itemID string, item *stac.Item) (*stac.Item, error)
	DeleteItem(ctx context.Context, itemID, collectionID string) (*stac.Item, error)
	CreateCollection(ctx context.Context, collection *stac.Collection) (*stac.Collection, error)
	UpdateCollection(ctx context.Context, collectionID string, collection *stac.Collection) (*stac.Collection, error)
	DeleteCollection(ctx context.Context, collectionID string) (*stac.Collection, error)
}
