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
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-geospatial/go-stac-api/common"
	"github.com/go-geospatial/go-stac-api/core"
	"github.com/go-geospatial/go-stac-api/stac"
	json "github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a synchronous transactions and filters client
type recorder struct {
	calls []string
	item  *stac.Item
}

func (r *recorder) CreateItem(collectionID string, item *stac.Item) (*stac.Item, error) {
	r.calls = append(r.calls, "CreateItem:"+collectionID)
	r.item = item
	return item, nil
}

func (r *recorder) UpdateItem(collectionID, itemID string, item *stac.Item) (*stac.Item, error) {
	r.calls = append(r.calls, "UpdateItem:"+collectionID+"/"+itemID)
	r.item = item
	return item, nil
}

func (r *recorder) DeleteItem(itemID, collectionID string) (*stac.Item, error) {
	r.calls = append(r.calls, "DeleteItem:"+collectionID+"/"+itemID)
	return nil, stac.NewNotFoundError("item", itemID)
}

func (r *recorder) CreateCollection(collection *stac.Collection) (*stac.Collection, error) {
	r.calls = append(r.calls, "CreateCollection:"+collection.ID)
	return collection, nil
}

func (r *recorder) UpdateCollection(collectionID string, collection *stac.Collection) (*stac.Collection, error) {
	r.calls = append(r.calls, "UpdateCollection:"+collectionID)
	return collection, nil
}

func (r *recorder) DeleteCollection(collectionID string) (*stac.Collection, error) {
	r.calls = append(r.calls, "DeleteCollection:"+collectionID)
	return &stac.Collection{ID: collectionID}, nil
}

func (r *recorder) GetQueryables(collectionID string) (map[string]any, error) {
	r.calls = append(r.calls, "GetQueryables:"+collectionID)
	return map[string]any{"collection": collectionID}, nil
}

// asyncRecorder is the context-aware variant
type asyncRecorder struct {
	ctxSeen bool
}

func (a *asyncRecorder) CreateItem(ctx context.Context, _ string, item *stac.Item) (*stac.Item, error) {
	a.ctxSeen = ctx != nil
	return item, nil
}

func (a *asyncRecorder) UpdateItem(context.Context, string, string, *stac.Item) (*stac.Item, error) {
	return nil, stac.NewDatabaseError("update item", errors.New("down"))
}

func (a *asyncRecorder) DeleteItem(context.Context, string, string) (*stac.Item, error) {
	return &stac.Item{}, nil
}

func (a *asyncRecorder) CreateCollection(_ context.Context, c *stac.Collection) (*stac.Collection, error) {
	return nil, stac.NewConflictError("collection", c.ID)
}

func (a *asyncRecorder) UpdateCollection(_ context.Context, _ string, c *stac.Collection) (*stac.Collection, error) {
	return c, nil
}

func (a *asyncRecorder) DeleteCollection(_ context.Context, id string) (*stac.Collection, error) {
	return &stac.Collection{ID: id}, nil
}

func (a *asyncRecorder) GetQueryables(context.Context, string) (map[string]any, error) {
	return nil, stac.NewDatabaseError("get queryables", errors.New("down"))
}

func newApp(t *testing.T, exts ...core.Extension) *fiber.App {
	t.Helper()
	app := fiber.New(fiber.Config{ErrorHandler: common.ErrorHandler})
	require.NoError(t, core.Extensions(exts).Register(app))
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func TestNewTransactionExtensionUnsupportedClient(t *testing.T) {
	_, err := NewTransactionExtension(struct{}{})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUnsupportedClient)

	_, err = NewTransactionExtension(nil)
	assert.ErrorIs(t, err, core.ErrUnsupportedClient)
}

func TestNewTransactionExtensionVariant(t *testing.T) {
	sync, err := NewTransactionExtension(&recorder{})
	require.NoError(t, err)
	assert.False(t, sync.Async())

	async, err := NewTransactionExtension(&asyncRecorder{})
	require.NoError(t, err)
	assert.True(t, async.Async())

	assert.Equal(t, TransactionExtensionName, sync.Name())
	assert.Equal(t, TransactionConformance, sync.ConformanceClasses())

	custom, err := NewTransactionExtension(&recorder{}, WithTransactionConformance("urn:tx"))
	require.NoError(t, err)
	assert.Equal(t, []string{"urn:tx"}, custom.ConformanceClasses())
}

func TestTransactionRoutes(t *testing.T) {
	ext, err := NewTransactionExtension(&recorder{})
	require.NoError(t, err)
	app := newApp(t, ext)

	registered := map[string]bool{}
	for _, route := range app.GetRoutes(true) {
		registered[route.Method+" "+route.Path] = true
	}
	for _, want := range []string{
		"POST /collections/:collection_id/items",
		"PUT /collections/:collection_id/items/:item_id",
		"DELETE /collections/:collection_id/items/:item_id",
		"POST /collections",
		"PUT /collections/:collection_id",
		"DELETE /collections/:collection_id",
	} {
		assert.True(t, registered[want], want)
	}
}

func TestTransactionSyncClient(t *testing.T) {
	client := &recorder{}
	ext, err := NewTransactionExtension(client)
	require.NoError(t, err)
	app := newApp(t, ext)

	status, body := do(t, app, "POST", "/collections/naip/items", `{"id": "a", "properties": {}}`)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "naip", client.item.Collection)
	var item stac.Item
	require.NoError(t, json.Unmarshal(body, &item))
	assert.Equal(t, "a", item.ID)

	status, _ = do(t, app, "PUT", "/collections/naip/items/a", `{"properties": {"x": 1}}`)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "a", client.item.ID)

	status, _ = do(t, app, "DELETE", "/collections/naip/items/a", "")
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = do(t, app, "POST", "/collections", `{"id": "landsat"}`)
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = do(t, app, "PUT", "/collections/landsat", `{"description": "updated"}`)
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = do(t, app, "DELETE", "/collections/landsat", "")
	assert.Equal(t, fiber.StatusOK, status)

	assert.Equal(t, []string{
		"CreateItem:naip",
		"UpdateItem:naip/a",
		"DeleteItem:naip/a",
		"CreateCollection:landsat",
		"UpdateCollection:landsat",
		"DeleteCollection:landsat",
	}, client.calls)
}

func TestTransactionRejectsBadBodies(t *testing.T) {
	client := &recorder{}
	ext, err := NewTransactionExtension(client)
	require.NoError(t, err)
	app := newApp(t, ext)

	tests := []struct {
		name, method, path, body string
	}{
		{"invalid json", "POST", "/collections/naip/items", `{"id":`},
		{"collection mismatch", "POST", "/collections/naip/items", `{"id": "a", "collection": "other"}`},
		{"item id mismatch", "PUT", "/collections/naip/items/a", `{"id": "b"}`},
		{"invalid item id", "POST", "/collections/naip/items", `{"id": "a b"}`},
		{"missing collection id", "POST", "/collections", `{"title": "no id"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, app, tt.method, tt.path, tt.body)
			assert.Equal(t, fiber.StatusBadRequest, status)
			var msg stac.Message
			require.NoError(t, json.Unmarshal(body, &msg))
			assert.Equal(t, stac.ParameterError, msg.Code)
		})
	}
	assert.Empty(t, client.calls)
}

func TestTransactionAsyncClient(t *testing.T) {
	client := &asyncRecorder{}
	ext, err := NewTransactionExtension(client)
	require.NoError(t, err)
	app := newApp(t, ext)

	status, _ := do(t, app, "POST", "/collections/naip/items", `{"id": "a"}`)
	assert.Equal(t, fiber.StatusOK, status)
	assert.True(t, client.ctxSeen)

	status, _ = do(t, app, "PUT", "/collections/naip/items/a", `{}`)
	assert.Equal(t, fiber.StatusFailedDependency, status)

	status, _ = do(t, app, "POST", "/collections", `{"id": "naip"}`)
	assert.Equal(t, fiber.StatusConflict, status)
}

func TestFilterExtension(t *testing.T) {
	t.Run("default client", func(t *testing.T) {
		ext, err := NewFilterExtension(nil)
		require.NoError(t, err)
		assert.Equal(t, stac.FilterExtensionName, ext.Name())

		app := newApp(t, ext)
		status, body := do(t, app, "GET", "/queryables", "")
		assert.Equal(t, fiber.StatusOK, status)
		var schema map[string]any
		require.NoError(t, json.Unmarshal(body, &schema))
		assert.Equal(t, stac.DefaultQueryables(), schema)
	})

	t.Run("sync client", func(t *testing.T) {
		client := &recorder{}
		ext, err := NewFilterExtension(client)
		require.NoError(t, err)

		app := newApp(t, ext)
		status, _ := do(t, app, "GET", "/collections/naip/queryables", "")
		assert.Equal(t, fiber.StatusOK, status)
		status, _ = do(t, app, "GET", "/queryables", "")
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, []string{"GetQueryables:naip", "GetQueryables:"}, client.calls)
	})

	t.Run("async client", func(t *testing.T) {
		ext, err := NewFilterExtension(&asyncRecorder{})
		require.NoError(t, err)

		app := newApp(t, ext)
		status, _ := do(t, app, "GET", "/queryables", "")
		assert.Equal(t, fiber.StatusFailedDependency, status)
	})

	t.Run("unsupported client", func(t *testing.T) {
		_, err := NewFilterExtension("not a client")
		assert.ErrorIs(t, err, core.ErrUnsupportedClient)
	})
}

func TestConformanceExtensions(t *testing.T) {
	exts := core.Extensions{NewFieldsExtension(), NewQueryExtension(), NewSortExtension(), NewContextExtension()}
	assert.True(t, exts.IsEnabled("FieldsExtension"))
	assert.True(t, exts.IsEnabled("ContextExtension"))

	app := newApp(t, exts...)
	assert.Empty(t, app.GetRoutes(true))
}
