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

package router

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-geospatial/go-stac-api/core"
	"github.com/go-geospatial/go-stac-api/extensions"
	"github.com/go-geospatial/go-stac-api/memory"
	"github.com/go-geospatial/go-stac-api/stac"
	json "github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseURL = "http://example.com" + DefaultPrefix

type api struct {
	t      *testing.T
	app    *fiber.App
	client *memory.Client
}

func newAPI(t *testing.T) *api {
	t.Helper()
	return newAPIWithSettings(t, Settings{Prefix: DefaultPrefix})
}

func newAPIWithSettings(t *testing.T, settings Settings) *api {
	t.Helper()
	client := memory.New()

	tx, err := extensions.NewTransactionExtension(client)
	require.NoError(t, err)
	filter, err := extensions.NewFilterExtension(client)
	require.NoError(t, err)
	exts := core.Extensions{tx, filter, extensions.NewFieldsExtension(), extensions.NewContextExtension()}
	client.Extensions = exts

	app := NewApp(AppOptions{})
	require.NoError(t, SetupRoutes(app, client, exts, settings))
	return &api{t: t, app: app, client: client}
}

func (a *api) do(method, path, body string) (int, []byte, string) {
	a.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, DefaultPrefix+path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	return resp.StatusCode, raw, resp.Header.Get(fiber.HeaderContentType)
}

func (a *api) decode(raw []byte, v any) {
	a.t.Helper()
	require.NoError(a.t, json.Unmarshal(raw, v), string(raw))
}

func (a *api) seed() {
	a.t.Helper()
	status, body, _ := a.do("POST", "/collections", `{"id": "test-collection", "title": "Test", "description": "test", "license": "MIT", "extent": {}}`)
	require.Equal(a.t, fiber.StatusOK, status, string(body))
	for _, id := range []string{"item-1", "item-2", "item-3"} {
		status, body, _ = a.do("POST", "/collections/test-collection/items", `{
			"type": "Feature",
			"id": "`+id+`",
			"geometry": {"type": "Point", "coordinates": [1, 1]},
			"bbox": [1, 1, 1, 1],
			"properties": {"datetime": "2020-02-12T12:30:22Z"},
			"assets": {}
		}`)
		require.Equal(a.t, fiber.StatusOK, status, string(body))
	}
}

func linkByRel(links []stac.Link, rel string) *stac.Link {
	for i := range links {
		if links[i].Rel == rel {
			return &links[i]
		}
	}
	return nil
}

func TestSetupRoutesUnsupportedClient(t *testing.T) {
	err := SetupRoutes(NewApp(AppOptions{}), struct{}{}, nil, Settings{Prefix: DefaultPrefix})
	assert.ErrorIs(t, err, core.ErrUnsupportedClient)
}

func TestRouteTable(t *testing.T) {
	a := newAPI(t)
	registered := map[string]bool{}
	for _, route := range a.app.GetRoutes(true) {
		registered[route.Method+" "+route.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"GET /config.js",
		"GET " + DefaultPrefix + "/",
		"GET " + DefaultPrefix + "/conformance",
		"GET " + DefaultPrefix + "/search",
		"POST " + DefaultPrefix + "/search",
		"GET " + DefaultPrefix + "/collections",
		"GET " + DefaultPrefix + "/collections/:collection_id",
		"GET " + DefaultPrefix + "/collections/:collection_id/items",
		"GET " + DefaultPrefix + "/collections/:collection_id/items/:item_id",
		"POST " + DefaultPrefix + "/collections/:collection_id/items",
		"PUT " + DefaultPrefix + "/collections/:collection_id/items/:item_id",
		"DELETE " + DefaultPrefix + "/collections/:collection_id/items/:item_id",
		"POST " + DefaultPrefix + "/collections",
		"PUT " + DefaultPrefix + "/collections/:collection_id",
		"DELETE " + DefaultPrefix + "/collections/:collection_id",
		"GET " + DefaultPrefix + "/queryables",
		"GET " + DefaultPrefix + "/collections/:collection_id/queryables",
	} {
		assert.True(t, registered[want], want)
	}
}

func TestLandingPage(t *testing.T) {
	a := newAPI(t)
	a.seed()

	status, body, _ := a.do("GET", "/", "")
	require.Equal(t, fiber.StatusOK, status)

	var landing stac.LandingPage
	a.decode(body, &landing)
	assert.Equal(t, "stac-fastapi", landing.ID)
	assert.Equal(t, baseURL, linkByRel(landing.Links, "self").Href)
	assert.Equal(t, baseURL+"/search", linkByRel(landing.Links, "search").Href)
	assert.Equal(t, baseURL+"/queryables", linkByRel(landing.Links, stac.RelQueryables).Href)
	child := linkByRel(landing.Links, "child")
	require.NotNil(t, child)
	assert.Equal(t, "Test", child.Title)
	assert.Contains(t, landing.ConformsTo, extensions.TransactionConformance[0])
	assert.Contains(t, landing.ConformsTo, extensions.FilterConformance[0])
}

func TestConformance(t *testing.T) {
	a := newAPI(t)
	status, body, _ := a.do("GET", "/conformance", "")
	require.Equal(t, fiber.StatusOK, status)

	var conformance stac.Conformance
	a.decode(body, &conformance)
	assert.Equal(t, stac.BaseConformance, conformance.ConformsTo[:len(stac.BaseConformance)])
	assert.Equal(t, a.client.ConformanceClasses(), conformance.ConformsTo)
}

func TestCreateAndFetchCollection(t *testing.T) {
	a := newAPI(t)
	a.seed()

	status, body, _ := a.do("GET", "/collections/test-collection", "")
	require.Equal(t, fiber.StatusOK, status)
	var collection stac.Collection
	a.decode(body, &collection)
	assert.Equal(t, "test-collection", collection.ID)
	assert.Equal(t, baseURL+"/collections/test-collection", linkByRel(collection.Links, "self").Href)
	assert.Equal(t, baseURL+"/collections/test-collection/items", linkByRel(collection.Links, "items").Href)

	status, _, _ = a.do("POST", "/collections", `{"id": "test-collection", "title": "Replaced"}`)
	assert.Equal(t, fiber.StatusConflict, status)

	// a rejected create leaves the stored collection untouched
	status, body, _ = a.do("GET", "/collections/test-collection", "")
	require.Equal(t, fiber.StatusOK, status)
	a.decode(body, &collection)
	assert.Equal(t, "Test", collection.Title)
}

func TestListCollectionsOnce(t *testing.T) {
	a := newAPI(t)
	a.seed()

	status, body, _ := a.do("GET", "/collections", "")
	require.Equal(t, fiber.StatusOK, status)
	var collections stac.Collections
	a.decode(body, &collections)

	count := 0
	for _, c := range collections.Collections {
		if c.ID == "test-collection" {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.NotNil(t, linkByRel(collections.Links, "self"))
}

func TestUpdateCollection(t *testing.T) {
	a := newAPI(t)
	a.seed()

	status, body, _ := a.do("PUT", "/collections/test-collection", `{"id": "test-collection", "keywords": ["updated"], "links": []}`)
	require.Equal(t, fiber.StatusOK, status, string(body))

	status, body, _ = a.do("GET", "/collections/test-collection", "")
	require.Equal(t, fiber.StatusOK, status)
	var collection stac.Collection
	a.decode(body, &collection)
	assert.Equal(t, []string{"updated"}, collection.Keywords)

	// update of a missing collection creates it
	status, _, _ = a.do("PUT", "/collections/new-collection", `{"description": "new"}`)
	require.Equal(t, fiber.StatusOK, status)
	status, _, _ = a.do("GET", "/collections/new-collection", "")
	assert.Equal(t, fiber.StatusOK, status)

	status, _, _ = a.do("PUT", "/collections/test-collection", `{"id": "other"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestDeleteCollection(t *testing.T) {
	a := newAPI(t)
	a.seed()

	status, _, _ := a.do("DELETE", "/collections/test-collection", "")
	require.Equal(t, fiber.StatusOK, status)
	status, _, _ = a.do("GET", "/collections/test-collection", "")
	assert.Equal(t, fiber.StatusNotFound, status)
	status, _, _ = a.do("DELETE", "/collections/test-collection", "")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestItemTransactions(t *testing.T) {
	a := newAPI(t)
	a.seed()

	status, body, contentType := a.do("GET", "/collections/test-collection/items/item-1", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, stac.MimeGeoJSON, contentType)
	var item stac.Item
	a.decode(body, &item)
	assert.Equal(t, "test-collection", item.Collection)
	assert.Equal(t, baseURL+"/collections/test-collection/items/item-1", linkByRel(item.Links, "self").Href)

	status, _, _ = a.do("POST", "/collections/test-collection/items", `{"id": "item-1"}`)
	assert.Equal(t, fiber.StatusConflict, status)

	status, _, _ = a.do("POST", "/collections/missing/items", `{"id": "item-1"}`)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _, _ = a.do("PUT", "/collections/test-collection/items/item-1", `{"properties": {"datetime": "2021-01-01T00:00:00Z", "gsd": 15}}`)
	require.Equal(t, fiber.StatusOK, status)
	_, body, _ = a.do("GET", "/collections/test-collection/items/item-1", "")
	a.decode(body, &item)
	assert.Equal(t, float64(15), item.Properties["gsd"])

	status, _, _ = a.do("PUT", "/collections/test-collection/items/missing", `{"properties": {}}`)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _, _ = a.do("DELETE", "/collections/test-collection/items/item-1", "")
	require.Equal(t, fiber.StatusOK, status)
	status, _, _ = a.do("DELETE", "/collections/test-collection/items/item-1", "")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestStorageFailure(t *testing.T) {
	a := newAPI(t)
	a.seed()
	a.client.SetLookup(func(string, string) (bool, error) {
		return false, stac.NewDatabaseError("lookup", errors.New("connection reset"))
	})

	status, body, _ := a.do("GET", "/collections/test-collection", "")
	assert.Equal(t, fiber.StatusFailedDependency, status)
	var msg stac.Message
	a.decode(body, &msg)
	assert.Equal(t, stac.StorageError, msg.Code)

	status, _, _ = a.do("POST", "/collections/test-collection/items", `{"id": "item-9"}`)
	assert.Equal(t, fiber.StatusFailedDependency, status)

	collectionWrites := []struct {
		method, path, body string
	}{
		{"POST", "/collections", `{"id": "other-collection"}`},
		{"PUT", "/collections/test-collection", `{"id": "test-collection", "title": "Updated"}`},
		{"DELETE", "/collections/test-collection", ""},
	}
	for _, w := range collectionWrites {
		status, body, _ = a.do(w.method, w.path, w.body)
		assert.Equal(t, fiber.StatusFailedDependency, status, w.method+" "+w.path)
		a.decode(body, &msg)
		assert.Equal(t, stac.StorageError, msg.Code, w.method+" "+w.path)
	}
}

func TestPanicRecovered(t *testing.T) {
	a := newAPI(t)
	a.app.Get(DefaultPrefix+"/boom", func(*fiber.Ctx) error {
		panic("boom")
	})

	status, _, _ := a.do("GET", "/boom", "")
	assert.Equal(t, fiber.StatusInternalServerError, status)

	// the server keeps answering after a panic
	status, _, _ = a.do("GET", "/conformance", "")
	assert.Equal(t, fiber.StatusOK, status)
}

func TestNegativeLimit(t *testing.T) {
	a := newAPI(t)
	a.seed()

	status, _, _ := a.do("POST", "/search", `{"limit": -1}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	status, _, _ = a.do("GET", "/search?limit=-5", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	status, _, _ = a.do("GET", "/collections/test-collection/items?limit=-3", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestCacheServesWrites(t *testing.T) {
	a := newAPIWithSettings(t, Settings{Prefix: DefaultPrefix, Cache: true})
	a.seed()

	status, _, _ := a.do("GET", "/collections/test-collection", "")
	require.Equal(t, fiber.StatusOK, status)

	status, _, _ = a.do("PUT", "/collections/test-collection", `{"id": "test-collection", "keywords": ["fresh"]}`)
	require.Equal(t, fiber.StatusOK, status)

	status, body, _ := a.do("GET", "/collections/test-collection", "")
	require.Equal(t, fiber.StatusOK, status)
	var collection stac.Collection
	a.decode(body, &collection)
	assert.Equal(t, []string{"fresh"}, collection.Keywords)

	status, _, _ = a.do("DELETE", "/collections/test-collection/items/item-1", "")
	require.Equal(t, fiber.StatusOK, status)
	status, _, _ = a.do("GET", "/collections/test-collection/items/item-1", "")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestCacheConformance(t *testing.T) {
	a := newAPIWithSettings(t, Settings{Prefix: DefaultPrefix, Cache: true})

	get := func() string {
		req := httptest.NewRequest("GET", DefaultPrefix+"/conformance", nil)
		resp, err := a.app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		return resp.Header.Get("X-Cache")
	}
	assert.Equal(t, "miss", get())
	assert.Equal(t, "hit", get())
}

func TestSearchFilter(t *testing.T) {
	a := newAPI(t)
	a.seed()

	status, body, _ := a.do("POST", "/search", `{
		"filter-lang": "cql2-json",
		"filter": {"op": "in", "args": [{"property": "id"}, ["item-1", "item-3"]]}
	}`)
	require.Equal(t, fiber.StatusOK, status, string(body))
	var page stac.ItemCollection
	a.decode(body, &page)
	ids := make([]string, 0, len(page.Features))
	for _, f := range page.Features {
		ids = append(ids, f.ID)
	}
	assert.ElementsMatch(t, []string{"item-1", "item-3"}, ids)

	status, _, _ = a.do("POST", "/search", `{"filter": {"op": "s_intersects", "args": [{"property": "geometry"}, {}]}}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestItemsPagination(t *testing.T) {
	a := newAPI(t)
	a.seed()

	status, body, _ := a.do("GET", "/collections/test-collection/items?limit=2", "")
	require.Equal(t, fiber.StatusOK, status)
	var page stac.ItemCollection
	a.decode(body, &page)
	require.Len(t, page.Features, 2)
	next := linkByRel(page.Links, "next")
	require.NotNil(t, next)
	assert.Equal(t, baseURL+"/collections/test-collection/items?limit=2&token=offset%3A2", next.Href)

	status, body, _ = a.do("GET", "/collections/test-collection/items?limit=2&token=offset:2", "")
	require.Equal(t, fiber.StatusOK, status)
	a.decode(body, &page)
	require.Len(t, page.Features, 1)
	assert.Nil(t, linkByRel(page.Links, "next"))
	assert.NotNil(t, linkByRel(page.Links, "previous"))

	status, _, _ = a.do("GET", "/collections/test-collection/items?limit=abc", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestGetSearch(t *testing.T) {
	a := newAPI(t)
	a.seed()

	status, body, contentType := a.do("GET", "/search?collections=test-collection&ids=item-2,item-3&limit=1", "")
	require.Equal(t, fiber.StatusOK, status, string(body))
	assert.Equal(t, stac.MimeGeoJSON, contentType)
	var result stac.ItemCollection
	a.decode(body, &result)
	require.Len(t, result.Features, 1)
	assert.Equal(t, "item-2", result.Features[0].ID)
	require.NotNil(t, result.Context)
	assert.Equal(t, 2, *result.Context.Matched)
	next := linkByRel(result.Links, "next")
	require.NotNil(t, next)
	assert.Contains(t, next.Href, "token=offset%3A1")

	for _, bad := range []string{"?limit=-1", "?bbox=1,2,3", "?datetime=../..", "?bbox=a,b,c,d", "?query=nope"} {
		status, _, _ = a.do("GET", "/search"+bad, "")
		assert.Equal(t, fiber.StatusBadRequest, status, bad)
	}
}

func TestPostSearch(t *testing.T) {
	a := newAPI(t)
	a.seed()

	status, body, _ := a.do("POST", "/search", `{"collections": ["test-collection"], "limit": 2, "fields": {"include": ["properties.datetime"]}}`)
	require.Equal(t, fiber.StatusOK, status, string(body))
	var result stac.ItemCollection
	a.decode(body, &result)
	require.Len(t, result.Features, 2)
	assert.Nil(t, result.Features[0].Geometry)

	next := linkByRel(result.Links, "next")
	require.NotNil(t, next)
	assert.Equal(t, "POST", next.Method)
	require.NotNil(t, next.Body)
	var nextBody stac.Search
	a.decode(*next.Body, &nextBody)
	assert.Equal(t, "offset:2", nextBody.Token)

	status, _, _ = a.do("POST", "/search", `{"bbox": [0, 0, 1, 1], "intersects": {"type": "Point", "coordinates": [0, 0]}}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	status, _, _ = a.do("POST", "/search", `{"limit": -5}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	status, _, _ = a.do("POST", "/search", `not json`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestQueryables(t *testing.T) {
	a := newAPI(t)

	status, body, contentType := a.do("GET", "/queryables", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, stac.MimeSchema, contentType)
	var schema map[string]any
	a.decode(body, &schema)
	assert.Equal(t, stac.DefaultQueryables(), schema)

	status, _, _ = a.do("GET", "/collections/test-collection/queryables", "")
	assert.Equal(t, fiber.StatusOK, status)
}

func TestHealthzAndBrowserConfig(t *testing.T) {
	a := newAPI(t)

	resp, err := a.app.Test(httptest.NewRequest("GET", "/healthz", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status": "OK", "database": "N/A"}`, string(raw))

	resp, err = a.app.Test(httptest.NewRequest("GET", "/config.js", nil), -1)
	require.NoError(t, err)
	raw, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), baseURL)
}
