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

package handler

import (
	"github.com/go-geospatial/go-stac-api/common"
	"github.com/go-geospatial/go-stac-api/stac"
	json "github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// GetSearch searches across collections
// GET /search
func (h *Core) GetSearch(c *fiber.Ctx) error {
	baseURL := h.baseURL(c)

	params, _, err := getSearchParamsFromQuery(c)
	if err != nil {
		return err
	}

	featureCollection, err := h.client.GetSearch(c.UserContext(), params)
	if err != nil {
		log.Error().Err(err).Msg("stac search returned an error")
		return err
	}
	enrichItems(featureCollection.Features, baseURL)

	queryParts := buildQueryArray(c, searchQueryKeys)
	links := make([]stac.Link, 0, 4)
	links = stac.AddLink(links, baseURL, "root", "/", stac.MimeJSON)
	links = stac.AddLink(links, baseURL, "self", "/search?"+queryWithToken(queryParts, params.Token), stac.MimeGeoJSON)
	if featureCollection.NextToken != "" {
		links = stac.AddLink(links, baseURL, "next", "/search?"+queryWithToken(queryParts, featureCollection.NextToken), stac.MimeGeoJSON)
	}
	if featureCollection.PrevToken != "" {
		links = stac.AddLink(links, baseURL, "previous", "/search?"+queryWithToken(queryParts, featureCollection.PrevToken), stac.MimeGeoJSON)
	}
	featureCollection.Links = links

	return common.GeoJSON(c, featureCollection)
}

// PostSearch searches across collections with a JSON body
// POST /search
func (h *Core) PostSearch(c *fiber.Ctx) error {
	baseURL := h.baseURL(c)

	search, err := getSearchFromBody(c)
	if err != nil {
		return err
	}

	featureCollection, err := h.client.PostSearch(c.UserContext(), search)
	if err != nil {
		log.Error().Err(err).Msg("stac search returned an error")
		return err
	}
	enrichItems(featureCollection.Features, baseURL)

	links := make([]stac.Link, 0, 4)
	links = stac.AddLink(links, baseURL, "root", "/", stac.MimeJSON)
	if links, err = addSearchLink(links, baseURL, "self", *search, search.Token); err != nil {
		return err
	}
	if featureCollection.NextToken != "" {
		if links, err = addSearchLink(links, baseURL, "next", *search, featureCollection.NextToken); err != nil {
			return err
		}
	}
	if featureCollection.PrevToken != "" {
		if links, err = addSearchLink(links, baseURL, "previous", *search, featureCollection.PrevToken); err != nil {
			return err
		}
	}
	featureCollection.Links = links

	return common.GeoJSON(c, featureCollection)
}

func addSearchLink(links []stac.Link, baseURL, rel string, search stac.Search, token string) ([]stac.Link, error) {
	search.Token = token
	body, err := json.Marshal(search)
	if err != nil {
		log.Error().Err(err).Msg("error serializing search body")
		return nil, err
	}
	raw := json.RawMessage(body)
	return stac.AddLinkPost(links, baseURL, rel, "/search", stac.MimeGeoJSON, &raw), nil
}
