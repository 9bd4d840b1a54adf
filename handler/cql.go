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
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-geospatial/go-stac-api/stac"
	json "github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// query parameters carried over into self/next links
var searchQueryKeys = []string{"collections", "ids", "limit", "bbox", "datetime", "query", "sortby", "fields"}

func buildQueryArray(c *fiber.Ctx, keys []string) []string {
	queryParts := make([]string, 0, len(keys)+1)
	for _, key := range keys {
		val := c.Query(key, "")
		if val != "" {
			queryParts = append(queryParts, fmt.Sprintf("%s=%s", key, url.QueryEscape(val)))
		}
	}
	return queryParts
}

// queryWithToken joins the parts with an optional token parameter
func queryWithToken(queryParts []string, token string) string {
	parts := append([]string{}, queryParts...)
	if token != "" {
		parts = append(parts, fmt.Sprintf("token=%s", url.QueryEscape(token)))
	}
	return strings.Join(parts, "&")
}

func getSearchParamsFromQuery(c *fiber.Ctx) (*stac.GetSearchParams, *stac.Search, error) {
	limit, err := parseLimit(c.Query("limit", strconv.Itoa(stac.DefaultLimit)))
	if err != nil {
		return nil, nil, err
	}

	bbox, err := parseBboxQuery(c.Query("bbox", ""))
	if err != nil {
		return nil, nil, err
	}

	params := &stac.GetSearchParams{
		Collections: parseList(c.Query("collections", "")),
		Ids:         parseList(c.Query("ids", "")),
		Bbox:        bbox,
		Datetime:    c.Query("datetime", ""),
		Limit:       limit,
		Query:       c.Query("query", ""),
		Token:       c.Query("token", ""),
		Fields:      parseList(c.Query("fields", "")),
		SortBy:      c.Query("sortby", ""),
	}

	// the equivalent body is only used to validate the parameters together
	search, err := params.ToSearch()
	if err != nil {
		return nil, nil, err
	}
	if err := search.Validate(); err != nil {
		return nil, nil, err
	}
	params.Limit = search.Limit

	return params, search, nil
}

func getSearchFromBody(c *fiber.Ctx) (*stac.Search, error) {
	var search stac.Search
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &search); err != nil {
			log.Error().Err(err).Msg("could not parse search body")
			return nil, stac.NewValidationError("body", "could not parse search body")
		}
	}

	if search.Limit < 0 {
		return nil, stac.NewValidationError("limit", "limit '%d' must be greater than 0", search.Limit)
	}
	search.Normalize()
	if err := search.Validate(); err != nil {
		return nil, err
	}
	return &search, nil
}

func parseList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseLimit(limitStr string) (int, error) {
	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		log.Error().Err(err).Str("limit", limitStr).Msg("could not convert limit to int")
		return 0, stac.NewValidationError("limit", "limit '%s' could not be converted to int", limitStr)
	}
	if limit < 0 {
		log.Warn().Int("limit", limit).Msg("limit out of bounds: limit < 0")
		return 0, stac.NewValidationError("limit", "limit '%d' must be greater than 0", limit)
	}
	if limit > stac.MaxLimit {
		log.Warn().Int("limit", limit).Msg("limit out of bounds: limit > 10,000")
		return stac.MaxLimit, nil
	}
	return limit, nil
}

func parseBboxQuery(bboxStr string) ([]float64, error) {
	if bboxStr == "" {
		return nil, nil
	}

	bboxParts := strings.Split(bboxStr, ",")
	bbox := make([]float64, 0, len(bboxParts))
	for _, bboxCoord := range bboxParts {
		coord, err := strconv.ParseFloat(strings.TrimSpace(bboxCoord), 64)
		if err != nil {
			log.Error().Err(err).Str("Coord", bboxCoord).Msg("could not convert bbox coordinate to float64")
			return nil, stac.NewValidationError("bbox", "could not parse bbox '%s'; offending coordinate '%s'. bbox must be 4 or 6 comma separated numbers", bboxStr, bboxCoord)
		}
		bbox = append(bbox, coord)
	}
	return bbox, nil
}
