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
	"errors"
	"time"

	"github.com/go-geospatial/go-stac-api/core"
	"github.com/go-geospatial/go-stac-api/jsonutil"
	"github.com/go-geospatial/go-stac-api/stac"
	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
	gobreaker "github.com/sony/gobreaker/v2"
)

// uniqueViolation is the SQLSTATE raised by pgstac for duplicate ids
const uniqueViolation = "23505"

var defaultSearchConf = []byte(`{"nohydrate": false}`)

// Client is a pgstac backed catalog implementing the Async core,
// transactions and filters contracts
type Client struct {
	core.Base

	db      DB
	breaker *gobreaker.CircuitBreaker[struct{}]
}

var (
	_ core.AsyncCoreClient         = (*Client)(nil)
	_ core.AsyncTransactionsClient = (*Client)(nil)
	_ core.AsyncFiltersClient      = (*Client)(nil)
)

// BreakerSettings tunes the circuit breaker wrapped around every query
type BreakerSettings struct {
	// MaxFailures is the number of consecutive storage failures that opens
	// the breaker
	MaxFailures uint32
	// Timeout is how long the breaker stays open
	Timeout time.Duration
}

func NewClient(db DB, breaker BreakerSettings, extensions ...core.Extension) *Client {
	if breaker.MaxFailures == 0 {
		breaker.MaxFailures = 5
	}
	if breaker.Timeout == 0 {
		breaker.Timeout = 30 * time.Second
	}

	return &Client{
		Base: core.NewBase(extensions...),
		db:   db,
		breaker: gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:    "pgstac",
			Timeout: breaker.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breaker.MaxFailures
			},
			IsSuccessful: isSuccessful,
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
			},
		}),
	}
}

// isSuccessful keeps errors that are answers, not outages, from tripping the
// breaker
func isSuccessful(err error) bool {
	return err == nil ||
		errors.Is(err, pgx.ErrNoRows) ||
		errors.Is(err, stac.ErrNotFound) ||
		errors.Is(err, stac.ErrConflict) ||
		errors.Is(err, stac.ErrInvalidInput) ||
		errors.Is(err, context.Canceled) ||
		isUniqueViolation(err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// guard runs fn through the circuit breaker and classifies its error
func (c *Client) guard(op string, fn func() error) error {
	_, err := c.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, fn()
	})
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, pgx.ErrNoRows), errors.Is(err, stac.ErrNotFound), errors.Is(err, stac.ErrConflict), errors.Is(err, stac.ErrInvalidInput):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// the caller gave up; not a storage failure
		log.Debug().Err(err).Str("op", op).Msg("database query abandoned")
		return err
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		log.Error().Err(err).Str("op", op).Msg("database circuit breaker rejected query")
	default:
		log.Error().Err(err).Str("op", op).Msg("database query failed")
	}
	return stac.NewDatabaseError(op, err)
}

// Ping checks the database connection
func (c *Client) Ping(ctx context.Context) error {
	return c.db.Ping(ctx)
}

func (c *Client) lookupCollection(ctx context.Context, collectionID string) (bool, error) {
	var found bool
	err := c.guard("lookup collection", func() error {
		var id string
		err := c.db.QueryRow(ctx, "SELECT id FROM pgstac.collections WHERE id=$1", collectionID).Scan(&id)
		if err == nil {
			found = true
		}
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return found, err
}

func (c *Client) lookupItem(ctx context.Context, collectionID, itemID string) (bool, error) {
	var found bool
	err := c.guard("lookup item", func() error {
		var id string
		err := c.db.QueryRow(ctx, "SELECT id FROM pgstac.items WHERE collection=$1 AND id=$2", collectionID, itemID).Scan(&id)
		if err == nil {
			found = true
		}
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return found, err
}

func (c *Client) LandingPage(ctx context.Context, baseURL string) (*stac.LandingPage, error) {
	collections, err := c.AllCollections(ctx)
	if err != nil {
		return nil, err
	}
	return c.BuildLandingPage(baseURL, collections), nil
}

func (c *Client) Conformance(context.Context) (*stac.Conformance, error) {
	return &stac.Conformance{ConformsTo: c.ConformanceClasses()}, nil
}

func (c *Client) AllCollections(ctx context.Context) ([]stac.Collection, error) {
	collections := make([]stac.Collection, 0, 10)
	err := c.guard("list collections", func() error {
		rows, err := c.db.Query(ctx, "SELECT content FROM pgstac.collections ORDER BY id")
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var raw []byte
			if err := rows.Scan(&raw); err != nil {
				return err
			}
			var collection stac.Collection
			if err := json.Unmarshal(raw, &collection); err != nil {
				log.Error().Err(err).Msg("collection JSON unmarshal failed")
				return err
			}
			collections = append(collections, collection)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return collections, nil
}

func (c *Client) GetCollection(ctx context.Context, collectionID string) (*stac.Collection, error) {
	var raw []byte
	err := c.guard("get collection", func() error {
		return c.db.QueryRow(ctx, "SELECT get_collection FROM pgstac.get_collection($1)", collectionID).Scan(&raw)
	})
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && len(raw) == 0) {
		return nil, stac.NewNotFoundError("collection", collectionID)
	}
	if err != nil {
		return nil, err
	}

	var collection stac.Collection
	if err := json.Unmarshal(raw, &collection); err != nil {
		log.Error().Err(err).Str("collection", collectionID).Msg("collection JSON unmarshal failed")
		return nil, stac.NewDatabaseError("get collection", err)
	}
	return &collection, nil
}

type searchResponse struct {
	Features []stac.Item         `json:"features"`
	Context  *stac.ResultContext `json:"context"`
	Next     string              `json:"next"`
	Prev     string              `json:"prev"`
}

func (c *Client) PostSearch(ctx context.Context, search *stac.Search) (*stac.ItemCollection, error) {
	s := *search
	s.Normalize()

	conf := json.RawMessage(defaultSearchConf)
	if s.Conf != nil {
		merged, err := jsonutil.Merge(*s.Conf, defaultSearchConf)
		if err != nil {
			return nil, stac.NewValidationError("conf", "conf must be a JSON object")
		}
		conf = merged
	}
	s.Conf = &conf

	paramsJSON, err := json.Marshal(s)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal search parameters")
		return nil, err
	}

	var searchJSON []byte
	err = c.guard("search", func() error {
		return c.db.QueryRow(ctx, "SELECT search FROM search($1::text::jsonb)", string(paramsJSON)).Scan(&searchJSON)
	})
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(searchJSON, &resp); err != nil {
		log.Error().Err(err).Msg("failed to unmarshal search JSON")
		return nil, stac.NewDatabaseError("search", err)
	}

	result := stac.NewItemCollection(resp.Features)
	result.Context = resp.Context
	result.NextToken = resp.Next
	result.PrevToken = resp.Prev
	return result, nil
}

func (c *Client) GetSearch(ctx context.Context, params *stac.GetSearchParams) (*stac.ItemCollection, error) {
	search, err := params.ToSearch()
	if err != nil {
		return nil, err
	}
	return c.PostSearch(ctx, search)
}

func (c *Client) GetItem(ctx context.Context, itemID, collectionID string) (*stac.Item, error) {
	found, err := c.lookupCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, stac.NewNotFoundError("collection", collectionID)
	}

	result, err := c.PostSearch(ctx, &stac.Search{
		Collections: []string{collectionID},
		Ids:         []string{itemID},
		Limit:       1,
	})
	if err != nil {
		return nil, err
	}
	if len(result.Features) == 0 {
		return nil, stac.NewNotFoundError("item", itemID)
	}
	return &result.Features[0], nil
}

func (c *Client) ItemCollection(ctx context.Context, collectionID string, limit int, token string) (*stac.ItemCollection, error) {
	found, err := c.lookupCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, stac.NewNotFoundError("collection", collectionID)
	}

	return c.PostSearch(ctx, &stac.Search{
		Collections: []string{collectionID},
		Limit:       limit,
		Token:       token,
	})
}

func (c *Client) GetQueryables(ctx context.Context, collectionID string) (map[string]any, error) {
	var pCollectionID *string
	if collectionID != "" {
		pCollectionID = &collectionID
	}

	var raw []byte
	err := c.guard("get queryables", func() error {
		return c.db.QueryRow(ctx, "SELECT get_queryables FROM get_queryables($1::text)", pCollectionID).Scan(&raw)
	})
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && len(raw) == 0) {
		return stac.DefaultQueryables(), nil
	}
	if err != nil {
		return nil, err
	}

	queryables := make(map[string]any)
	if err := json.Unmarshal(raw, &queryables); err != nil {
		return nil, stac.NewDatabaseError("get queryables", err)
	}
	return queryables, nil
}
