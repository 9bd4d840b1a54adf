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
	"strings"
	"time"

	"github.com/go-geospatial/go-stac-api/common"
	"github.com/go-geospatial/go-stac-api/core"
	"github.com/go-geospatial/go-stac-api/extensions"
	"github.com/go-geospatial/go-stac-api/handler"
	"github.com/go-geospatial/go-stac-api/middleware"
	json "github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cache"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"
)

const DefaultPrefix = "/api/stac/v1"

// AppOptions configures the shared middleware of the fiber app
type AppOptions struct {
	CORSOrigins string
	Compress    bool
}

// NewApp creates the fiber app with the JSON codec, the error translation
// and the shared middleware
func NewApp(opts AppOptions) *fiber.App {
	app := fiber.New(fiber.Config{
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: common.ErrorHandler,
	})

	app.Use(recover.New())

	origins := opts.CORSOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
	}))

	if opts.Compress {
		app.Use(compress.New(compress.Config{
			Level: compress.LevelBestSpeed, // 1
		}))
	}

	app.Use(middleware.NewLogger())
	app.Use(middleware.Timer())

	return app
}

// Settings controls where and how the STAC API is mounted
type Settings struct {
	Prefix string
	// BrowserConfig overrides the generated /config.js
	BrowserConfig string
	// Cache enables the response cache for GET requests under Prefix
	Cache           bool
	CacheExpiration time.Duration
}

// SetupRoutes binds the read side endpoints of client and the routes of
// every extension under settings.Prefix
func SetupRoutes(app *fiber.App, client any, exts core.Extensions, settings Settings) error {
	h, err := handler.NewCore(client, settings.Prefix)
	if err != nil {
		return err
	}

	app.Get("/config.js", handler.StacBrowserConfig(settings.BrowserConfig, settings.Prefix))
	app.Get("/healthz", handler.Healthz(client))

	api := fiber.Router(app)
	if settings.Prefix != "" && settings.Prefix != "/" {
		api = app.Group(settings.Prefix)
	}

	if settings.Cache {
		api.Use(newCache(settings.CacheExpiration, exts.IsEnabled(extensions.TransactionExtensionName)))
	}

	api.Get("/", h.Catalog)
	api.Get("/conformance", h.Conformance)
	api.Get("/search", h.GetSearch)
	api.Post("/search", h.PostSearch)
	api.Get("/collections", h.Collections)
	api.Get("/collections/:collection_id", h.Collection)
	api.Get("/collections/:collection_id/items", h.Items)
	api.Get("/collections/:collection_id/items/:item_id", h.Item)

	if err := exts.Register(api); err != nil {
		return err
	}

	log.Info().Str("prefix", settings.Prefix).Bool("async", h.Async()).Int("extensions", len(exts)).Msg("registered STAC routes")
	return nil
}

// newCache caches GET responses. When the catalog accepts writes only the
// static conformance document is cached so updates are visible immediately.
func newCache(expiration time.Duration, writable bool) fiber.Handler {
	if expiration == 0 {
		expiration = 30 * time.Minute
	}
	return cache.New(cache.Config{
		Next: func(c *fiber.Ctx) bool {
			if c.Query("refresh") == "true" {
				return true
			}
			return writable && !strings.HasSuffix(strings.TrimSuffix(c.Path(), "/"), "/conformance")
		},
		Expiration:   expiration,
		CacheControl: true,
	})
}
