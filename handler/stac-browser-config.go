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

	"github.com/go-geospatial/go-stac-api/common"
	"github.com/go-geospatial/go-stac-api/stac"
	"github.com/gofiber/fiber/v2"
)

// StacBrowserConfig serves the config.js read by STAC Browser. A non empty
// override is served verbatim.
func StacBrowserConfig(override, prefix string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		data := override
		if data == "" {
			data = fmt.Sprintf("window.STAC_BROWSER_CONFIG = {catalogUrl: \"%s\"}", stac.Join(common.BaseURL(c), prefix))
		}
		c.Set(fiber.HeaderContentType, "application/javascript")
		return c.Status(fiber.StatusOK).SendString(data)
	}
}
