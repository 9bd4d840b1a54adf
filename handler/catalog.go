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
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Catalog returns the landing page
// GET /
func (h *Core) Catalog(c *fiber.Ctx) error {
	landing, err := h.client.LandingPage(c.UserContext(), h.baseURL(c))
	if err != nil {
		log.Error().Err(err).Msg("failed to build landing page")
		return err
	}
	return c.JSON(landing)
}

// Conformance returns the conformance classes
// GET /conformance
func (h *Core) Conformance(c *fiber.Ctx) error {
	conformance, err := h.client.Conformance(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(conformance)
}
