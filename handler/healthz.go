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
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Pinger is implemented by clients backed by a database
type Pinger interface {
	Ping(ctx context.Context) error
}

// Healthz reports the status of the service and, when the client is a
// Pinger, of its database
func Healthz(client any) fiber.Handler {
	pinger, _ := client.(Pinger)

	return func(c *fiber.Ctx) error {
		overallHealth := "OK"
		dbHealth := "OK"

		if pinger != nil {
			if err := pinger.Ping(c.UserContext()); err != nil {
				log.Error().Err(err).Msg("database ping failed")
				dbHealth = "FAILED"
				overallHealth = "FAILED"
			}
		} else {
			dbHealth = "N/A"
		}

		status := fiber.StatusOK
		if overallHealth != "OK" {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(map[string]string{
			"status":   overallHealth,
			"database": dbHealth,
		})
	}
}
