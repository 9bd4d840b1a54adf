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

package common

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-geospatial/go-stac-api/stac"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// StatusClientClosedRequest is returned when the client went away before the
// response was ready
const StatusClientClosedRequest = 499

// Status returns the HTTP status and message code for err
func Status(err error) (int, string) {
	var fiberErr *fiber.Error
	switch {
	case errors.Is(err, stac.ErrNotFound):
		return fiber.StatusNotFound, stac.NotFound
	case errors.Is(err, stac.ErrConflict):
		return fiber.StatusConflict, stac.Conflict
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, stac.RequestCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout, stac.RequestTimeout
	case errors.Is(err, stac.ErrDatabase):
		return fiber.StatusFailedDependency, stac.StorageError
	case errors.Is(err, stac.ErrInvalidInput):
		return fiber.StatusBadRequest, stac.ParameterError
	case errors.As(err, &fiberErr):
		return fiberErr.Code, http.StatusText(fiberErr.Code)
	default:
		return fiber.StatusInternalServerError, stac.ServerError
	}
}

// ErrorHandler is the fiber error handler. It translates client errors to
// status codes and writes a stac.Message body.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status, code := Status(err)

	event := log.Warn()
	if status >= fiber.StatusInternalServerError || status == fiber.StatusFailedDependency {
		event = log.Error().Stack()
	}
	event.Err(err).Int("status", status).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")

	return c.Status(status).JSON(stac.Message{
		Code:        code,
		Description: err.Error(),
	})
}
