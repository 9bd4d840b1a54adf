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

import "github.com/gofiber/fiber/v2"

// ConformanceExtension declares a capability implemented by the core client
// itself. It has no routes of its own.
type ConformanceExtension struct {
	name    string
	classes []string
}

func (e *ConformanceExtension) Name() string {
	return e.name
}

func (e *ConformanceExtension) ConformanceClasses() []string {
	return e.classes
}

func (e *ConformanceExtension) Register(fiber.Router) error {
	return nil
}

func NewFieldsExtension() *ConformanceExtension {
	return &ConformanceExtension{
		name: "FieldsExtension",
		classes: []string{
			"https://api.stacspec.org/v1.0.0-rc.3/item-search#fields",
			"https://api.stacspec.org/v1.0.0-rc.3/ogcapi-features#fields",
		},
	}
}

func NewQueryExtension() *ConformanceExtension {
	return &ConformanceExtension{
		name:    "QueryExtension",
		classes: []string{"https://api.stacspec.org/v1.0.0-rc.2/item-search#query"},
	}
}

func NewSortExtension() *ConformanceExtension {
	return &ConformanceExtension{
		name: "SortExtension",
		classes: []string{
			"https://api.stacspec.org/v1.0.0-rc.2/item-search#sort",
			"https://api.stacspec.org/v1.0.0-rc.2/ogcapi-features#sort",
		},
	}
}

func NewContextExtension() *ConformanceExtension {
	return &ConformanceExtension{
		name:    "ContextExtension",
		classes: []string{"https://api.stacspec.org/v1.0.0-rc.2/item-search#context"},
	}
}
