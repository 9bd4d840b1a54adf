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

package core

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// ErrUnsupportedClient is returned at startup when a client implements
// neither the synchronous nor the Async variant of a contract
var ErrUnsupportedClient = errors.New("client implements neither the synchronous nor the async contract")

// Extension is an optional API capability
type Extension interface {
	// Name identifies the extension, e.g. "TransactionExtension"
	Name() string
	// ConformanceClasses lists the URIs the extension adds to /conformance
	ConformanceClasses() []string
	// Register binds the extension routes. Extensions without routes do nothing.
	Register(router fiber.Router) error
}

// Extensions is the ordered list of extensions enabled on an API
type Extensions []Extension

// IsEnabled reports whether an extension named name is in the list
func (e Extensions) IsEnabled(name string) bool {
	for _, ext := range e {
		if ext.Name() == name {
			return true
		}
	}
	return false
}

// ConformanceClasses returns a copy of base followed by every extension's
// classes in list order
func (e Extensions) ConformanceClasses(base []string) []string {
	classes := make([]string, 0, len(base)+2*len(e))
	classes = append(classes, base...)
	for _, ext := range e {
		classes = append(classes, ext.ConformanceClasses()...)
	}
	return classes
}

// Register binds the routes of every extension in order
func (e Extensions) Register(router fiber.Router) error {
	for _, ext := range e {
		if err := ext.Register(router); err != nil {
			return err
		}
	}
	return nil
}
