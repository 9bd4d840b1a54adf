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
	"context"
	"testing"

	"github.com/go-geospatial/go-stac-api/stac"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExtension struct {
	name       string
	classes    []string
	registered int
}

func (s *stubExtension) Name() string                 { return s.name }
func (s *stubExtension) ConformanceClasses() []string { return s.classes }
func (s *stubExtension) Register(fiber.Router) error {
	s.registered++
	return nil
}

func TestExtensionsIsEnabled(t *testing.T) {
	exts := Extensions{&stubExtension{name: "A"}, &stubExtension{name: stac.FilterExtensionName}}
	assert.True(t, exts.IsEnabled("A"))
	assert.True(t, exts.IsEnabled(stac.FilterExtensionName))
	assert.False(t, exts.IsEnabled("B"))
	assert.False(t, Extensions(nil).IsEnabled("A"))
}

func TestConformanceClassesOrder(t *testing.T) {
	base := NewBase(
		&stubExtension{name: "A", classes: []string{"a1", "a2"}},
		&stubExtension{name: "B", classes: []string{"b1"}},
	)

	classes := base.ConformanceClasses()
	want := append(append([]string{}, stac.BaseConformance...), "a1", "a2", "b1")
	assert.Equal(t, want, classes)

	// the shared base list is never modified
	assert.Len(t, stac.BaseConformance, 3)
}

func TestExtensionsRegister(t *testing.T) {
	a := &stubExtension{name: "A"}
	b := &stubExtension{name: "B"}
	require.NoError(t, Extensions{a, b}.Register(fiber.New()))
	assert.Equal(t, 1, a.registered)
	assert.Equal(t, 1, b.registered)
}

func TestBuildLandingPage(t *testing.T) {
	base := NewBase(&stubExtension{name: stac.FilterExtensionName, classes: []string{"filter"}})
	base.Meta = stac.LandingMeta{StacVersion: stac.Version, ID: "cat", Title: "Catalog", Description: "Test catalog"}

	landing := base.BuildLandingPage("http://localhost", []stac.Collection{{ID: "c1"}, {ID: "c2", Title: "Two"}})
	assert.Equal(t, "cat", landing.ID)
	assert.Equal(t, base.ConformanceClasses(), landing.ConformsTo)

	var children []stac.Link
	hasQueryables := false
	for _, link := range landing.Links {
		switch link.Rel {
		case "child":
			children = append(children, link)
		case stac.RelQueryables:
			hasQueryables = true
		}
	}
	assert.True(t, hasQueryables)
	require.Len(t, children, 2)
	assert.Equal(t, "http://localhost/collections/c1", children[0].Href)
	assert.Equal(t, "Two", children[1].Title)
}

func TestBuildLandingPageDefaultMeta(t *testing.T) {
	landing := (&Base{}).BuildLandingPage("http://localhost", nil)
	assert.Equal(t, "stac-fastapi", landing.ID)
	assert.Equal(t, stac.BaseConformance, landing.ConformsTo)
}

func TestBaseFiltersClient(t *testing.T) {
	q, err := BaseFiltersClient{}.GetQueryables("")
	require.NoError(t, err)
	assert.Equal(t, stac.DefaultQueryables(), q)

	q, err = AsyncBaseFiltersClient{}.GetQueryables(context.Background(), "naip")
	require.NoError(t, err)
	assert.Equal(t, stac.DefaultQueryables(), q)
}
