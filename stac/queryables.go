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

package stac

// DefaultQueryables returns the blank queryables schema. This is not allowed
// under OGC CQL but it is allowed by the STAC API Filter Extension.
//
// https://github.com/radiantearth/stac-api-spec/tree/master/fragments/filter#queryables
func DefaultQueryables() map[string]any {
	return map[string]any{
		"$schema":     "https://json-schema.org/draft/2019-09/schema",
		"$id":         "https://example.org/queryables",
		"type":        "object",
		"title":       "Queryables for Example STAC API",
		"description": "Queryable names for the example STAC API Item Search filter.",
		"properties":  map[string]any{},
	}
}
