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

package jsonutil

import (
	"bytes"
	"reflect"
	"sort"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

func isObject(a []byte) bool {
	a = bytes.TrimSpace(a)
	return len(a) > 0 && a[0] == '{'
}

// Merge recursively merges the JSON object a into b. Keys present in both
// take the value from a unless both values are objects, which are merged.
func Merge(a, b []byte) (json.RawMessage, error) {
	aMap := make(map[string]json.RawMessage)
	bMap := make(map[string]json.RawMessage)

	if err := json.Unmarshal(a, &aMap); err != nil {
		log.Error().Err(err).Str("a", string(a)).Msg("cannot unmarshal JSON")
		return nil, err
	}
	if err := json.Unmarshal(b, &bMap); err != nil {
		log.Error().Err(err).Str("b", string(b)).Msg("cannot unmarshal JSON")
		return nil, err
	}

	for k, aFragment := range aMap {
		bFragment, ok := bMap[k]
		if ok && isObject(aFragment) && isObject(bFragment) {
			merged, err := Merge(aFragment, bFragment)
			if err != nil {
				return nil, err
			}
			bMap[k] = merged
			continue
		}
		bMap[k] = aFragment
	}

	return json.Marshal(bMap)
}

// Diff returns the sorted top level keys whose values differ between the JSON
// objects a and b, including keys present in only one of them
func Diff(a, b []byte) ([]string, error) {
	aMap := make(map[string]any)
	bMap := make(map[string]any)

	if err := json.Unmarshal(a, &aMap); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(b, &bMap); err != nil {
		return nil, err
	}

	changed := make([]string, 0, 4)
	for k, av := range aMap {
		bv, ok := bMap[k]
		if !ok || !reflect.DeepEqual(av, bv) {
			changed = append(changed, k)
		}
	}
	for k := range bMap {
		if _, ok := aMap[k]; !ok {
			changed = append(changed, k)
		}
	}
	sort.Strings(changed)
	return changed, nil
}

// DiffValues marshals a and b and diffs the results
func DiffValues(a, b any) ([]string, error) {
	aRaw, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	bRaw, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	return Diff(aRaw, bRaw)
}
