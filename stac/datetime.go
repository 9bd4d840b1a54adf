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

import (
	"strings"
	"time"
)

// Interval is a closed or half open time range; a nil bound is open
type Interval struct {
	Start *time.Time
	End   *time.Time
}

// Contains reports whether t lies within the interval, bounds included
func (i Interval) Contains(t time.Time) bool {
	if i.Start != nil && t.Before(*i.Start) {
		return false
	}
	if i.End != nil && t.After(*i.End) {
		return false
	}
	return true
}

// ParseDatetime parses a single RFC 3339 datetime or an interval of the form
// start/end where either side may be ".." or empty, but not both
func ParseDatetime(dateStr string) (Interval, error) {
	if dateStr == "" {
		return Interval{}, nil
	}

	first, second, found := strings.Cut(dateStr, "/")
	if !found {
		t, err := parseRFC3339(first)
		if err != nil {
			return Interval{}, NewValidationError("datetime", "'%s' is not RFC 3339 formatted", dateStr)
		}
		return Interval{Start: &t, End: &t}, nil
	}

	if isOpen(first) && isOpen(second) {
		return Interval{}, NewValidationError("datetime", "both sides of the interval cannot be open: %s", dateStr)
	}

	var interval Interval
	if !isOpen(first) {
		t, err := parseRFC3339(first)
		if err != nil {
			return Interval{}, NewValidationError("datetime", "first datetime '%s' is not RFC 3339 formatted or open", first)
		}
		interval.Start = &t
	}
	if !isOpen(second) {
		t, err := parseRFC3339(second)
		if err != nil {
			return Interval{}, NewValidationError("datetime", "second datetime '%s' is not RFC 3339 formatted or open", second)
		}
		interval.End = &t
	}
	if interval.Start != nil && interval.End != nil && interval.End.Before(*interval.Start) {
		return Interval{}, NewValidationError("datetime", "interval end is before its start: %s", dateStr)
	}
	return interval, nil
}

func isOpen(s string) bool {
	return s == "" || s == ".."
}

func parseRFC3339(s string) (time.Time, error) {
	// RFC 3339 allows a space separator
	return time.Parse(time.RFC3339Nano, strings.Replace(s, " ", "T", 1))
}
