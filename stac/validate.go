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
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	idRe     = regexp.MustCompile(`^([a-zA-Z0-9\-_\.]+)$`)
	validate = validator.New(validator.WithRequiredStructEnabled())
)

// ValidateID checks that id is present and matches ^([a-zA-Z0-9\-_\.]+)$
func ValidateID(id string) error {
	if id == "" {
		return NewValidationError("id", "id field is required")
	}
	if !idRe.MatchString(id) {
		return NewValidationError("id", `id must conform to format '^([a-zA-Z0-9\-_\.]+)$'`)
	}
	return nil
}

// ResolveID reconciles the id taken from the request path with the id found
// in the document body. An empty body id adopts the path id.
func ResolveID(field, pathID, bodyID string) (string, error) {
	if bodyID == "" {
		return pathID, nil
	}
	if pathID != "" && bodyID != pathID {
		return "", NewValidationError(field, "path id '%s' does not match document id '%s'", pathID, bodyID)
	}
	return bodyID, nil
}

// Validate checks a search body for structural errors
func (s *Search) Validate() error {
	if len(s.Bbox) != 0 && s.Intersects != nil {
		return NewValidationError("bbox", "cannot specify both bbox and intersects")
	}

	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fromFieldError(verrs[0])
		}
		return NewValidationError("", "invalid search body: %v", err)
	}

	if err := validateBbox(s.Bbox); err != nil {
		return err
	}

	if _, err := ParseDatetime(s.Datetime); err != nil {
		return err
	}
	return nil
}

func validateBbox(bbox []float64) error {
	if len(bbox) == 4 && bbox[1] > bbox[3] {
		return NewValidationError("bbox", "bbox invalid lat1 > lat2")
	}
	if len(bbox) == 6 && bbox[1] > bbox[4] {
		return NewValidationError("bbox", "bbox invalid lat1 > lat2")
	}
	return nil
}

func fromFieldError(fe validator.FieldError) *ValidationError {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "len=4|len=6":
		return NewValidationError(field, "bbox must be 4 or 6 coordinates")
	case "min":
		return NewValidationError(field, "must be greater than or equal to %s", fe.Param())
	case "oneof":
		return NewValidationError(field, "must be one of %s", fe.Param())
	case "required":
		return NewValidationError(field, "must not be empty")
	}
	return &ValidationError{Field: field, Message: fmt.Sprintf("failed the '%s' check", fe.Tag())}
}
