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

package memory

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/go-geospatial/go-stac-api/stac"
	json "github.com/goccy/go-json"
)

// predicate reports whether an item passes a filter expression
type predicate func(item *stac.Item) bool

// operand resolves one side of a comparison against an item
type operand func(item *stac.Item) (any, bool)

// cql-json operator names and their cql2 equivalent
var legacyOps = map[string]string{
	"eq":     "=",
	"neq":    "<>",
	"lt":     "<",
	"lte":    "<=",
	"gt":     ">",
	"gte":    ">=",
	"isnull": "isnull",
}

func matchAll(*stac.Item) bool { return true }

// compileFilter turns a cql2-json or cql-json filter into a predicate. Only
// logical, comparison, in, between, like and isNull operators are supported;
// spatial and temporal operators are rejected.
func compileFilter(raw *json.RawMessage, lang string) (predicate, error) {
	if raw == nil {
		return matchAll, nil
	}
	trimmed := bytes.TrimSpace(*raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return matchAll, nil
	}

	switch lang {
	case "", stac.CQLJSON, stac.CQL2JSON:
	default:
		return nil, stac.NewValidationError("filter-lang", "filter language '%s' is not supported by the in-memory catalog", lang)
	}

	var expr any
	if err := json.Unmarshal(trimmed, &expr); err != nil {
		return nil, stac.NewValidationError("filter", "filter is not valid JSON")
	}
	return compileExpr(expr)
}

func compileExpr(node any) (predicate, error) {
	m, ok := node.(map[string]any)
	if !ok {
		return nil, stac.NewValidationError("filter", "expected an expression object, got %v", node)
	}

	if op, ok := m["op"].(string); ok {
		args, _ := m["args"].([]any)
		return compileOp(strings.ToLower(op), args)
	}

	if len(m) != 1 {
		return nil, stac.NewValidationError("filter", "expression must have an 'op' or a single operator key")
	}
	for name, value := range m {
		op := strings.ToLower(name)
		if mapped, ok := legacyOps[op]; ok {
			op = mapped
		}
		switch v := value.(type) {
		case []any:
			return compileOp(op, v)
		case map[string]any:
			// {"in": {"value": ..., "list": [...]}}
			if list, ok := v["list"]; ok {
				return compileOp(op, []any{v["value"], list})
			}
			return compileOp(op, []any{v})
		default:
			return compileOp(op, []any{v})
		}
	}
	return nil, stac.NewValidationError("filter", "empty expression")
}

func compileOp(op string, args []any) (predicate, error) {
	switch op {
	case "and", "or":
		if len(args) == 0 {
			return nil, stac.NewValidationError("filter", "'%s' needs at least one argument", op)
		}
		children := make([]predicate, 0, len(args))
		for _, arg := range args {
			child, err := compileExpr(arg)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		if op == "and" {
			return func(item *stac.Item) bool {
				for _, child := range children {
					if !child(item) {
						return false
					}
				}
				return true
			}, nil
		}
		return func(item *stac.Item) bool {
			for _, child := range children {
				if child(item) {
					return true
				}
			}
			return false
		}, nil

	case "not":
		if len(args) != 1 {
			return nil, stac.NewValidationError("filter", "'not' takes one argument")
		}
		child, err := compileExpr(args[0])
		if err != nil {
			return nil, err
		}
		return func(item *stac.Item) bool { return !child(item) }, nil

	case "=", "<>", "<", "<=", ">", ">=":
		if len(args) != 2 {
			return nil, stac.NewValidationError("filter", "'%s' takes two arguments", op)
		}
		left, right, err := compileOperands(args[0], args[1])
		if err != nil {
			return nil, err
		}
		return func(item *stac.Item) bool {
			a, aok := left(item)
			b, bok := right(item)
			if !aok || !bok {
				return false
			}
			return compareOp(cqlOps[op], a, b)
		}, nil

	case "isnull":
		if len(args) != 1 {
			return nil, stac.NewValidationError("filter", "'isNull' takes one argument")
		}
		value, err := compileOperand(args[0])
		if err != nil {
			return nil, err
		}
		return func(item *stac.Item) bool {
			v, ok := value(item)
			return !ok || v == nil
		}, nil

	case "in":
		if len(args) != 2 {
			return nil, stac.NewValidationError("filter", "'in' takes a value and a list")
		}
		value, err := compileOperand(args[0])
		if err != nil {
			return nil, err
		}
		list, ok := args[1].([]any)
		if !ok {
			return nil, stac.NewValidationError("filter", "'in' needs a list of literals")
		}
		return func(item *stac.Item) bool {
			v, ok := value(item)
			return ok && compareOp("in", v, list)
		}, nil

	case "between":
		if len(args) != 3 {
			return nil, stac.NewValidationError("filter", "'between' takes a value and two bounds")
		}
		value, err := compileOperand(args[0])
		if err != nil {
			return nil, err
		}
		low, high, err := compileOperands(args[1], args[2])
		if err != nil {
			return nil, err
		}
		return func(item *stac.Item) bool {
			v, ok := value(item)
			lo, lok := low(item)
			hi, hok := high(item)
			return ok && lok && hok && compare(v, lo) >= 0 && compare(v, hi) <= 0
		}, nil

	case "like":
		if len(args) != 2 {
			return nil, stac.NewValidationError("filter", "'like' takes a value and a pattern")
		}
		value, err := compileOperand(args[0])
		if err != nil {
			return nil, err
		}
		pattern, ok := args[1].(string)
		if !ok {
			return nil, stac.NewValidationError("filter", "'like' pattern must be a string")
		}
		re, err := likePattern(pattern)
		if err != nil {
			return nil, err
		}
		return func(item *stac.Item) bool {
			v, ok := value(item)
			s, isString := v.(string)
			return ok && isString && re.MatchString(s)
		}, nil
	}
	return nil, stac.NewValidationError("filter", "operator '%s' is not supported by the in-memory catalog", op)
}

// cql2 comparison operators mapped to the query extension names
var cqlOps = map[string]string{
	"=":  "eq",
	"<>": "neq",
	"<":  "lt",
	"<=": "lte",
	">":  "gt",
	">=": "gte",
}

func compileOperands(a, b any) (operand, operand, error) {
	left, err := compileOperand(a)
	if err != nil {
		return nil, nil, err
	}
	right, err := compileOperand(b)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func compileOperand(arg any) (operand, error) {
	switch v := arg.(type) {
	case map[string]any:
		if name, ok := v["property"].(string); ok {
			return func(item *stac.Item) (any, bool) {
				return lookupField(item, name)
			}, nil
		}
		for _, key := range []string{"timestamp", "date"} {
			if ts, ok := v[key].(string); ok {
				return constant(ts), nil
			}
		}
		return nil, stac.NewValidationError("filter", "unsupported operand %v", v)
	case []any:
		return nil, stac.NewValidationError("filter", "a list is only allowed as the second argument of 'in'")
	default:
		return constant(v), nil
	}
}

func constant(v any) operand {
	return func(*stac.Item) (any, bool) { return v, true }
}

// likePattern converts a sql like pattern (% and _ wildcards) to a regexp
func likePattern(pattern string) (*regexp.Regexp, error) {
	var sb strings.Builder
	sb.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '%':
			sb.WriteString(".*")
		case '_':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString("$")
	re, err := regexp.Compile(sb.String())
	if err != nil {
		return nil, stac.NewValidationError("filter", "invalid like pattern '%s'", pattern)
	}
	return re, nil
}
