package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Operator is a comparison operator of the query DSL. Only single-field
// comparisons are supported, mirroring the remote store's API.
type Operator string

const (
	OpEq  Operator = "=="
	OpGt  Operator = ">"
	OpGte Operator = ">="
	OpLt  Operator = "<"
	OpLte Operator = "<="
)

// Condition filters records on one field.
type Condition struct {
	Field string   `json:"field"`
	Op    Operator `json:"op"`
	Value any      `json:"value"`
}

// Order sorts the result set on one field.
type Order struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc"`
}

// Query bundles the filter conditions and the optional order-by of a
// collection read.
type Query struct {
	Conditions []Condition `json:"conditions,omitempty"`
	OrderBy    *Order      `json:"order_by,omitempty"`
}

// Matches evaluates the condition against a record. Missing fields never
// match. Numbers compare numerically (JSON decoding yields float64),
// strings lexicographically; equality additionally works for bools.
func (c Condition) Matches(r Record) bool {
	v, ok := r[c.Field]
	if !ok {
		return false
	}

	if c.Op == OpEq {
		if bv, ok := v.(bool); ok {
			cb, ok := c.Value.(bool)
			return ok && bv == cb
		}
	}

	if fa, fb, ok := asFloats(v, c.Value); ok {
		return compare(c.Op, fa, fb)
	}
	if sa, ok := v.(string); ok {
		if sb, ok := c.Value.(string); ok {
			return compareStrings(c.Op, sa, sb)
		}
	}
	return c.Op == OpEq && v == c.Value
}

// Apply filters and sorts records according to the query, returning a new
// slice. The input is not modified.
func (q Query) Apply(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		keep := true
		for _, c := range q.Conditions {
			if !c.Matches(r) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, r)
		}
	}

	if q.OrderBy != nil {
		field, desc := q.OrderBy.Field, q.OrderBy.Desc
		sort.SliceStable(out, func(i, j int) bool {
			less := lessValues(out[i][field], out[j][field])
			if desc {
				return lessValues(out[j][field], out[i][field])
			}
			return less
		})
	}
	return out
}

// Encode renders the query as URL query parameters understood by the
// document-store service, e.g. "where=total>=10&order=created_at desc".
func (q Query) Encode() map[string]string {
	params := map[string]string{}
	wheres := make([]string, 0, len(q.Conditions))
	for _, c := range q.Conditions {
		wheres = append(wheres, fmt.Sprintf("%s%s%v", c.Field, c.Op, c.Value))
	}
	if len(wheres) > 0 {
		params["where"] = strings.Join(wheres, ",")
	}
	if q.OrderBy != nil {
		dir := "asc"
		if q.OrderBy.Desc {
			dir = "desc"
		}
		params["order"] = q.OrderBy.Field + " " + dir
	}
	return params
}

// ParseQuery is the inverse of Encode: it rebuilds a Query from the
// "where" and "order" URL parameters. Unknown or malformed clauses are
// rejected.
func ParseQuery(where, order string) (Query, error) {
	var q Query

	if where != "" {
		for _, clause := range strings.Split(where, ",") {
			cond, err := parseCondition(clause)
			if err != nil {
				return Query{}, err
			}
			q.Conditions = append(q.Conditions, cond)
		}
	}

	if order != "" {
		field, dir, _ := strings.Cut(order, " ")
		if field == "" {
			return Query{}, fmt.Errorf("invalid order clause: %q", order)
		}
		switch dir {
		case "", "asc":
			q.OrderBy = &Order{Field: field}
		case "desc":
			q.OrderBy = &Order{Field: field, Desc: true}
		default:
			return Query{}, fmt.Errorf("invalid order direction: %q", dir)
		}
	}

	return q, nil
}

// Longest operators first so ">=" is not read as ">".
var operators = []Operator{OpGte, OpLte, OpEq, OpGt, OpLt}

func parseCondition(clause string) (Condition, error) {
	for _, op := range operators {
		field, raw, found := strings.Cut(clause, string(op))
		if !found || field == "" {
			continue
		}
		return Condition{Field: field, Op: op, Value: parseValue(raw)}, nil
	}
	return Condition{}, fmt.Errorf("invalid where clause: %q", clause)
}

func parseValue(raw string) any {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

func asFloats(a, b any) (float64, float64, bool) {
	fa, ok := asFloat(a)
	if !ok {
		return 0, 0, false
	}
	fb, ok := asFloat(b)
	if !ok {
		return 0, 0, false
	}
	return fa, fb, true
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func compare(op Operator, a, b float64) bool {
	switch op {
	case OpEq:
		return a == b
	case OpGt:
		return a > b
	case OpGte:
		return a >= b
	case OpLt:
		return a < b
	case OpLte:
		return a <= b
	}
	return false
}

func compareStrings(op Operator, a, b string) bool {
	switch op {
	case OpEq:
		return a == b
	case OpGt:
		return a > b
	case OpGte:
		return a >= b
	case OpLt:
		return a < b
	case OpLte:
		return a <= b
	}
	return false
}

func lessValues(a, b any) bool {
	if fa, fb, ok := asFloats(a, b); ok {
		return fa < fb
	}
	sa, aok := a.(string)
	sb, bok := b.(string)
	if aok && bok {
		return sa < sb
	}
	// Mixed or unsupported types keep their relative order.
	return false
}
