// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package item defines the Item record and the in-memory Registry which
// holds them in insertion order.
package item

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Item is a single entry in the Registry.
//
// A nil Description is serialized as JSON null.
type Item struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// ValidationError lists every field of a candidate Item which is invalid.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("invalid item")
	for _, field := range slices.Sorted(maps.Keys(e.Fields)) {
		fmt.Fprintf(&sb, "; %s: %s", field, strings.Join(e.Fields[field], ", "))
	}
	return sb.String()
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

const (
	msgNotObject = "must be a JSON object"
	msgRequired  = "field required"
	msgString    = "must be a string"
)

var jsonNull = []byte("null")

// Parse decodes b into an Item.
//
// Unknown members are ignored. A missing or null description is allowed
// but the name must be present and a string, possibly empty.
func Parse(b []byte) (Item, error) {
	var members map[string]json.RawMessage
	err := json.Unmarshal(b, &members)
	if err != nil || members == nil {
		verr := &ValidationError{}
		verr.add("body", msgNotObject)
		return Item{}, verr
	}

	var (
		it   Item
		verr ValidationError
	)

	name, ok := members["name"]
	switch {
	case !ok:
		verr.add("name", msgRequired)
	case !isString(name):
		verr.add("name", msgString)
	default:
		// isString guarantees this succeeds
		_ = json.Unmarshal(name, &it.Name)
	}

	desc, ok := members["description"]
	switch {
	case !ok || bytes.Equal(bytes.TrimSpace(desc), jsonNull):
	case !isString(desc):
		verr.add("description", msgString)
	default:
		var s string
		_ = json.Unmarshal(desc, &s)
		it.Description = &s
	}

	if len(verr.Fields) > 0 {
		return Item{}, &verr
	}
	return it, nil
}

func isString(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return false
	}
	var s string
	return json.Unmarshal(raw, &s) == nil
}
