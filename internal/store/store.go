// Package store is the persistence collaborator: a small document store with
// point reads, atomic per-key updates and filtered scans. Documents are JSON.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Collection names used across the service.
const (
	Users           = "users"
	Competitions    = "competitions"
	Teams           = "teams"
	TeamMembers     = "team_members"
	DailySteps      = "daily_steps"
	IdempotencyKeys = "idempotency_keys"
	DeviceLinks     = "device_links"
)

// ErrSkipWrite returned from an UpdateFunc leaves the stored document as is.
var ErrSkipWrite = errors.New("store: skip write")

// Op is a filter comparison.
type Op string

const (
	OpEq            Op = "=="
	OpGte           Op = ">="
	OpLte           Op = "<="
	OpArrayContains Op = "array-contains"
)

// Filter restricts a Query on one top-level document field.
type Filter struct {
	Field string
	Op    Op
	Value interface{}
}

func Eq(field string, v interface{}) Filter  { return Filter{Field: field, Op: OpEq, Value: v} }
func Gte(field string, v interface{}) Filter { return Filter{Field: field, Op: OpGte, Value: v} }
func Lte(field string, v interface{}) Filter { return Filter{Field: field, Op: OpLte, Value: v} }
func Contains(field string, v interface{}) Filter {
	return Filter{Field: field, Op: OpArrayContains, Value: v}
}

// Document is one raw stored record.
type Document struct {
	Key  string
	Data []byte
}

// Decode unmarshals the document body into dst.
func (d Document) Decode(dst interface{}) error {
	return json.Unmarshal(d.Data, dst)
}

// UpdateFunc receives the current body (nil when absent) and returns the
// value to store. It may run more than once if the adapter retries.
type UpdateFunc func(current []byte, exists bool) (interface{}, error)

// Store is implemented by the memory and gorm adapters.
type Store interface {
	// Get decodes the document into dst and reports whether it existed.
	Get(ctx context.Context, collection, key string, dst interface{}) (bool, error)
	// Set replaces the document.
	Set(ctx context.Context, collection, key string, v interface{}) error
	// Merge overlays top-level fields onto the document, creating it if needed.
	Merge(ctx context.Context, collection, key string, fields map[string]interface{}) error
	// Create inserts only if the key is free and reports whether it did.
	Create(ctx context.Context, collection, key string, v interface{}) (bool, error)
	// Update performs an atomic read-modify-write of a single key.
	Update(ctx context.Context, collection, key string, fn UpdateFunc) error
	// Delete removes the document; deleting a missing key is not an error.
	Delete(ctx context.Context, collection, key string) error
	// Query returns every document in collection matching all filters.
	// No filters is a full scan.
	Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error)
	Close() error
}

// MergeFields applies fields on top of a JSON object body.
func MergeFields(current []byte, fields map[string]interface{}) (map[string]interface{}, error) {
	doc := map[string]interface{}{}
	if len(current) > 0 {
		if err := json.Unmarshal(current, &doc); err != nil {
			return nil, fmt.Errorf("decode document for merge: %w", err)
		}
	}
	for k, v := range fields {
		doc[k] = v
	}
	return doc, nil
}

// Matches evaluates filters against a JSON object body.
func Matches(data []byte, filters []Filter) (bool, error) {
	if len(filters) == 0 {
		return true, nil
	}
	doc := map[string]interface{}{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return false, fmt.Errorf("decode document for filter: %w", err)
	}
	for _, f := range filters {
		want, err := normalize(f.Value)
		if err != nil {
			return false, err
		}
		got, ok := doc[f.Field]
		if !ok {
			return false, nil
		}
		if !compare(got, f.Op, want) {
			return false, nil
		}
	}
	return true, nil
}

// normalize gives filter values the same dynamic types json.Unmarshal yields.
func normalize(v interface{}) (interface{}, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode filter value: %w", err)
	}
	var out interface{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func compare(got interface{}, op Op, want interface{}) bool {
	if op == OpArrayContains {
		arr, ok := got.([]interface{})
		if !ok {
			return false
		}
		for _, item := range arr {
			if item == want {
				return true
			}
		}
		return false
	}

	switch g := got.(type) {
	case string:
		w, ok := want.(string)
		if !ok {
			return false
		}
		switch op {
		case OpEq:
			return g == w
		case OpGte:
			return g >= w
		case OpLte:
			return g <= w
		}
	case float64:
		w, ok := want.(float64)
		if !ok {
			return false
		}
		switch op {
		case OpEq:
			return g == w
		case OpGte:
			return g >= w
		case OpLte:
			return g <= w
		}
	case bool:
		w, ok := want.(bool)
		return ok && op == OpEq && g == w
	}
	return false
}
