// Package models defines the data shapes shared by the terminal agent's
// offline queue, cache, and data-access façade: schemaless records, queued
// mutations, cached snapshots, and the small query DSL supported by the
// document store.
package models

// Record is one schemaless document: arbitrary fields keyed by name, with
// a unique "id" field. This mirrors the remote document store's row shape.
type Record map[string]any

// ID returns the record's "id" field, or "" when absent or not a string.
func (r Record) ID() string {
	id, _ := r["id"].(string)
	return id
}

// WithID returns a shallow copy of the record with the "id" field set.
func (r Record) WithID(id string) Record {
	out := make(Record, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	out["id"] = id
	return out
}

// Clone returns a shallow copy of the record. Nested values are shared.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
