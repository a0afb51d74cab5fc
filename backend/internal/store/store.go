// Package store provides document collections backed by Neo4j, SQLite or
// process memory. A document is a flat map of field name to value; the
// graph snapshot uses one collection for concepts and one for associations.
package store

import (
	"context"
	"errors"
)

// Collections used by the graph snapshot
const (
	NodesCollection = "graph_data.nodes"
	EdgesCollection = "graph_data.edges"
)

// ErrUnknownCollection is returned by backends that only serve known collections
var ErrUnknownCollection = errors.New("unknown collection")

// Document is one stored record
type Document map[string]interface{}

// Tx is the write side of a DocumentStore, valid only inside Write
type Tx interface {
	// DeleteAll removes every document of a collection
	DeleteAll(ctx context.Context, collection string) error
	// Insert appends documents to a collection
	Insert(ctx context.Context, collection string, docs ...Document) error
}

// DocumentStore persists documents grouped by collection
type DocumentStore interface {
	// Write runs fn as one unit: either every change made through tx is
	// kept, or none is. An error from fn is returned unchanged.
	Write(ctx context.Context, fn func(tx Tx) error) error

	// Find returns every document of a collection. Backends that keep
	// insertion order return documents in that order.
	Find(ctx context.Context, collection string) ([]Document, error)

	// Close releases the underlying connection
	Close(ctx context.Context) error
}

// Clone returns a shallow copy of the document. Slice values are copied one
// level deep so callers cannot alias stored lists.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		switch vv := v.(type) {
		case []string:
			cp := make([]string, len(vv))
			copy(cp, vv)
			out[k] = cp
		case []interface{}:
			cp := make([]interface{}, len(vv))
			copy(cp, vv)
			out[k] = cp
		default:
			out[k] = v
		}
	}
	return out
}
