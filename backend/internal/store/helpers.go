package store

import (
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ============================================================================
// Helper Functions
// ============================================================================

// GetString reads a string field, falling back to defaultValue when the
// field is missing or not a string
func GetString(doc Document, key, defaultValue string) string {
	val, ok := doc[key]
	if !ok || val == nil {
		return defaultValue
	}
	if str, ok := val.(string); ok {
		return str
	}
	return defaultValue
}

// FirstOf returns the value of the first key present in the document
func FirstOf(doc Document, keys ...string) (interface{}, bool) {
	for _, key := range keys {
		if val, ok := doc[key]; ok {
			return val, true
		}
	}
	return nil, false
}

func getDocumentFromRecord(record *neo4j.Record, key string) Document {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return nil
	}
	if m, ok := val.(map[string]interface{}); ok {
		return Document(m)
	}
	return nil
}

func toParams(docs []Document) []interface{} {
	out := make([]interface{}, 0, len(docs))
	for _, doc := range docs {
		out = append(out, map[string]interface{}(doc))
	}
	return out
}
