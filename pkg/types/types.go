// Package types holds the vector-store data types shared by the SDK clients
// and the document store.
package types

// VectorMatch represents a single match from a vector search
type VectorMatch struct {
	ID       string
	Score    float32
	Metadata map[string]any
}

// VectorRecord represents a stored vector fetched by id
type VectorRecord struct {
	ID       string
	Values   []float32
	Metadata map[string]any
}

// IndexStats describes the remote index configuration and contents
type IndexStats struct {
	Dimension        uint32
	TotalVectorCount uint32
	IndexFullness    float32
	Namespaces       map[string]uint32
}
