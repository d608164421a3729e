// Package vector holds the store-agnostic types exchanged with the vector
// index. Concrete store clients live in subpackages.
package vector

// Document is the unit stored in the index: an embedded searchable text plus
// the full service record metadata, stored verbatim.
type Document struct {
	ID        string
	Embedding []float32
	Text      string
	Locality  string
	Category  string
	Metadata  map[string]any
}

// SearchHit is one nearest-neighbor result. Hits arrive in ascending
// distance order, closest first.
type SearchHit struct {
	ID       string
	Document string
	Distance float64
	Metadata map[string]any
}
