package store

// Document is an ingested source document (e.g. one transcribed video).
// Ingestion and embedding of the corpus happen outside this service; the
// store only reads what the external pipeline wrote.
type Document struct {
	ID         int64
	UID        string
	Title      string
	Author     string
	SourceType string
	URL        string
	Content    string
	Metadata   string // JSON blob as written by the ingestion pipeline
	CreatedTs  int64
}

// CandidateMatch is one similarity-search hit, ranked by the backend.
// In hybrid mode ChunkID/ChunkContent identify the matched chunk and the
// remaining fields are denormalized from the parent document. In flat
// mode the document itself was matched and ChunkContent equals Content.
type CandidateMatch struct {
	ChunkID      int64
	ChunkContent string
	// Similarity is in [0.0, 1.0], higher is more similar.
	Similarity float64

	DocumentID  int64
	DocumentUID string
	Title       string
	Author      string
	SourceType  string
	URL         string
	Content     string
	Metadata    string
}

// VectorSearchOptions parameterizes a similarity search.
type VectorSearchOptions struct {
	Vector []float32
	Limit  int
}
