package storage

import "github.com/harlibot/harlibot/internal/document"

// Result is one retrieved chunk. Score is cosine similarity (equivalently
// 1 - cosine distance), so ordering is descending score; ties keep the
// store's original return order.
type Result struct {
	ID       string
	Content  string
	Metadata document.ChunkMetadata
	Score    float64
}

// Payload field names persisted with every index entry. The flattened
// metadata subset is what retrieval filters and the chat handler's source
// extraction read back.
const (
	fieldChunkID        = "chunkId"
	fieldContent        = "content"
	fieldSourceURL      = "sourceUrl"
	fieldSourceTitle    = "sourceTitle"
	fieldCategory       = "category"
	fieldLanguage       = "language"
	fieldChunkPosition  = "chunkPosition"
	fieldWordCount      = "wordCount"
	fieldHasContactInfo = "hasContactInfo"
	fieldHasAddress     = "hasAddress"
)
