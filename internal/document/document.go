// Package document defines the data model shared by the offline ingestion
// pipeline and the query-time retrieval path: raw crawled pages, annotated
// chunks, and embedded chunks, plus the derivations (URL hashing, language
// detection, breadcrumbs) both acquisition paths apply.
package document

import (
	"strconv"
	"strings"
)

// Language identifies one of the two supported content languages.
type Language string

const (
	English Language = "en"
	Spanish Language = "es"
)

// Valid reports whether l is a supported language code.
func (l Language) Valid() bool {
	return l == English || l == Spanish
}

// RawDocument is one crawled or extracted page, cleaned to plain text.
// Documents are unique by URLHash; re-ingesting the same URL replaces the
// earlier copy.
type RawDocument struct {
	URL      string   `json:"url"`
	URLHash  string   `json:"urlHash"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
	Links    []string `json:"links"`
}

// Metadata carries per-document annotations derived at acquisition time.
type Metadata struct {
	Category  string   `json:"category"`
	Tags      []string `json:"tags"`
	Language  Language `json:"language"`
	ScrapedAt string   `json:"scrapedAt"`
}

// Chunk is a contiguous, overlapping slice of a document's content and the
// unit of retrieval. IDs are deterministic: {urlHash}-chunk-{index}.
type Chunk struct {
	ID          string        `json:"id"`
	DocumentID  string        `json:"documentId"`
	Content     string        `json:"content"`
	ChunkIndex  int           `json:"chunkIndex"`
	TotalChunks int           `json:"totalChunks"`
	Breadcrumb  string        `json:"breadcrumb"`
	Entities    []string      `json:"entities"`
	Keywords    []string      `json:"keywords"`
	Metadata    ChunkMetadata `json:"metadata"`
}

// ChunkPosition marks where a chunk sits within its document.
type ChunkPosition string

const (
	PositionStart  ChunkPosition = "start"
	PositionMiddle ChunkPosition = "middle"
	PositionEnd    ChunkPosition = "end"
)

// ChunkMetadata is the flattened annotation set persisted alongside each
// chunk in the vector index.
type ChunkMetadata struct {
	SourceURL      string        `json:"sourceUrl"`
	SourceTitle    string        `json:"sourceTitle"`
	Category       string        `json:"category"`
	Language       Language      `json:"language"`
	ChunkPosition  ChunkPosition `json:"chunkPosition"`
	WordCount      int           `json:"wordCount"`
	HasContactInfo bool          `json:"hasContactInfo"`
	HasAddress     bool          `json:"hasAddress"`
}

// EmbeddedChunk is a Chunk plus its embedding vector and the identifier of
// the model that produced it. All embeddings in one run share the same
// dimension and model.
type EmbeddedChunk struct {
	Chunk
	Embedding      []float32 `json:"embedding"`
	EmbeddingModel string    `json:"embeddingModel"`
}

// HashURL produces the stable short hash used as a document's primary key:
// the 32-bit polynomial string hash (h*31 + byte with wrap-around), absolute
// value, rendered base 36. Chunk ids derive from it, so it must never change.
func HashURL(url string) string {
	var h int32
	for _, c := range []byte(url) {
		h = h*31 + int32(c)
	}
	// Absolute value in 64 bits: negating MinInt32 in int32 overflows back
	// to a negative, which would leak a "-" into the id.
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 36)
}

// spanishIndicators are closed-class function words; counting them over the
// opening tokens separates Spanish from English page text reliably enough
// for a two-language corpus.
var spanishIndicators = map[string]bool{
	"el": true, "la": true, "los": true, "las": true, "de": true,
	"del": true, "y": true, "para": true, "con": true, "que": true,
	"en": true, "es": true, "por": true,
}

// DetectLanguage classifies text as Spanish when more than 10 of its first
// 100 tokens are Spanish function words, English otherwise.
func DetectLanguage(text string) Language {
	words := strings.Fields(strings.ToLower(text))
	if len(words) > 100 {
		words = words[:100]
	}
	score := 0
	for _, w := range words {
		if spanishIndicators[w] {
			score++
		}
	}
	if score > 10 {
		return Spanish
	}
	return English
}

// CleanText collapses runs of whitespace so extracted page text stores and
// chunks predictably.
func CleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Breadcrumb renders a human-readable path from a URL path, title-casing
// hyphenated segments: /public-works/water -> "Home > Public Works > Water".
func Breadcrumb(urlPath string) string {
	parts := []string{"Home"}
	for _, segment := range strings.Split(urlPath, "/") {
		if segment == "" {
			continue
		}
		words := strings.Split(segment, "-")
		for i, w := range words {
			if w == "" {
				continue
			}
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
		parts = append(parts, strings.Join(words, " "))
	}
	return strings.Join(parts, " > ")
}
