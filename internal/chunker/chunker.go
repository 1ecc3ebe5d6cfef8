package chunker

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/harlibot/harlibot/internal/document"
)

var (
	phonePattern   = regexp.MustCompile(`\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
	emailPattern   = regexp.MustCompile(`[\w.+-]+@[\w.-]+\.\w+`)
	deptPattern    = regexp.MustCompile(`(Department of|Office of) [\w\s]+`)
	addressPattern = regexp.MustCompile(`(?i)\d+\s+[\w\s]+(Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Drive|Dr|Lane|Ln)`)
)

// serviceKeywords is the fixed city-service vocabulary matched by substring.
var serviceKeywords = []string{
	"water", "trash", "utility", "permit", "license", "council",
	"police", "fire", "park", "recreation", "library", "health",
}

// Chunker turns raw documents into annotated chunks.
type Chunker struct {
	splitter *Splitter
}

// New creates a chunker with default splitting parameters.
func New() *Chunker {
	return &Chunker{splitter: NewSplitter(0, 0)}
}

// ChunkDocument splits a document's content and annotates each chunk.
// Chunk ids are {urlHash}-chunk-{index}, deterministic across re-runs so
// downstream re-embedding and re-indexing are idempotent. A single-chunk
// document is tagged "start" (the index-0 rule wins over the last-index
// rule).
func (c *Chunker) ChunkDocument(doc document.RawDocument) []document.Chunk {
	texts := c.splitter.Split(doc.Content)
	breadcrumb := breadcrumbFor(doc.URL)

	chunks := make([]document.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = document.Chunk{
			ID:          fmt.Sprintf("%s-chunk-%d", doc.URLHash, i),
			DocumentID:  doc.URLHash,
			Content:     text,
			ChunkIndex:  i,
			TotalChunks: len(texts),
			Breadcrumb:  breadcrumb,
			Entities:    extractEntities(text),
			Keywords:    extractKeywords(text, doc.Metadata.Category),
			Metadata: document.ChunkMetadata{
				SourceURL:      doc.URL,
				SourceTitle:    doc.Title,
				Category:       doc.Metadata.Category,
				Language:       doc.Metadata.Language,
				ChunkPosition:  position(i, len(texts)),
				WordCount:      len(strings.Fields(text)),
				HasContactInfo: phonePattern.MatchString(text) || emailPattern.MatchString(text),
				HasAddress:     addressPattern.MatchString(text),
			},
		}
	}
	return chunks
}

func position(index, total int) document.ChunkPosition {
	switch {
	case index == 0:
		return document.PositionStart
	case index == total-1:
		return document.PositionEnd
	default:
		return document.PositionMiddle
	}
}

// extractEntities collects phone numbers, email addresses, and
// "Department of ..." / "Office of ..." mentions, deduplicated in
// first-seen order.
func extractEntities(text string) []string {
	seen := make(map[string]bool)
	var entities []string
	add := func(matches []string) {
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				entities = append(entities, m)
			}
		}
	}
	add(phonePattern.FindAllString(text, -1))
	add(emailPattern.FindAllString(text, -1))
	add(deptPattern.FindAllString(text, -1))
	return entities
}

// extractKeywords returns the document category plus every service-domain
// term found in the text.
func extractKeywords(text, category string) []string {
	keywords := []string{category}
	lower := strings.ToLower(text)
	for _, kw := range serviceKeywords {
		if kw != category && strings.Contains(lower, kw) {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}

func breadcrumbFor(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "Home"
	}
	return document.Breadcrumb(parsed.Path)
}
