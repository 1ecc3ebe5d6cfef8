// Package chunker splits cleaned document text into overlapping retrieval
// chunks and annotates them with the features the index filters on.
package chunker

import (
	"strings"
	"unicode/utf8"
)

// Default splitting parameters: chunks target 512 characters with a
// 128-character overlap shared between neighbors.
const (
	DefaultChunkSize    = 512
	DefaultChunkOverlap = 128
)

// defaultSeparators is the hierarchical preference order: paragraph breaks,
// line breaks, sentence-ending punctuation, clause punctuation, spaces.
var defaultSeparators = []string{"\n\n", "\n", ". ", "! ", "? ", "; ", ", ", " "}

// Splitter is a recursive character splitter. Separators are retained in the
// output so adjacent chunks share boundary context, and splitting is fully
// deterministic for identical input.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// NewSplitter creates a splitter with the given size and overlap; zero or
// negative values select the defaults.
func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap <= 0 {
		chunkOverlap = DefaultChunkOverlap
	}
	return &Splitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   defaultSeparators,
	}
}

// Split breaks text into chunks of at most chunkSize characters, preferring
// to cut at the earliest separator in the hierarchy that appears in the
// text, and overlapping consecutive chunks by chunkOverlap characters.
func (s *Splitter) Split(text string) []string {
	return s.splitRecursive(text, s.separators)
}

func (s *Splitter) splitRecursive(text string, separators []string) []string {
	// Pick the first separator that occurs in the text; the last one is the
	// fallback.
	separator := separators[len(separators)-1]
	var next []string
	for i, sep := range separators {
		if strings.Contains(text, sep) {
			separator = sep
			next = separators[i+1:]
			break
		}
	}

	// SplitAfter keeps the separator attached to the preceding piece.
	pieces := strings.SplitAfter(text, separator)

	var final []string
	var good []string
	for _, piece := range pieces {
		if piece == "" {
			continue
		}
		if utf8.RuneCountInString(piece) < s.chunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			final = append(final, s.merge(good)...)
			good = nil
		}
		if len(next) == 0 {
			// No finer separator left; emit oversized piece as-is.
			final = append(final, strings.TrimSpace(piece))
		} else {
			final = append(final, s.splitRecursive(piece, next)...)
		}
	}
	if len(good) > 0 {
		final = append(final, s.merge(good)...)
	}
	return final
}

// merge greedily packs small pieces into chunks up to chunkSize, then slides
// the window back so the next chunk starts with up to chunkOverlap
// characters of shared context.
func (s *Splitter) merge(pieces []string) []string {
	var chunks []string
	var current []string
	total := 0

	flush := func() {
		if chunk := strings.TrimSpace(strings.Join(current, "")); chunk != "" {
			chunks = append(chunks, chunk)
		}
	}

	for _, piece := range pieces {
		length := utf8.RuneCountInString(piece)
		if total+length > s.chunkSize && len(current) > 0 {
			flush()
			// Retain trailing pieces as overlap for the next chunk.
			for total > s.chunkOverlap || (total+length > s.chunkSize && total > 0) {
				total -= utf8.RuneCountInString(current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += length
	}
	flush()
	return chunks
}
