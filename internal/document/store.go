package document

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Artifact file names for the offline pipeline stages. Each stage reads its
// predecessor's file and writes its own, so stages can be re-run in
// isolation.
const (
	RawFile      = "raw/documents.json"
	ChunksFile   = "processed/chunks.json"
	EmbeddedFile = "embeddings/vectors.json"
)

// SaveJSON writes v as indented JSON under dataDir, creating parent
// directories as needed.
func SaveJSON(dataDir, name string, v any) error {
	path := filepath.Join(dataDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// LoadJSON reads an artifact file under dataDir into v.
func LoadJSON(dataDir, name string, v any) error {
	path := filepath.Join(dataDir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", path, err)
	}
	return nil
}

// LoadDocuments reads the raw document artifact.
func LoadDocuments(dataDir string) ([]RawDocument, error) {
	var docs []RawDocument
	if err := LoadJSON(dataDir, RawFile, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// LoadChunks reads the processed chunk artifact.
func LoadChunks(dataDir string) ([]Chunk, error) {
	var chunks []Chunk
	if err := LoadJSON(dataDir, ChunksFile, &chunks); err != nil {
		return nil, err
	}
	return chunks, nil
}

// LoadEmbedded reads the embedded chunk artifact.
func LoadEmbedded(dataDir string) ([]EmbeddedChunk, error) {
	var embedded []EmbeddedChunk
	if err := LoadJSON(dataDir, EmbeddedFile, &embedded); err != nil {
		return nil, err
	}
	return embedded, nil
}
