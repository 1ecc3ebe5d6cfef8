package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/harlibot/harlibot/internal/document"
)

func testDoc(content string) document.RawDocument {
	url := "https://www.harlingentx.gov/services/water-billing"
	return document.RawDocument{
		URL:     url,
		URLHash: document.HashURL(url),
		Title:   "Water Billing",
		Content: content,
		Metadata: document.Metadata{
			Category: "services",
			Language: document.English,
		},
	}
}

func TestChunkDocument_IDsAndPositions(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 60; i++ {
		fmt.Fprintf(&b, "Paragraph %d about utility payments and customer accounts.\n\n", i)
	}
	doc := testDoc(b.String())

	c := New()
	chunks := c.ChunkDocument(doc)
	if len(chunks) < 3 {
		t.Fatalf("Expected at least 3 chunks, got %d", len(chunks))
	}

	for i, chunk := range chunks {
		wantID := fmt.Sprintf("%s-chunk-%d", doc.URLHash, i)
		if chunk.ID != wantID {
			t.Errorf("Chunk %d ID: expected %q, got %q", i, wantID, chunk.ID)
		}
		if chunk.DocumentID != doc.URLHash {
			t.Errorf("Chunk %d DocumentID: expected %q, got %q", i, doc.URLHash, chunk.DocumentID)
		}
		if chunk.ChunkIndex != i {
			t.Errorf("Chunk %d index: expected %d, got %d", i, i, chunk.ChunkIndex)
		}
		if chunk.TotalChunks != len(chunks) {
			t.Errorf("Chunk %d TotalChunks: expected %d, got %d", i, len(chunks), chunk.TotalChunks)
		}
	}

	if chunks[0].Metadata.ChunkPosition != document.PositionStart {
		t.Errorf("First chunk position: expected start, got %q", chunks[0].Metadata.ChunkPosition)
	}
	if last := chunks[len(chunks)-1]; last.Metadata.ChunkPosition != document.PositionEnd {
		t.Errorf("Last chunk position: expected end, got %q", last.Metadata.ChunkPosition)
	}
	for _, chunk := range chunks[1 : len(chunks)-1] {
		if chunk.Metadata.ChunkPosition != document.PositionMiddle {
			t.Errorf("Chunk %d position: expected middle, got %q", chunk.ChunkIndex, chunk.Metadata.ChunkPosition)
		}
	}
}

// TestChunkDocument_SingleChunkIsStart verifies the index-0 rule wins when a
// document fits in one chunk.
func TestChunkDocument_SingleChunkIsStart(t *testing.T) {
	doc := testDoc("Pay your water bill online.")
	chunks := New().ChunkDocument(doc)
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Metadata.ChunkPosition != document.PositionStart {
		t.Errorf("Single chunk position: expected start, got %q", chunks[0].Metadata.ChunkPosition)
	}
	if chunks[0].TotalChunks != 1 {
		t.Errorf("TotalChunks: expected 1, got %d", chunks[0].TotalChunks)
	}
}

func TestChunkDocument_Deterministic(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, "Section %d describes permit requirements in detail.\n\n", i)
	}
	doc := testDoc(b.String())

	c := New()
	first := c.ChunkDocument(doc)
	for run := 0; run < 3; run++ {
		again := c.ChunkDocument(doc)
		if len(again) != len(first) {
			t.Fatalf("Run %d: %d chunks, first run %d", run, len(again), len(first))
		}
		for i := range again {
			if again[i].ID != first[i].ID || again[i].Content != first[i].Content {
				t.Fatalf("Run %d chunk %d differs from first run", run, i)
			}
		}
	}
}

func TestChunkDocument_ContactAnnotations(t *testing.T) {
	doc := testDoc("Call the Water Department at (956) 216-5000 or email " +
		"utilities@harlingentx.gov with questions. The office is located at " +
		"502 E Tyler Avenue and is open weekdays.")
	chunks := New().ChunkDocument(doc)
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}

	md := chunks[0].Metadata
	if !md.HasContactInfo {
		t.Error("Expected HasContactInfo for text with phone and email")
	}
	if !md.HasAddress {
		t.Error("Expected HasAddress for text with a street address")
	}
	if md.WordCount == 0 {
		t.Error("Expected nonzero WordCount")
	}

	entities := chunks[0].Entities
	if !containsEntity(entities, "(956) 216-5000") {
		t.Errorf("Expected phone entity, got %v", entities)
	}
	if !containsEntity(entities, "utilities@harlingentx.gov") {
		t.Errorf("Expected email entity, got %v", entities)
	}
}

func TestChunkDocument_NoContactInfo(t *testing.T) {
	doc := testDoc("The park is open from dawn to dusk every day of the year.")
	chunks := New().ChunkDocument(doc)
	md := chunks[0].Metadata
	if md.HasContactInfo {
		t.Error("Expected no contact info")
	}
	if md.HasAddress {
		t.Error("Expected no address")
	}
	if len(chunks[0].Entities) != 0 {
		t.Errorf("Expected no entities, got %v", chunks[0].Entities)
	}
}

func TestExtractEntities_DedupFirstSeen(t *testing.T) {
	text := "Call (956) 216-5000 today. Again: (956) 216-5000. " +
		"The Department of Public Works handles streets."
	entities := extractEntities(text)
	count := 0
	for _, e := range entities {
		if e == "(956) 216-5000" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Expected phone deduplicated to 1 occurrence, got %d", count)
	}
	found := false
	for _, e := range entities {
		if strings.HasPrefix(e, "Department of Public Works") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected department entity, got %v", entities)
	}
}

func TestExtractKeywords(t *testing.T) {
	keywords := extractKeywords("Report a water leak or a trash pickup problem.", "services")
	if len(keywords) == 0 || keywords[0] != "services" {
		t.Fatalf("Expected category first, got %v", keywords)
	}
	if !containsEntity(keywords, "water") || !containsEntity(keywords, "trash") {
		t.Errorf("Expected water and trash keywords, got %v", keywords)
	}
	if containsEntity(keywords, "police") {
		t.Errorf("Unexpected keyword police in %v", keywords)
	}
}

func TestChunkDocument_Breadcrumb(t *testing.T) {
	chunks := New().ChunkDocument(testDoc("Short content."))
	want := "Home > Services > Water Billing"
	if chunks[0].Breadcrumb != want {
		t.Errorf("Breadcrumb: expected %q, got %q", want, chunks[0].Breadcrumb)
	}
}

func containsEntity(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
