package extract

import (
	"strings"
	"testing"

	"github.com/harlibot/harlibot/internal/document"
)

const testDomain = "harlingentx.gov"

func longParagraph() string {
	return strings.Repeat("The Water Department serves residents with billing and utility services. ", 4)
}

func TestFromHTML_Basic(t *testing.T) {
	html := `<html><head><title>Fallback Title</title></head><body>
<nav>Home | Services | Contact</nav>
<main>
<h1>Water Billing</h1>
<p>` + longParagraph() + `</p>
<a href="https://www.harlingentx.gov/services/trash">Trash</a>
<a href="https://example.com/other">External</a>
</main>
<footer>Copyright City of Harlingen</footer>
</body></html>`

	doc, err := FromHTML(strings.NewReader(html), "https://www.harlingentx.gov/services/water-billing", testDomain)
	if err != nil {
		t.Fatalf("FromHTML failed: %v", err)
	}
	if doc == nil {
		t.Fatal("Expected a document, got nil")
	}

	if doc.Title != "Water Billing" {
		t.Errorf("Title: expected 'Water Billing', got %q", doc.Title)
	}
	if !strings.Contains(doc.Content, "Water Department serves residents") {
		t.Errorf("Content missing main text: %q", doc.Content)
	}
	if strings.Contains(doc.Content, "Copyright") {
		t.Error("Content should not include footer text")
	}
	if strings.Contains(doc.Content, "Home | Services") {
		t.Error("Content should not include nav text")
	}
	if doc.URLHash != document.HashURL(doc.URL) {
		t.Errorf("URLHash mismatch: %q", doc.URLHash)
	}
	if doc.Metadata.Category != "services" {
		t.Errorf("Category: expected 'services', got %q", doc.Metadata.Category)
	}
	if len(doc.Metadata.Tags) != 2 || doc.Metadata.Tags[0] != "services" || doc.Metadata.Tags[1] != "water-billing" {
		t.Errorf("Tags: expected [services water-billing], got %v", doc.Metadata.Tags)
	}
	if doc.Metadata.Language != document.English {
		t.Errorf("Language: expected en, got %q", doc.Metadata.Language)
	}
	if len(doc.Links) != 1 || !strings.Contains(doc.Links[0], "trash") {
		t.Errorf("Links: expected only the same-domain link, got %v", doc.Links)
	}
}

func TestFromHTML_TitleFallbacks(t *testing.T) {
	html := `<html><head><title>Page Title</title></head><body><main><p>` +
		longParagraph() + `</p></main></body></html>`
	doc, err := FromHTML(strings.NewReader(html), "https://www.harlingentx.gov/page", testDomain)
	if err != nil || doc == nil {
		t.Fatalf("FromHTML failed: doc=%v err=%v", doc, err)
	}
	if doc.Title != "Page Title" {
		t.Errorf("Expected title element fallback, got %q", doc.Title)
	}

	html = `<html><body><main><p>` + longParagraph() + `</p></main></body></html>`
	doc, err = FromHTML(strings.NewReader(html), "https://www.harlingentx.gov/page", testDomain)
	if err != nil || doc == nil {
		t.Fatalf("FromHTML failed: doc=%v err=%v", doc, err)
	}
	if doc.Title != "Untitled" {
		t.Errorf("Expected 'Untitled' fallback, got %q", doc.Title)
	}
}

// TestFromHTML_TooShort verifies navigation shells are dropped without error.
func TestFromHTML_TooShort(t *testing.T) {
	html := `<html><body><main><p>Coming soon.</p></main></body></html>`
	doc, err := FromHTML(strings.NewReader(html), "https://www.harlingentx.gov/stub", testDomain)
	if err != nil {
		t.Fatalf("FromHTML failed: %v", err)
	}
	if doc != nil {
		t.Errorf("Expected nil for short content, got %+v", doc)
	}
}

func TestFromHTML_BodyFallbackWhenNoMain(t *testing.T) {
	html := `<html><body><p>` + longParagraph() + `</p></body></html>`
	doc, err := FromHTML(strings.NewReader(html), "https://www.harlingentx.gov/plain", testDomain)
	if err != nil || doc == nil {
		t.Fatalf("FromHTML failed: doc=%v err=%v", doc, err)
	}
	if !strings.Contains(doc.Content, "Water Department") {
		t.Errorf("Expected body fallback content, got %q", doc.Content)
	}
}

func TestFromHTML_RootPageCategory(t *testing.T) {
	html := `<html><body><main><p>` + longParagraph() + `</p></main></body></html>`
	doc, err := FromHTML(strings.NewReader(html), "https://www.harlingentx.gov/", testDomain)
	if err != nil || doc == nil {
		t.Fatalf("FromHTML failed: doc=%v err=%v", doc, err)
	}
	if doc.Metadata.Category != "general" {
		t.Errorf("Category: expected 'general' for root page, got %q", doc.Metadata.Category)
	}
	if len(doc.Metadata.Tags) != 0 {
		t.Errorf("Tags: expected none for root page, got %v", doc.Metadata.Tags)
	}
}

func TestFromHTML_SpanishPage(t *testing.T) {
	spanish := strings.Repeat("La ciudad ofrece los servicios de agua para los residentes "+
		"que viven en el condado y las facturas del agua se pagan por internet. ", 3)
	html := `<html><body><main><h1>Servicios de Agua</h1><p>` + spanish + `</p></main></body></html>`
	doc, err := FromHTML(strings.NewReader(html), "https://www.harlingentx.gov/es/servicios", testDomain)
	if err != nil || doc == nil {
		t.Fatalf("FromHTML failed: doc=%v err=%v", doc, err)
	}
	if doc.Metadata.Language != document.Spanish {
		t.Errorf("Language: expected es, got %q", doc.Metadata.Language)
	}
}
