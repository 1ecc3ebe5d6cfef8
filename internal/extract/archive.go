package extract

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/harlibot/harlibot/internal/document"
)

// MaxArchiveDepth bounds the recursive walk through the archive directory.
const MaxArchiveDepth = 4

// skipPatterns match auto-generated detail and listing pages that carry no
// durable service information.
var skipPatterns = []*regexp.Regexp{
	regexp.MustCompile(`agenda_detail`),
	regexp.MustCompile(`bid_detail`),
	regexp.MustCompile(`business_detail`),
	regexp.MustCompile(`news_detail`),
	regexp.MustCompile(`calendar`),
	regexp.MustCompile(`search`),
	regexp.MustCompile(`newslist`),
}

// Archive reads locally saved HTML pages and produces the same RawDocument
// set the live crawler would, deduplicated by URL hash (last write wins).
type Archive struct {
	root    string
	baseURL string
	domain  string
	logger  *slog.Logger

	// Run stats, reportable after Extract.
	Walked  int
	Skipped int
	Failed  int
}

// NewArchive creates an extractor rooted at dir. Derived document URLs are
// joined onto baseURL.
func NewArchive(dir, baseURL, domain string, logger *slog.Logger) *Archive {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archive{root: dir, baseURL: strings.TrimRight(baseURL, "/"), domain: domain, logger: logger}
}

// Extract walks the archive and returns the deduplicated document set,
// ordered by URL for run-to-run stability. Individual file failures are
// logged and skipped; only a broken walk aborts.
func (a *Archive) Extract() ([]document.RawDocument, error) {
	byHash := make(map[string]document.RawDocument)

	err := filepath.WalkDir(a.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(a.root, path)
		if relErr != nil {
			return relErr
		}
		if d.IsDir() {
			if strings.Count(rel, string(filepath.Separator)) >= MaxArchiveDepth {
				return fs.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".html") && !strings.HasSuffix(d.Name(), ".php") {
			return nil
		}
		a.Walked++
		if lowValue(rel) {
			a.Skipped++
			return nil
		}

		doc, err := a.extractFile(path, rel)
		if err != nil {
			a.Failed++
			a.logger.Warn("failed to extract archived page", "file", rel, "error", err)
			return nil
		}
		if doc == nil {
			a.Skipped++
			return nil
		}
		byHash[doc.URLHash] = *doc
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk archive %s: %w", a.root, err)
	}

	docs := make([]document.RawDocument, 0, len(byHash))
	for _, doc := range byHash {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].URL < docs[j].URL })

	a.logger.Info("archive extraction complete",
		"documents", len(docs), "walked", a.Walked, "skipped", a.Skipped, "failed", a.Failed)
	return docs, nil
}

func (a *Archive) extractFile(path, rel string) (*document.RawDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return FromHTML(f, a.urlFor(rel), a.domain)
}

// urlFor reconstructs the canonical page URL from the file's archive path:
// departments/water_billing.html -> {base}/departments/water/billing.
func (a *Archive) urlFor(rel string) string {
	p := rel
	p = strings.TrimSuffix(p, ".html")
	p = strings.TrimSuffix(p, ".php")
	p = strings.ReplaceAll(p, string(filepath.Separator), "/")
	p = strings.ReplaceAll(p, "_", "/")
	return a.baseURL + "/" + p
}

func lowValue(rel string) bool {
	for _, pattern := range skipPatterns {
		if pattern.MatchString(rel) {
			return true
		}
	}
	return false
}
