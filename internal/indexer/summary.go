package indexer

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/harlibot/harlibot/internal/document"
)

// LogSummary reports chunk statistics at the end of the processing stage:
// language distribution, top categories, contact-info coverage, and average
// word count.
func LogSummary(chunks []document.Chunk, logger *slog.Logger) {
	if len(chunks) == 0 {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}

	byLanguage := make(map[document.Language]int)
	byCategory := make(map[string]int)
	withContact := 0
	totalWords := 0
	for _, c := range chunks {
		byLanguage[c.Metadata.Language]++
		byCategory[c.Metadata.Category]++
		if c.Metadata.HasContactInfo {
			withContact++
		}
		totalWords += c.Metadata.WordCount
	}

	type catCount struct {
		name  string
		count int
	}
	cats := make([]catCount, 0, len(byCategory))
	for name, count := range byCategory {
		cats = append(cats, catCount{name, count})
	}
	sort.Slice(cats, func(i, j int) bool {
		if cats[i].count != cats[j].count {
			return cats[i].count > cats[j].count
		}
		return cats[i].name < cats[j].name
	})
	if len(cats) > 5 {
		cats = cats[:5]
	}
	top := make([]string, len(cats))
	for i, c := range cats {
		top[i] = fmt.Sprintf("%s=%d", c.name, c.count)
	}

	logger.Info("chunk statistics",
		"english", byLanguage[document.English],
		"spanish", byLanguage[document.Spanish],
		"top_categories", top,
		"contact_info_pct", fmt.Sprintf("%.1f", float64(withContact)/float64(len(chunks))*100),
		"avg_words", fmt.Sprintf("%.1f", float64(totalWords)/float64(len(chunks))),
	)
}
