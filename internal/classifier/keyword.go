package classifier

import (
	"context"
	"fmt"
	"strings"
)

// Keyword is a local fallback classifier: cheap keyword matching, no
// model, no network. Used when no classifier service is configured.
type Keyword struct {
	vocab map[string][]string
}

// NewKeyword creates the keyword classifier with the built-in vocabulary.
func NewKeyword() *Keyword {
	return &Keyword{vocab: map[string][]string{
		"coding":    {"code", "function", "bug", "refactor", "compile", "implement", "debug", "test"},
		"reasoning": {"plan", "analyze", "reason", "decide", "compare", "evaluate", "think"},
		"scraping":  {"scrape", "crawl", "fetch", "extract", "website", "page", "html"},
		"training":  {"train", "fine-tune", "finetune", "dataset", "model", "epoch", "learn"},
		"memory":    {"remember", "recall", "forget", "memory", "stored", "note"},
	}}
}

// Classify scores each task type by keyword hits and returns the best.
// Confidence grows with hit count but never reaches the explicit-signal
// level of 0.9. No hits is an error: the caller falls back.
func (k *Keyword) Classify(ctx context.Context, text string) (*Classification, error) {
	lowered := strings.ToLower(text)

	best := ""
	bestHits := 0
	for taskType, words := range k.vocab {
		hits := 0
		for _, w := range words {
			if strings.Contains(lowered, w) {
				hits++
			}
		}
		if hits > bestHits || (hits == bestHits && hits > 0 && taskType < best) {
			best = taskType
			bestHits = hits
		}
	}

	if bestHits == 0 {
		return nil, fmt.Errorf("no keyword match")
	}

	confidence := 0.5 + 0.1*float64(bestHits)
	if confidence > 0.85 {
		confidence = 0.85
	}
	return &Classification{TaskType: best, Confidence: confidence}, nil
}
