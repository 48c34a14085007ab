// Package classifier provides task-type classification for the routing
// supervisor. The classifier is an external collaborator: callers must
// treat any failure as "no classification" and degrade, never block.
package classifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/myelinproj/myelin/internal/config"
)

// ErrUnavailable wraps transport-level classifier failures.
var ErrUnavailable = errors.New("classifier unavailable")

// Classification is the classifier's verdict on a task description.
type Classification struct {
	TaskType   string  `json:"task_type"`
	Confidence float64 `json:"confidence"` // in [0,1]
}

// Client is the interface for classifier providers.
type Client interface {
	Classify(ctx context.Context, text string) (*Classification, error)
}

// NewClient creates a classifier client based on the config provider setting.
func NewClient(cfg config.ClassifierConfig) (Client, error) {
	switch cfg.Provider {
	case "http":
		if cfg.URL == "" {
			return nil, fmt.Errorf("http classifier requires a url")
		}
		return NewHTTP(cfg.URL, cfg.Timeout()), nil
	case "keyword", "":
		return NewKeyword(), nil
	default:
		return nil, fmt.Errorf("unknown classifier provider: %q", cfg.Provider)
	}
}
