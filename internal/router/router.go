// Package router selects the capability node for an incoming task.
// The supervisor is stateless between calls: all learning happens through
// the evolution cycle updating edge weights behind it.
package router

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/myelinproj/myelin/internal/classifier"
)

// ErrValidation is returned for malformed routing requests.
var ErrValidation = errors.New("invalid routing request")

// TaskUnknown is the sentinel task type that triggers classification.
const TaskUnknown = "unknown"

// Confidence levels for the non-classifier paths.
const (
	confidenceExplicit = 0.9 // declared task type, trusted
	confidenceFallback = 0.3 // classifier unavailable or no description
)

// fallbackTaskType is where unclassifiable tasks go.
const fallbackTaskType = "chat"

// Decision is the outcome of one routing call.
type Decision struct {
	Route      string  `json:"route"` // target node id
	TaskType   string  `json:"task_type"`
	Confidence float64 `json:"confidence"`
	LatencyMs  int64   `json:"latency_ms"`
	Trace      *Trace  `json:"trace,omitempty"`
}

// Supervisor dispatches tasks to capability nodes.
type Supervisor struct {
	Classifier classifier.Client
	Timeout    time.Duration
	Metrics    *Metrics
}

// New creates a Supervisor. The classifier may be nil; routing then always
// degrades unknown task types to the fallback.
func New(c classifier.Client) *Supervisor {
	return &Supervisor{
		Classifier: c,
		Timeout:    5 * time.Second,
	}
}

// Route resolves a task to a target node. A known task type is trusted
// outright; an unknown one is classified when a description is available.
// Classifier failures are degraded to the fallback route, never surfaced:
// routing must not block on classifier availability.
func (s *Supervisor) Route(ctx context.Context, stationID, taskType, description string) (*Decision, error) {
	if stationID == "" {
		return nil, fmt.Errorf("station id required: %w", ErrValidation)
	}

	start := time.Now()
	trace := NewTrace()

	resolved, confidence := s.resolveTaskType(ctx, taskType, description)
	route := ResolveRoute(stationID, resolved)

	latency := time.Since(start)
	trace.Append("routing-supervisor", latency.Milliseconds())

	if s.Metrics != nil {
		s.Metrics.ObserveDecision(resolved, latency)
	}

	return &Decision{
		Route:      route,
		TaskType:   resolved,
		Confidence: confidence,
		LatencyMs:  latency.Milliseconds(),
		Trace:      trace,
	}, nil
}

func (s *Supervisor) resolveTaskType(ctx context.Context, taskType, description string) (string, float64) {
	if taskType != "" && taskType != TaskUnknown {
		return taskType, confidenceExplicit
	}

	if description == "" || s.Classifier == nil {
		return fallbackTaskType, confidenceFallback
	}

	cctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	result, err := s.Classifier.Classify(cctx, description)
	if err != nil {
		log.Printf("routing: classifier failed, falling back to %s: %v", fallbackTaskType, err)
		return fallbackTaskType, confidenceFallback
	}
	return result.TaskType, result.Confidence
}
