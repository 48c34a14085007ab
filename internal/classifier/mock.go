package classifier

import (
	"context"
)

// Mock is a classifier test double with a canned result.
type Mock struct {
	Result *Classification
	Err    error
	Calls  int
}

// Classify returns the canned result or error and counts the call.
func (m *Mock) Classify(ctx context.Context, text string) (*Classification, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Result, nil
}
