package analysis

import (
	"errors"
	"fmt"
)

var (
	// ErrAnalysisFailed is the only error class callers need to handle.
	// Every failure of Analyze wraps it.
	ErrAnalysisFailed = errors.New("analysis request failed")

	ErrInvalidResult = errors.New("invalid analysis result")
	ErrEmptyResponse = errors.New("empty response from provider")
	ErrEmptyImage    = errors.New("no image data")
)

func failed(stage string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrAnalysisFailed, stage, err)
}
