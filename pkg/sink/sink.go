// Package sink persists the output document of a crawl run.
package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"diynow/pkg/domain"
)

// ErrNoResults is returned by readers when no run has been written yet.
var ErrNoResults = errors.New("sink: no results")

// Sink receives the output of one crawl run. Reset is called when a run
// starts so a stale document is never mistaken for the new one; Write
// replaces the whole document.
type Sink interface {
	Reset(ctx context.Context) error
	Write(ctx context.Context, records []domain.ProjectRecord) error
}

// Reader returns the last document a sink wrote.
type Reader interface {
	Read(ctx context.Context) ([]domain.ProjectRecord, error)
}

// encode renders records as a JSON array; an empty run is [] rather than null.
func encode(records []domain.ProjectRecord) ([]byte, error) {
	if records == nil {
		records = []domain.ProjectRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal records: %w", err)
	}
	return data, nil
}

func decode(data []byte) ([]domain.ProjectRecord, error) {
	var records []domain.ProjectRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal records: %w", err)
	}
	return records, nil
}
