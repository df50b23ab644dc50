// Package provider holds data providers for the timeline widget: in-memory
// records, record files and SQL queries.
package provider

import (
	"context"
	"errors"
	"fmt"
	"os"

	"simtl/internal/model"
)

// Slice serves a fixed set of records, optionally one page at a time.
type Slice struct {
	records []model.Record

	// PageSize limits Models to one page; zero serves everything.
	PageSize int
	// Page is the zero-based page served when PageSize is set.
	Page int
}

// NewSlice returns a provider over records.
func NewSlice(records []model.Record) *Slice {
	return &Slice{records: records}
}

// Len is the total number of records across all pages.
func (s *Slice) Len() int { return len(s.records) }

// PageCount is the number of pages, at least 1.
func (s *Slice) PageCount() int {
	if s.PageSize <= 0 || len(s.records) == 0 {
		return 1
	}
	return (len(s.records) + s.PageSize - 1) / s.PageSize
}

// Models returns copies of the current page's records.
func (s *Slice) Models(ctx context.Context) ([]model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	recs := s.records
	if s.PageSize > 0 {
		from := s.Page * s.PageSize
		if s.Page < 0 || from >= len(recs) {
			return []model.Record{}, nil
		}
		to := min(from+s.PageSize, len(recs))
		recs = recs[from:to]
	}

	out := make([]model.Record, len(recs))
	for i, r := range recs {
		c := make(model.Record, len(r))
		for k, v := range r {
			c[k] = v
		}
		out[i] = c
	}
	return out, nil
}

// LoadFile reads a YAML (or JSON) list of records. Unquoted YAML timestamps
// are kept as strings, which the widget parses in its location.
func LoadFile(path string) (*Slice, error) {
	if path == "" {
		return nil, errors.New("provider: record file path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw []map[string]any
	if err := model.DecodeYAML(data, &raw); err != nil {
		return nil, fmt.Errorf("provider: parse %s: %w", path, err)
	}
	records := make([]model.Record, 0, len(raw))
	for _, r := range raw {
		records = append(records, model.Record(r))
	}
	return NewSlice(records), nil
}
