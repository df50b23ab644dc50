// Package ics feeds iCalendar subscriptions into the timeline: it fetches
// feeds with an on-disk HTTP cache, parses VEVENTs and expands recurrences
// into one record per occurrence.
package ics

import (
	"context"
	"errors"
	"time"

	appLog "simtl/internal/log"
	"simtl/internal/model"
)

// ProviderOptions configures the occurrence window of a Provider.
type ProviderOptions struct {
	// Location is the display zone; UTC when nil.
	Location *time.Location
	// Backfill and Horizon bound the window around now.
	Backfill time.Duration
	Horizon  time.Duration
	// MaxOccurrencesPerEvent caps each series, see ExpandConfig.
	MaxOccurrencesPerEvent int
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Provider serves the occurrences of a set of feeds as timeline records.
type Provider struct {
	fetcher *Fetcher
	sources []Source
	opts    ProviderOptions
}

// NewProvider returns a provider over sources. Zero Backfill and Horizon
// default to 7 and 90 days.
func NewProvider(fetcher *Fetcher, sources []Source, opts ProviderOptions) *Provider {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Backfill <= 0 {
		opts.Backfill = 7 * 24 * time.Hour
	}
	if opts.Horizon <= 0 {
		opts.Horizon = 90 * 24 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Provider{fetcher: fetcher, sources: sources, opts: opts}
}

// Models fetches every feed and returns its occurrences inside the window,
// sorted by start. It fails only when no feed could be read at all.
func (p *Provider) Models(ctx context.Context) ([]model.Record, error) {
	if len(p.sources) == 0 {
		return nil, errors.New("ics: no sources configured")
	}

	fetched, fetchErr := p.fetcher.FetchAll(ctx, p.sources)
	if len(fetched) == 0 {
		return nil, fetchErr
	}

	var events []ParsedEvent
	for _, res := range fetched {
		evs, err := ParseICS(res.Source, res.Body, p.opts.Location)
		if err != nil {
			appLog.Error("ics parse failed", err, "id", res.Source.ID)
			continue
		}
		events = append(events, evs...)
	}

	now := p.opts.Now()
	expanded, err := ExpandOccurrences(events, ExpandConfig{
		DisplayLocation:        p.opts.Location,
		RangeStart:             now.Add(-p.opts.Backfill),
		RangeEnd:               now.Add(p.opts.Horizon),
		MaxOccurrencesPerEvent: p.opts.MaxOccurrencesPerEvent,
	})
	if err != nil {
		return nil, err
	}

	records := make([]model.Record, len(expanded.Occurrences))
	for i, occ := range expanded.Occurrences {
		records[i] = occ.Record()
	}
	appLog.Info("ics records ready", "sources", len(fetched), "events", len(events), "records", len(records))
	return records, nil
}
