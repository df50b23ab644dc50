package cmd

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"simtl/internal/config"
	"simtl/internal/ics"
	"simtl/internal/provider"
	"simtl/internal/timeline"
)

// newProvider builds the data provider named by cfg.Source. The returned
// cleanup func is never nil.
func newProvider(ctx context.Context, cfg *config.Config) (timeline.DataProvider, func(), error) {
	noop := func() {}
	src := cfg.Source

	switch src.Type {
	case "file":
		p, err := provider.LoadFile(src.File)
		if err != nil {
			return nil, noop, err
		}
		p.PageSize, p.Page = src.PageSize, src.Page
		return p, noop, nil

	case "ics":
		loc, err := cfg.Widget.LoadLocation()
		if err != nil {
			return nil, noop, err
		}
		sources := make([]ics.Source, len(src.ICS))
		for i, s := range src.ICS {
			sources[i] = ics.Source{ID: s.ID, URL: s.URL}
		}
		backfill, horizon := src.Window()
		return ics.NewProvider(ics.NewFetcher(src.CacheDir, nil), sources, ics.ProviderOptions{
			Location: loc,
			Backfill: backfill,
			Horizon:  horizon,
		}), noop, nil

	case "postgres":
		pool, err := pgxpool.New(ctx, src.DSN)
		if err != nil {
			return nil, noop, fmt.Errorf("database connection failed: %w", err)
		}
		p, err := provider.NewPostgres(pool, src.Query)
		if err != nil {
			pool.Close()
			return nil, noop, err
		}
		return p, pool.Close, nil
	}
	return nil, noop, fmt.Errorf("unknown source type %q", src.Type)
}

// newWidget wires the configured provider into a widget with all bands.
func newWidget(ctx context.Context, cfg *config.Config) (*timeline.Widget, func(), error) {
	p, cleanup, err := newProvider(ctx, cfg)
	if err != nil {
		return nil, cleanup, err
	}
	w, err := cfg.Widget.NewWidget(p)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return w, cleanup, nil
}
