package model

import "time"

// Record is one model exposed by a data provider: attribute name to value.
// Providers hand out fresh maps; the widget never mutates them.
type Record map[string]any

// Get returns the value stored under name and whether it is present.
func (r Record) Get(name string) (any, bool) {
	v, ok := r[name]
	return v, ok
}

// Occurrence represents a single concrete instance of a calendar event
// (after recurrence expansion and timezone normalization).
type Occurrence struct {
	SourceID string // calendar source ID
	UID      string // iCalendar UID

	// InstanceKey uniquely identifies a single occurrence of a recurring
	// event, typically derived from the local start time.
	InstanceKey string

	Summary     string
	Description string
	Location    string
	URL         string

	AllDay bool

	// Start / End are in the configured display timezone.
	Start time.Time
	End   time.Time
}

// Record flattens the occurrence into provider attributes. A zero-length
// occurrence carries no "end" so the timeline draws it as an instant.
func (o Occurrence) Record() Record {
	r := Record{
		"uid":          o.UID,
		"source":       o.SourceID,
		"instance_key": o.InstanceKey,
		"summary":      o.Summary,
		"description":  o.Description,
		"location":     o.Location,
		"url":          o.URL,
		"all_day":      o.AllDay,
		"start":        o.Start,
	}
	if !o.End.IsZero() && o.End.After(o.Start) {
		r["end"] = o.End
	}
	return r
}
