package timeline

import (
	"fmt"
	"strconv"
	"strings"
)

// Unit is a band interval unit, numbered as in Simile's date-time.js.
type Unit int

const (
	Millisecond Unit = iota
	Second
	Minute
	Hour
	Day
	Week
	Month
	Year
	Decade
	Century
	Millennium
)

var unitNames = [...]string{
	"millisecond", "second", "minute", "hour", "day", "week",
	"month", "year", "decade", "century", "millennium",
}

func (u Unit) String() string {
	if u < Millisecond || u > Millennium {
		return fmt.Sprintf("Unit(%d)", int(u))
	}
	return unitNames[u]
}

// Valid reports whether u is one of the Simile interval units.
func (u Unit) Valid() bool {
	return u >= Millisecond && u <= Millennium
}

// ParseUnit accepts a unit name ("day", "WEEK") or its ordinal ("4").
func ParseUnit(s string) (Unit, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range unitNames {
		if n == name {
			return Unit(i), nil
		}
	}
	if n, err := strconv.Atoi(name); err == nil && Unit(n).Valid() {
		return Unit(n), nil
	}
	return 0, fmt.Errorf("timeline: unknown interval unit %q", s)
}

const (
	// APIScriptURL is the Simile Timeline runtime. It has to be loaded in the
	// document head.
	APIScriptURL = "https://api.simile-widgets.org/timeline/2.3.1/timeline-api.js"

	// ImagePrefix is where Simile keeps its alternative pin icons.
	ImagePrefix = "https://api.simile-widgets.org/timeline/2.3.1/images/"
)

// IconURL returns the URL of one of Simile's bundled icons, for the "icon"
// event attribute.
func IconURL(name string) string {
	return ImagePrefix + strings.TrimPrefix(name, "/")
}
