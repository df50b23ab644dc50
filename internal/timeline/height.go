package timeline

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultHeight is used when Options.Height is the zero value.
const DefaultHeight = 200

// Height is the container height. The zero value means DefaultHeight pixels.
type Height struct {
	css      string
	disabled bool
}

// Pixels is a height in pixels.
func Pixels(n int) Height { return Height{css: strconv.Itoa(n) + "px"} }

// CSS is any CSS length, e.g. "12em".
func CSS(s string) Height { return Height{css: s} }

// NoHeight leaves the container without an inline height. The page must size
// it by other means or the timeline will not appear.
var NoHeight = Height{disabled: true}

// Style returns the inline style fragment, "" when disabled.
func (h Height) Style() string {
	if h.disabled {
		return ""
	}
	css := h.css
	if css == "" {
		css = strconv.Itoa(DefaultHeight) + "px"
	}
	return "height:" + css + ";"
}

// ParseHeight reads a configuration value: an int is pixels, a string is CSS
// (a bare number string is pixels), false disables and nil is the default.
func ParseHeight(v any) (Height, error) {
	switch h := v.(type) {
	case nil:
		return Height{}, nil
	case Height:
		return h, nil
	case bool:
		if h {
			return Height{}, fmt.Errorf("timeline: height true is not a size")
		}
		return NoHeight, nil
	case int:
		return Pixels(h), nil
	case int64:
		return Pixels(int(h)), nil
	case float64:
		return Pixels(int(h)), nil
	case string:
		s := strings.TrimSpace(h)
		if s == "" {
			return Height{}, nil
		}
		if n, err := strconv.Atoi(s); err == nil {
			return Pixels(n), nil
		}
		return CSS(s), nil
	}
	return Height{}, fmt.Errorf("timeline: unsupported height %T", v)
}
