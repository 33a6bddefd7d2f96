package alert

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-module/carbon/v2"
)

// dueDateLayouts are the accepted input formats, most specific first.
// "d.m.Y" is the historical format of the alert command; the ISO forms are
// accepted as a convenience.
var dueDateLayouts = []string{
	"d.m.Y H:i",
	"d.m.Y",
	"Y-m-d H:i",
	"Y-m-d",
}

// DisplayDateFormat is the Go layout used when rendering due dates.
const DisplayDateFormat = "02.01.2006 15:04"

// ParseDueDate parses a user-supplied due date in loc. Date-only inputs
// resolve to midnight of that day.
func ParseDueDate(raw string, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty input", ErrMalformedDate)
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range dueDateLayouts {
		c := carbon.ParseByFormat(s, layout, loc.String())
		if c.Error == nil && !c.IsZero() {
			return c.Carbon2Time(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, raw)
}
