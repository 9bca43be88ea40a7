package naming

import (
	"regexp"
	"time"

	"github.com/ncruces/go-strftime"
)

// Shape matchers for the captured date text. The pattern list decides *where*
// in the filename to look; these decide *how* to parse what was captured.
var (
	shapeISO        = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	shapeDashed     = regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`)
	shapeUnderscore = regexp.MustCompile(`^\d{2}_\d{2}_\d{4}$`)
	shapeCompact    = regexp.MustCompile(`^\d{8}$`)
)

// ExtractDate scans filename with the supplied patterns in order and returns
// the first successfully parsed date, reformatted with the strftime template
// format (e.g. "%Y-%m-%d").
//
// The scan commits to the first pattern whose regex matches anywhere in the
// filename; the captured text is then parsed under a shape-specific rule:
//
//   - YYYY-MM-DD: parsed directly.
//   - DD-MM-YYYY / MM-DD-YYYY: when the first two-digit group is in [1,12]
//     the value is read month-first, otherwise day-first. Values where both
//     readings are plausible resolve to month-first; that ambiguity is
//     accepted, not corrected.
//   - MM_DD_YYYY / DD_MM_YYYY: month-first attempted, day-first on failure.
//   - YYYYMMDD: parsed directly.
//   - any other captured shape: parsed as YYYY-MM-DD.
//
// A capture that fails to parse (including calendar-invalid values such as
// month 99) moves the scan to the next pattern in the list, not to another
// match of the same pattern. When no pattern yields a valid date the second
// return value is false; callers treat that as "skip this file", not as an
// error.
func ExtractDate(filename string, patterns []*regexp.Regexp, format string) (string, bool) {
	for _, p := range patterns {
		m := p.FindStringSubmatch(filename)
		if m == nil {
			continue
		}
		captured := m[0]
		if len(m) > 1 {
			captured = m[1]
		}
		t, err := parseShape(captured)
		if err != nil {
			continue
		}
		return strftime.Format(format, t), true
	}
	return "", false
}

func parseShape(s string) (time.Time, error) {
	switch {
	case shapeISO.MatchString(s):
		return time.Parse("2006-01-02", s)
	case shapeDashed.MatchString(s):
		first := int(s[0]-'0')*10 + int(s[1]-'0')
		if first >= 1 && first <= 12 {
			return time.Parse("01-02-2006", s)
		}
		return time.Parse("02-01-2006", s)
	case shapeUnderscore.MatchString(s):
		t, err := time.Parse("01_02_2006", s)
		if err != nil {
			return time.Parse("02_01_2006", s)
		}
		return t, nil
	case shapeCompact.MatchString(s):
		return time.Parse("20060102", s)
	default:
		return time.Parse("2006-01-02", s)
	}
}
