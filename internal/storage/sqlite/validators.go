package sqlite

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ncruces/julianday"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/tidwall/gjson"

	"github.com/dyntab/dyntab/internal/dyerr"
)

// naturalDateParser tries natural-language phrasing ("tomorrow", "next
// friday") before falling back to strict ISO-8601 parsing, per
// SPEC_FULL.md's domain-stack note on tryUpdatePrimitive.
var naturalDateParser = newNaturalDateParser()

func newNaturalDateParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// ValidateJSON reports whether text is well-formed JSON (spec.md §4.6).
func ValidateJSON(text string) error {
	if !gjson.Valid(text) {
		return fmt.Errorf("%w: %q is not valid JSON", dyerr.InvalidJSON, text)
	}
	return nil
}

// CoerceInteger parses text as a number and truncates it to an integer
// (spec.md §4.6 "Integer: parse as number; truncate to integer").
func CoerceInteger(text string) (int64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", dyerr.InvalidInteger, text, err)
	}
	return int64(f), nil
}

// CoerceDate parses text as a date, trying natural-language phrasing
// before ISO-8601, and returns the stored Julian day count (spec.md
// §4.3, §4.6).
func CoerceDate(text string) (int64, error) {
	t, err := parseDateLike(text)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", dyerr.InvalidDate, text, err)
	}
	return int64(math.Floor(julianday.Float(t) + 0.5)), nil
}

// CoerceTimestamp parses text as a datetime, trying natural-language
// phrasing before ISO-8601, and returns the stored Julian fractional
// day (spec.md §4.3, §4.6).
func CoerceTimestamp(text string) (float64, error) {
	t, err := parseDateLike(text)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", dyerr.InvalidTimestamp, text, err)
	}
	return julianday.Float(t), nil
}

func parseDateLike(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	if r, err := naturalDateParser.Parse(text, time.Now().UTC()); err == nil && r != nil {
		return r.Time, nil
	}
	if t, err := time.Parse(time.RFC3339, text); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", text); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", text); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date/time %q", text)
}

// RenderDate renders a stored Julian day count as an ISO date (spec.md
// §4.4 "Date via stored Julian day → ISO date").
func RenderDate(julianDay int64) string {
	return julianday.Time(float64(julianDay)).Format("2006-01-02")
}

// RenderTimestamp renders a stored Julian fractional day as an ISO
// datetime with a trailing Z (spec.md §4.4 "Timestamp via stored
// Julian-fractional → ISO datetime with Z").
func RenderTimestamp(julianFrac float64) string {
	return julianday.Time(julianFrac).UTC().Format("2006-01-02T15:04:05Z")
}
