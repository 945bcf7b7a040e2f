package core

// convert.go provides value conversion for CSV cells into the nullable
// wrappers reconciliation produces.
//
// These functions handle the messy reality of exported CSV data:
//   - Multiple date formats (US, ISO, month names, date-times)
//   - Currency symbols and thousand separators in numbers
//   - Various boolean representations (yes/no, true/false, 1/0)
//   - Non-breaking spaces left behind by spreadsheet exports
//
// Blank input always converts to the missing marker. Parse failures are
// reported with ok=false so the caller decides whether they are fatal.

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// nbsp is the non-breaking space that spreadsheet exports leave in cells.
const nbsp = "\u00a0"

// CanonicalDateLayout is the output format of date cleaning.
const CanonicalDateLayout = "2006-01-02"

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would result in dates more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

// Date layouts split by year format for proper 2-digit year handling.
// Month-first layouts come before day-first ones, so "03/04/2024" is March 4.
var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06", "2-Jan-06",
	}
	fourDigitYearLayouts = []string{
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"2006-01-02", "2006/01/02", "2006.01.02", "2006-1-2", "2006/1/2",
		"Jan 2, 2006", "January 2, 2006", "Jan 2 2006", "January 2 2006",
		"2 Jan 2006", "2 January 2006", "02-Jan-2006", "2-Jan-2006",
		"Mon, Jan 2, 2006", "Monday, January 2, 2006",
		"20060102",
	}
	dateTimeLayouts = []string{
		time.RFC3339Nano, time.RFC3339,
		"2006-01-02T15:04:05", "2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05", "2006-01-02 15:04:05.999999999", "2006-01-02 15:04",
		"2006-01-02 15:04:05Z07:00", "2006-01-02 15:04:05 -0700", "2006-01-02 15:04:05 MST",
		"1/2/2006 15:04", "1/2/2006 15:04:05", "1/2/2006 3:04 PM", "1/2/2006 3:04:05 PM",
		"01/02/2006 15:04", "01/02/2006 15:04:05", "01/02/2006 03:04 PM", "01/02/2006 03:04:05 PM",
		"Jan 2, 2006 15:04:05", "Jan 2, 2006 3:04 PM", "Jan 2 2006 15:04:05",
		time.RFC1123Z, time.RFC1123, time.RFC850, time.ANSIC, time.UnixDate,
	}
)

// NormalizeText replaces non-breaking spaces with ordinary spaces and trims
// surrounding whitespace.
func NormalizeText(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, nbsp, " "))
}

// ToPgText converts a string to pgtype.Text.
// Returns invalid if the string is empty or only whitespace.
func ToPgText(s string) pgtype.Text {
	s = NormalizeText(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ParseDate parses s with the permissive layout list. Date-time values keep
// their time of day; callers that want a calendar date truncate.
func ParseDate(s string) (time.Time, bool) {
	s = NormalizeText(s)
	if s == "" {
		return time.Time{}, false
	}

	// Try 4-digit year layouts first (unambiguous)
	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	// Try 2-digit year layouts with pivot year adjustment
	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, true
		}
	}

	return time.Time{}, false
}

// cleanNumeric strips currency symbols and thousands separators and turns
// accounting negatives "(123.45)" into "-123.45". It returns false when the
// remainder is not a number.
func cleanNumeric(s string) (string, bool) {
	s = NormalizeText(s)
	if s == "" {
		return "", false
	}

	// Detect negative accounting format "(123.45)"
	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	// Remove common currency symbols and thousands separators
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if isNegative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return "", false
	}
	return s, true
}

// ToPgInt8 converts a string to pgtype.Int8. Integral floats such as "3.0"
// are accepted up to 2^53 in magnitude; fractional values and integers
// outside the int64 range are not.
func ToPgInt8(s string) (pgtype.Int8, bool) {
	if NormalizeText(s) == "" {
		return pgtype.Int8{}, true
	}
	clean, ok := cleanNumeric(s)
	if !ok {
		return pgtype.Int8{}, false
	}
	i, err := strconv.ParseInt(clean, 10, 64)
	if err == nil {
		return pgtype.Int8{Int64: i, Valid: true}, true
	}
	if errors.Is(err, strconv.ErrRange) {
		return pgtype.Int8{}, false
	}
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > maxExactFloatInt {
		return pgtype.Int8{}, false
	}
	return pgtype.Int8{Int64: int64(f), Valid: true}, true
}

// maxExactFloatInt is 2^53, the largest magnitude below which every
// integer has an exact float64 form.
const maxExactFloatInt = 1 << 53

// ToPgFloat8 converts a string to pgtype.Float8.
func ToPgFloat8(s string) (pgtype.Float8, bool) {
	if NormalizeText(s) == "" {
		return pgtype.Float8{}, true
	}
	clean, ok := cleanNumeric(s)
	if !ok {
		return pgtype.Float8{}, false
	}
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return pgtype.Float8{}, false
	}
	return pgtype.Float8{Float64: f, Valid: true}, true
}

// ToPgBool converts a string to pgtype.Bool.
// Accepts various representations: true/false, yes/no, t/f, y/n, 1/0.
func ToPgBool(s string) (pgtype.Bool, bool) {
	s = strings.ToLower(NormalizeText(s))
	switch s {
	case "":
		return pgtype.Bool{}, true
	case "true", "t", "yes", "y", "1", "1.0":
		return pgtype.Bool{Bool: true, Valid: true}, true
	case "false", "f", "no", "n", "0", "0.0":
		return pgtype.Bool{Bool: false, Valid: true}, true
	default:
		return pgtype.Bool{}, false
	}
}

// textOf renders any cell value as text. The missing marker renders as "".
func textOf(v any) string {
	if IsMissing(v) {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case pgtype.Text:
		return t.String
	case pgtype.Int8:
		return strconv.FormatInt(t.Int64, 10)
	case pgtype.Float8:
		return strconv.FormatFloat(t.Float64, 'f', -1, 64)
	case pgtype.Bool:
		return strconv.FormatBool(t.Bool)
	case pgtype.Date:
		return t.Time.Format(CanonicalDateLayout)
	case pgtype.Timestamp:
		return t.Time.Format("2006-01-02 15:04:05")
	case time.Time:
		return t.Format(time.RFC3339Nano)
	case []byte:
		return string(t)
	case driver.Valuer:
		dv, err := t.Value()
		if err != nil || dv == nil {
			return ""
		}
		return fmt.Sprint(dv)
	default:
		return fmt.Sprint(v)
	}
}
