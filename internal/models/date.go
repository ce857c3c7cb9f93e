package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and storage format of calendar days.
const DateLayout = "2006-01-02"

// Date is a calendar day without time or zone, formatted YYYY-MM-DD.
type Date string

// ParseDate validates raw as a YYYY-MM-DD calendar day.
func ParseDate(raw string) (Date, error) {
	raw = strings.TrimSpace(raw)
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return "", fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return Date(t.Format(DateLayout)), nil
}

// DateOf returns the calendar day of t in loc.
func DateOf(t time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	return Date(t.In(loc).Format(DateLayout))
}

// String implements fmt.Stringer.
func (d Date) String() string { return string(d) }

// Valid reports whether d is a well formed calendar day.
func (d Date) Valid() bool {
	_, err := time.Parse(DateLayout, string(d))
	return err == nil
}

// After reports whether d is later than o. Both must be valid.
func (d Date) After(o Date) bool { return string(d) > string(o) }
