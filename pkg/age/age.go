// Package age computes a child's age in whole years and months for display.
package age

import (
	"fmt"
	"time"
)

// DateLayout is the ISO calendar date layout used for birthdates.
const DateLayout = "2006-01-02"

// Age is an elapsed calendar duration expressed as whole years plus remaining months (0-11).
type Age struct {
	Years  int `json:"years"`
	Months int `json:"months"`
}

// Calculate returns the whole calendar months elapsed between birthdate and ref, split into
// years and months. Only the date part of either argument is considered. A reference date
// before the birthdate yields the zero Age.
//
// A month is complete once ref reaches the birth day of month, or the last day of ref's
// month when that month is shorter: Jan 31 to Feb 28 counts as one month.
func Calculate(birthdate, ref time.Time) Age {
	by, bm, bd := birthdate.Date()
	ry, rm, rd := ref.In(birthdate.Location()).Date()

	total := (ry-by)*12 + int(rm-bm)
	if rd < bd && rd < daysIn(ry, rm) {
		total--
	}
	if total < 0 {
		return Age{}
	}
	return Age{Years: total / 12, Months: total % 12}
}

// Parse reads an ISO calendar date (YYYY-MM-DD) in UTC.
func Parse(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, time.UTC)
}

// String renders the age the way reports show it, e.g. "7歳2ヶ月".
func (a Age) String() string {
	return fmt.Sprintf("%d歳%dヶ月", a.Years, a.Months)
}

// English renders the age as "7 years 2 months".
func (a Age) English() string {
	return fmt.Sprintf("%d %s %d %s", a.Years, plural(a.Years, "year"), a.Months, plural(a.Months, "month"))
}

// Format parses an ISO birthdate and renders the age at ref (now when ref is zero).
func Format(birthdate string, ref time.Time) (string, error) {
	born, err := Parse(birthdate)
	if err != nil {
		return "", fmt.Errorf("age: parse birthdate: %w", err)
	}
	if ref.IsZero() {
		ref = time.Now()
	}
	return Calculate(born, ref).String(), nil
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func plural(n int, unit string) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}
