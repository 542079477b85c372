package ledger

import (
	"time"
)

// Validation dates must fall on a business day. The rule implemented
// here: take the last calendar day of the entry month and roll forward
// while it lands on a weekend or a French public holiday. Rolling
// forward keeps the result on or after every entry date of the month.

// ValidationDate returns the validation date for an entry date: the
// first business day on or after the entry's month end.
func ValidationDate(entry time.Time) time.Time {
	d := endOfMonth(entry)
	for !isBusinessDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

func endOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).
		AddDate(0, 1, -1)
}

func isBusinessDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !isPublicHoliday(t)
}

// isPublicHoliday reports the French national holidays: the fixed ones
// plus the Easter-derived Monday, Ascension and Whit Monday.
func isPublicHoliday(t time.Time) bool {
	m, d := t.Month(), t.Day()
	switch {
	case m == time.January && d == 1,
		m == time.May && d == 1,
		m == time.May && d == 8,
		m == time.July && d == 14,
		m == time.August && d == 15,
		m == time.November && d == 1,
		m == time.November && d == 11,
		m == time.December && d == 25:
		return true
	}

	easter := easterSunday(t.Year())
	y, mo, dd := t.Date()
	for _, offset := range []int{1, 39, 50} { // Easter Monday, Ascension, Whit Monday
		h := easter.AddDate(0, 0, offset)
		if hy, hm, hd := h.Date(); hy == y && hm == mo && hd == dd {
			return true
		}
	}
	return false
}

// easterSunday computes Gregorian Easter with the anonymous Gauss
// algorithm.
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
