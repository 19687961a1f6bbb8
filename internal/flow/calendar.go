package flow

import "time"

// Cell is a single day in a rendered calendar page. A non-selectable cell
// renders as an inert placeholder and carries no callback.
type Cell struct {
	Day        int
	Selectable bool
}

// Page is one month of the delivery calendar, laid out in rows of seven
// cells with the last row left short. Pages are derived on every render and
// never cached.
type Page struct {
	Year  int
	Month time.Month
	Weeks [][]Cell
	// PrevEnabled reports whether the previous-month control is rendered.
	// The next-month control is always rendered: future scheduling is
	// open-ended.
	PrevEnabled bool
}

// BuildPage lays out the calendar for (year, month). A day is selectable only
// when it lies strictly after today: the earliest selectable delivery day is
// tomorrow, and whole months before today's are fully disabled.
func BuildPage(year int, month time.Month, today time.Time) Page {
	page := Page{Year: year, Month: month}

	afterToday := year > today.Year() || (year == today.Year() && month > today.Month())
	sameMonth := year == today.Year() && month == today.Month()

	var week []Cell
	for day := 1; day <= lastDay(year, month); day++ {
		week = append(week, Cell{
			Day:        day,
			Selectable: afterToday || (sameMonth && day > today.Day()),
		})
		if len(week) == 7 {
			page.Weeks = append(page.Weeks, week)
			week = nil
		}
	}
	if len(week) > 0 {
		page.Weeks = append(page.Weeks, week)
	}

	minYear, minMonth := MinMonth(today)
	page.PrevEnabled = year > minYear || (year == minYear && month > minMonth)

	return page
}

// InitialMonth returns the page the calendar opens on. When today is the
// last day of its month the current month has nothing selectable left, so
// the calendar opens on the next month instead.
func InitialMonth(today time.Time) (int, time.Month) {
	year, month := today.Year(), today.Month()
	if today.Day() == lastDay(year, month) {
		return NextMonth(year, month)
	}
	return year, month
}

// MinMonth returns the earliest month the previous-month control may reach.
// It follows the same last-day rule as InitialMonth, so the floor never
// exceeds the initial page.
func MinMonth(today time.Time) (int, time.Month) {
	return InitialMonth(today)
}

// NextMonth advances one month with year carry.
func NextMonth(year int, month time.Month) (int, time.Month) {
	if month == time.December {
		return year + 1, time.January
	}
	return year, month + 1
}

// PrevMonth retreats one month with year carry.
func PrevMonth(year int, month time.Month) (int, time.Month) {
	if month == time.January {
		return year - 1, time.December
	}
	return year, month - 1
}

// lastDay returns the number of days in the given month.
func lastDay(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
