package insight

import "time"

type isoWeek struct {
	Year int
	Week int
}

func weekOf(t time.Time) isoWeek {
	y, w := t.ISOWeek()
	return isoWeek{Year: y, Week: w}
}

// isoWeekday maps time.Weekday to the ISO numbering (Mon=1 .. Sun=7).
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// wholeDays returns the floor of the duration between from and to in days.
func wholeDays(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

// startOfQuarter returns midnight on the first day of the calendar quarter
// containing t (Jan/Apr/Jul/Oct).
func startOfQuarter(t time.Time) time.Time {
	y, m, _ := t.Date()
	qm := time.Month(((int(m)-1)/3)*3 + 1)
	return time.Date(y, qm, 1, 0, 0, 0, 0, t.Location())
}
