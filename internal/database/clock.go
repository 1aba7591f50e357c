package database

import "time"

// clock задает текущее время и часовой пояс, в котором считаются сутки.
// В базу время пишется в UTC.
type clock struct {
	now func() time.Time
	loc *time.Location
}

func newClock(loc *time.Location) clock {
	if loc == nil {
		loc = time.Local
	}
	return clock{now: time.Now, loc: loc}
}

func (c clock) nowUTC() time.Time {
	return c.now().UTC()
}

// dayBounds возвращает начало и конец суток, в которые попадает t.
func (c clock) dayBounds(t time.Time) (time.Time, time.Time) {
	local := t.In(c.loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.loc)
	return start.UTC(), start.AddDate(0, 0, 1).UTC()
}
