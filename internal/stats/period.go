package stats

import (
	"fmt"
	"strings"
	"time"

	"github.com/sadopc/tomato/internal/store"
)

type Period int

const (
	PeriodToday Period = iota
	PeriodWeek
	PeriodMonth
	PeriodAll
)

// Periods lists every period in display order.
var Periods = []Period{PeriodToday, PeriodWeek, PeriodMonth, PeriodAll}

func (p Period) String() string {
	switch p {
	case PeriodToday:
		return "today"
	case PeriodWeek:
		return "week"
	case PeriodMonth:
		return "month"
	case PeriodAll:
		return "all"
	}
	return fmt.Sprintf("Period(%d)", int(p))
}

func ParsePeriod(s string) (Period, error) {
	for _, p := range Periods {
		if strings.EqualFold(s, p.String()) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown period %q (want today, week, month or all)", s)
}

// Since returns the start of the period ending at now. ok is false for
// PeriodAll.
func (p Period) Since(now time.Time) (start time.Time, ok bool) {
	switch p {
	case PeriodToday:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), true
	case PeriodWeek:
		return now.AddDate(0, 0, -7), true
	case PeriodMonth:
		return now.AddDate(0, 0, -30), true
	}
	return time.Time{}, false
}

// Filter keeps the logs whose timestamp falls on or after the start of p.
func Filter(logs []store.WorkLog, p Period, now time.Time) []store.WorkLog {
	start, ok := p.Since(now)
	if !ok {
		return logs
	}
	var out []store.WorkLog
	for _, l := range logs {
		if !l.Timestamp.Before(start) {
			out = append(out, l)
		}
	}
	return out
}

func FilterCategory(logs []store.WorkLog, category string) []store.WorkLog {
	var out []store.WorkLog
	for _, l := range logs {
		if l.Category == category {
			out = append(out, l)
		}
	}
	return out
}
