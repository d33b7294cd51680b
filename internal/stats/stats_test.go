package stats

import (
	"testing"
	"time"

	"github.com/sadopc/tomato/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 5, 20, 15, 30, 0, 0, time.Local)

func sampleLogs() []store.WorkLog {
	return []store.WorkLog{
		{ID: "1", Category: "Design", Mode: store.ModeFocus, Duration: 1500, Completed: true, Timestamp: now.Add(-time.Hour)},
		{ID: "2", Category: "Design", Mode: store.ModeShortBreak, Duration: 300, Completed: true, Timestamp: now.Add(-50 * time.Minute)},
		{ID: "3", Category: "Review", Mode: store.ModeStopwatch, Duration: 42, Completed: false, Timestamp: now.AddDate(0, 0, -2)},
		{ID: "4", Category: "Other", Mode: store.ModePomodoroPlan, Duration: 900, Completed: true, Timestamp: now.AddDate(0, 0, -10)},
		{ID: "5", Category: "Review", Mode: store.ModeFocus, Duration: 0, Completed: false, Timestamp: now.AddDate(0, -3, 0)},
	}
}

func TestTotalTime(t *testing.T) {
	assert.Equal(t, int64(2742), TotalTime(sampleLogs()))
	assert.Zero(t, TotalTime(nil))
}

func TestAggregatesSumToTotal(t *testing.T) {
	logs := sampleLogs()
	total := TotalTime(logs)

	sum := func(m map[string]Bucket) (d int64, n int) {
		for _, b := range m {
			d += b.Duration
			n += b.Sessions
		}
		return d, n
	}
	for name, m := range map[string]map[string]Bucket{
		"category": ByCategory(logs),
		"day":      ByDay(logs),
		"task":     AggregateBy(logs, func(l store.WorkLog) string { return l.Task }),
	} {
		d, n := sum(m)
		assert.Equal(t, total, d, name)
		assert.Equal(t, len(logs), n, name)
	}

	var d int64
	for _, b := range ByMode(logs) {
		d += b.Duration
	}
	assert.Equal(t, total, d)
}

func TestByCategory(t *testing.T) {
	got := ByCategory(sampleLogs())
	assert.Equal(t, Bucket{Duration: 1800, Sessions: 2, Completed: 2}, got["Design"])
	assert.Equal(t, Bucket{Duration: 42, Sessions: 2, Completed: 0}, got["Review"])
	assert.Equal(t, []string{"Design", "Other", "Review"}, SortedKeys(got))
}

func TestByDayUsesLocalDate(t *testing.T) {
	got := ByDay(sampleLogs())
	require.Contains(t, got, now.Format(DayLayout))
	assert.Equal(t, 2, got[now.Format(DayLayout)].Sessions)
}

func TestCompletionRate(t *testing.T) {
	assert.Zero(t, CompletionRate(nil))
	assert.InDelta(t, 60.0, CompletionRate(sampleLogs()), 0.001)
}

func TestFilter(t *testing.T) {
	logs := sampleLogs()
	assert.Len(t, Filter(logs, PeriodToday, now), 2)
	assert.Len(t, Filter(logs, PeriodWeek, now), 3)
	assert.Len(t, Filter(logs, PeriodMonth, now), 4)
	assert.Len(t, Filter(logs, PeriodAll, now), 5)
}

func TestFilterTodayStartsAtMidnight(t *testing.T) {
	midnight := time.Date(2026, 5, 20, 0, 0, 0, 0, time.Local)
	logs := []store.WorkLog{
		{ID: "a", Timestamp: midnight},
		{ID: "b", Timestamp: midnight.Add(-time.Second)},
	}
	got := Filter(logs, PeriodToday, now)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}

func TestFilterCategory(t *testing.T) {
	got := FilterCategory(sampleLogs(), "Review")
	require.Len(t, got, 2)
	assert.Empty(t, FilterCategory(sampleLogs(), "Meeting"))
}

func TestParsePeriod(t *testing.T) {
	for _, p := range Periods {
		got, err := ParsePeriod(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	got, err := ParsePeriod("WEEK")
	require.NoError(t, err)
	assert.Equal(t, PeriodWeek, got)

	_, err = ParsePeriod("year")
	assert.Error(t, err)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		secs int64
		want string
	}{
		{0, "0s"},
		{9, "9s"},
		{250, "4m 10s"},
		{3600, "1h 0m"},
		{3900, "1h 5m"},
		{7500, "2h 5m"},
		{-3, "0s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.secs), "%d", tt.secs)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleLogs(), PeriodWeek, "", now)
	assert.Equal(t, int64(1842), s.Total)
	assert.Equal(t, 3, s.Sessions)
	assert.Equal(t, 2, s.Completed)
	assert.InDelta(t, 66.67, s.CompletionRate, 0.01)
	assert.Len(t, s.ByCategory, 2)

	s = Summarize(sampleLogs(), PeriodAll, "Review", now)
	assert.Equal(t, int64(42), s.Total)
	assert.Equal(t, 2, s.Sessions)
	assert.Zero(t, s.CompletionRate)
	assert.Equal(t, "Review", s.Category)
}
