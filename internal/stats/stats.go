// Package stats derives totals and breakdowns from work logs.
package stats

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/sadopc/tomato/internal/store"
)

// DayLayout keys per-day breakdowns by local calendar date.
const DayLayout = "2006-01-02"

// Bucket accumulates the logs sharing one key.
type Bucket struct {
	Duration  int64
	Sessions  int
	Completed int
}

func (b Bucket) add(l store.WorkLog) Bucket {
	b.Duration += l.Duration
	b.Sessions++
	if l.Completed {
		b.Completed++
	}
	return b
}

func TotalTime(logs []store.WorkLog) int64 {
	var total int64
	for _, l := range logs {
		total += l.Duration
	}
	return total
}

// AggregateBy groups logs by key. Every log lands in exactly one bucket, so
// bucket durations always sum to TotalTime(logs).
func AggregateBy[K comparable](logs []store.WorkLog, key func(store.WorkLog) K) map[K]Bucket {
	out := make(map[K]Bucket)
	for _, l := range logs {
		k := key(l)
		out[k] = out[k].add(l)
	}
	return out
}

func ByCategory(logs []store.WorkLog) map[string]Bucket {
	return AggregateBy(logs, func(l store.WorkLog) string { return l.Category })
}

func ByMode(logs []store.WorkLog) map[store.WorkMode]Bucket {
	return AggregateBy(logs, func(l store.WorkLog) store.WorkMode { return l.Mode })
}

func ByDay(logs []store.WorkLog) map[string]Bucket {
	return AggregateBy(logs, func(l store.WorkLog) string {
		return l.Timestamp.Local().Format(DayLayout)
	})
}

// CompletionRate is the percentage of completed sessions, 0 for no logs.
func CompletionRate(logs []store.WorkLog) float64 {
	if len(logs) == 0 {
		return 0
	}
	var done int
	for _, l := range logs {
		if l.Completed {
			done++
		}
	}
	return float64(done) / float64(len(logs)) * 100
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	return slices.Sorted(maps.Keys(m))
}

// FormatDuration renders seconds the way logs are shown to users:
// "1h 5m", "4m 10s" or "9s".
func FormatDuration(secs int64) string {
	if secs < 0 {
		secs = 0
	}
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// Summary is the overview shown on the stats screen and by `tomato stats`.
type Summary struct {
	Period         Period
	Category       string // empty means every category
	Total          int64
	Sessions       int
	Completed      int
	CompletionRate float64
	ByCategory     map[string]Bucket
	ByMode         map[store.WorkMode]Bucket
	ByDay          map[string]Bucket
}

// Summarize filters logs by period and, when category is non-empty, by
// category, then computes every breakdown.
func Summarize(logs []store.WorkLog, p Period, category string, now time.Time) Summary {
	logs = Filter(logs, p, now)
	if category != "" {
		logs = FilterCategory(logs, category)
	}
	s := Summary{
		Period:         p,
		Category:       category,
		Total:          TotalTime(logs),
		Sessions:       len(logs),
		CompletionRate: CompletionRate(logs),
		ByCategory:     ByCategory(logs),
		ByMode:         ByMode(logs),
		ByDay:          ByDay(logs),
	}
	for _, l := range logs {
		if l.Completed {
			s.Completed++
		}
	}
	return s
}
