package export

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sadopc/tomato/internal/session"
	"github.com/sadopc/tomato/internal/stats"
	"github.com/sadopc/tomato/internal/store"
)

// TimeLayout formats log timestamps in exports.
const TimeLayout = "2006-01-02 15:04:05"

var csvHeader = []string{"Date/time", "Category", "Task", "Mode", "Duration (s)", "Duration", "Status"}

// FileName is the export file name for the given extension and day.
func FileName(ext string, now time.Time) string {
	return fmt.Sprintf("tomato-log-%s.%s", now.Local().Format("2006-01-02"), ext)
}

func status(completed bool) string {
	if completed {
		return "Completed"
	}
	return "Interrupted"
}

// ToCSV writes logs to dir as a spreadsheet-friendly CSV: UTF-8 with a
// byte-order mark and every field quoted. With no logs it writes nothing
// and returns an empty path.
func ToCSV(logs []store.WorkLog, dir string, now time.Time) (string, error) {
	if len(logs) == 0 {
		return "", nil
	}
	path := filepath.Join(dir, FileName("csv", now))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	w.WriteString("\uFEFF")
	writeRow(w, csvHeader)
	for _, l := range logs {
		writeRow(w, []string{
			l.Timestamp.Local().Format(TimeLayout),
			l.Category,
			l.Task,
			session.Label(l.Mode),
			strconv.FormatInt(l.Duration, 10),
			stats.FormatDuration(l.Duration),
			status(l.Completed),
		})
	}
	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("write csv file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close csv file: %w", err)
	}
	return path, nil
}

// writeRow quotes every field; encoding/csv only quotes when it must.
func writeRow(w *bufio.Writer, fields []string) {
	for i, s := range fields {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteByte('"')
		w.WriteString(strings.ReplaceAll(s, `"`, `""`))
		w.WriteByte('"')
	}
	w.WriteByte('\n')
}
