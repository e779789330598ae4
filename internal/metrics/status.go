package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
)

// ErrorBucket is one row of a flattened error histogram.
type ErrorBucket struct {
	Key   string
	Count int
}

// FlattenErrorHistogram converts an error histogram into rows sorted by
// descending count, then by key for stability.
func FlattenErrorHistogram(hist map[string]int) []ErrorBucket {
	if len(hist) == 0 {
		return nil
	}
	rows := make([]ErrorBucket, 0, len(hist))
	for key, count := range hist {
		rows = append(rows, ErrorBucket{Key: key, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count == rows[j].Count {
			return rows[i].Key < rows[j].Key
		}
		return rows[i].Count > rows[j].Count
	})
	return rows
}

// ErrorLabel returns a human-friendly label for an error histogram key.
// Status code keys gain the standard reason phrase; anything else is
// returned unchanged.
func ErrorLabel(key string) string {
	code, err := strconv.Atoi(key)
	if err != nil || code < 100 || code > 999 {
		return key
	}
	if text := http.StatusText(code); text != "" {
		return fmt.Sprintf("HTTP %d %s", code, text)
	}
	return fmt.Sprintf("HTTP %d", code)
}
