package output

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/torosent/llmload/internal/threshold"
)

var (
	passColor = color.New(color.FgGreen)
	failColor = color.New(color.FgRed, color.Bold)
)

// PrintThresholdResults writes one coloured line per threshold followed by an
// overall verdict. Colours are dropped automatically when w is not a terminal.
func PrintThresholdResults(w io.Writer, results []threshold.Result) {
	if len(results) == 0 {
		return
	}
	fmt.Fprintln(w, "\nThresholds:")
	failed := 0
	for _, r := range results {
		if r.Pass {
			passColor.Fprintf(w, "  %s\n", r.Message)
			continue
		}
		failed++
		failColor.Fprintf(w, "  %s\n", r.Message)
	}
	if failed == 0 {
		passColor.Fprintf(w, "All %d thresholds passed\n", len(results))
		return
	}
	failColor.Fprintf(w, "%d of %d thresholds failed\n", failed, len(results))
}
