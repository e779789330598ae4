package output

import (
	"fmt"
	"io"

	"github.com/torosent/llmload/internal/metrics"
)

// ProgressPrinter returns a metrics.ProgressFunc that writes one line per
// progress report.
func ProgressPrinter(w io.Writer) metrics.ProgressFunc {
	if w == nil {
		w = io.Discard
	}
	return func(p metrics.Progress) {
		fmt.Fprintf(w, "Completed %d/%d requests | success rate: %.1f%%\n",
			p.Completed, p.Total, p.SuccessRate*100)
	}
}
