package output

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"github.com/torosent/llmload/internal/metrics"
)

// Format is a report file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks YAML for .yaml/.yml files and JSON otherwise.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// WriteReportFile writes report to path. An exclusive lock on "<path>.lock"
// keeps concurrent runs aimed at the same file from interleaving.
func WriteReportFile(path string, report metrics.Report) error {
	data, err := EncodeReport(report, FormatForPath(path))
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock report file: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// EncodeReport renders report in the given format. YAML output keeps the
// JSON field names and order.
func EncodeReport(report metrics.Report, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := PrintJSONReport(&buf, report); err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	if format != FormatYAML {
		return buf.Bytes(), nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		return nil, fmt.Errorf("convert report to yaml: %w", err)
	}
	clearStyle(&doc)

	var out bytes.Buffer
	enc := yaml.NewEncoder(&out)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, fmt.Errorf("encode yaml report: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml report: %w", err)
	}
	return out.Bytes(), nil
}

// clearStyle drops the flow and quoting styles inherited from JSON input so
// the YAML encoder emits block style. Strings that a YAML 1.1 reader would
// load as a bool or a sexagesimal number stay double-quoted.
func clearStyle(n *yaml.Node) {
	n.Style = 0
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!str" && ambiguousInYAML11(n.Value) {
		n.Style = yaml.DoubleQuotedStyle
	}
	for _, c := range n.Content {
		clearStyle(c)
	}
}

var (
	yaml11Bools = map[string]bool{
		"y": true, "Y": true, "yes": true, "Yes": true, "YES": true,
		"n": true, "N": true, "no": true, "No": true, "NO": true,
		"on": true, "On": true, "ON": true, "off": true, "Off": true, "OFF": true,
	}
	yaml11Sexagesimal = regexp.MustCompile(`^[-+]?[0-9][0-9_]*(?::[0-5]?[0-9])+(?:\.[0-9_]*)?$`)
)

func ambiguousInYAML11(s string) bool {
	return yaml11Bools[s] || yaml11Sexagesimal.MatchString(s)
}
