// Package output renders run progress, reports and threshold verdicts for
// the console and writes the report file.
package output
