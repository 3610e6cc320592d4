// Package output serializes finder records to files and renders the run
// summary for the terminal
package output

import (
	"strings"

	perr "appimagefinder/internal/platform/errors"
)

// Format is an output file encoding
type Format string

// Supported formats
const (
	JSON    Format = "json"
	CSV     Format = "csv"
	Parquet Format = "parquet"
)

// ParseFormat accepts json, csv or parquet in any case; empty means json
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return JSON, nil
	case JSON, CSV, Parquet:
		return f, nil
	default:
		return "", perr.WithField(perr.InvalidArgf("unknown output format %q (want json, csv or parquet)", s), "format")
	}
}

// Ext is the file extension, without the dot
func (f Format) Ext() string { return string(f) }
