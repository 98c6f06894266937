package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/meteo-vigilance/vigilance"
)

// Format is an output encoding for tables.
type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
)

// ParseFormat accepts "csv" or "json", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case CSV, JSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q: want csv or json", s)
	}
}

// Write encodes t to w in the given format.
func Write(w io.Writer, t vigilance.Table, f Format) error {
	switch f {
	case CSV:
		return WriteCSV(w, t)
	case JSON:
		return WriteJSON(w, t)
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}

// WriteCSV writes a header row followed by one row per record.
func WriteCSV(w io.Writer, t vigilance.Table) error {
	cw := csv.NewWriter(w)
	columns := t.Columns()
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	row := make([]string, len(columns))
	for i, rec := range t.Records() {
		for j, col := range columns {
			row[j] = formatValue(rec[col])
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes one JSON object per line.
func WriteJSON(w io.Writer, t vigilance.Table) error {
	enc := json.NewEncoder(w)
	for i, rec := range t.Records() {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("write json record %d: %w", i, err)
		}
	}
	return nil
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}
