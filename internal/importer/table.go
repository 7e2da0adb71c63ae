// Package importer turns untrusted delimited text into persisted
// transactions with per-row failure reporting.
package importer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Required import columns, matched case-insensitively against the header.
var requiredColumns = []string{"skinid", "type", "quantity", "unitprice"}

// displayNames maps normalized column names back to the documented spelling
// used in error messages.
var displayNames = map[string]string{
	"skinid":            "skinId",
	"type":              "type",
	"quantity":          "quantity",
	"unitprice":         "unitPrice",
	"commissionpercent": "commissionPercent",
	"executedat":        "executedAt",
}

// FormatError reports a malformed or incomplete import header. It is fatal
// to the whole import attempt and surfaced before any row is processed.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "invalid import format: " + e.Reason
}

// Defaults holds the named configuration applied to absent optional columns.
type Defaults struct {
	CommissionPercent float64
	Currency          string
}

// ImportRow is one parsed transaction candidate. Numeric fields hold NaN
// when the cell could not be coerced; the pipeline rejects those rows with a
// line-level message instead of failing the parse.
type ImportRow struct {
	LineNo            int
	SkinID            string
	Type              string
	Quantity          float64
	UnitPrice         float64
	CommissionPercent float64
	ExecutedAt        time.Time // zero when the column is absent or blank
}

// columnSchema is the header resolved once per import, column name to field
// position. Optional columns are -1 when absent.
type columnSchema struct {
	skinID     int
	kind       int
	quantity   int
	unitPrice  int
	commission int
	executedAt int
}

func resolveSchema(header []string) (columnSchema, error) {
	pos := make(map[string]int, len(header))
	for i, name := range header {
		pos[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range requiredColumns {
		if _, ok := pos[required]; !ok {
			return columnSchema{}, &FormatError{Reason: fmt.Sprintf("missing required column %q", displayNames[required])}
		}
	}
	schema := columnSchema{
		skinID:     pos["skinid"],
		kind:       pos["type"],
		quantity:   pos["quantity"],
		unitPrice:  pos["unitprice"],
		commission: -1,
		executedAt: -1,
	}
	if i, ok := pos["commissionpercent"]; ok {
		schema.commission = i
	}
	if i, ok := pos["executedat"]; ok {
		schema.executedAt = i
	}
	return schema, nil
}

// ParseTable splits the raw text into import rows. Line numbers are
// one-based and count the header, so the first data row is line 2.
func ParseTable(text string, defaults Defaults) ([]ImportRow, error) {
	var lines []string
	var lineNos []int
	for i, raw := range strings.Split(text, "\n") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		lines = append(lines, strings.TrimRight(raw, "\r"))
		lineNos = append(lineNos, i+1)
	}
	if len(lines) < 2 {
		return nil, &FormatError{Reason: "need a header row and at least one data row"}
	}

	schema, err := resolveSchema(parseLine(lines[0]))
	if err != nil {
		return nil, err
	}

	rows := make([]ImportRow, 0, len(lines)-1)
	for i, line := range lines[1:] {
		fields := parseLine(line)
		row := ImportRow{
			LineNo:            lineNos[i+1],
			SkinID:            field(fields, schema.skinID),
			Type:              field(fields, schema.kind),
			Quantity:          numeric(field(fields, schema.quantity)),
			UnitPrice:         numeric(field(fields, schema.unitPrice)),
			CommissionPercent: defaults.CommissionPercent,
		}
		if schema.commission >= 0 {
			row.CommissionPercent = numeric(field(fields, schema.commission))
		}
		if schema.executedAt >= 0 {
			row.ExecutedAt = parseTime(field(fields, schema.executedAt))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parseLine splits one line on commas outside quoted spans. A doubled quote
// inside a quoted span is an escaped literal quote, fields are trimmed after
// unquoting. Total over any input: malformed quoting is absorbed, row-level
// validation happens one layer up.
func parseLine(line string) []string {
	var fields []string
	var b strings.Builder
	inQuotes := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				b.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case c == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(b.String()))
			b.Reset()
		default:
			b.WriteByte(c)
		}
	}
	return append(fields, strings.TrimSpace(b.String()))
}

func field(fields []string, idx int) string {
	if idx < 0 || idx >= len(fields) {
		return ""
	}
	return fields[idx]
}

// numeric coerces a cell to a float, NaN on failure. Validation of NaN is
// deferred to the pipeline so a bad cell fails its row, not the whole file.
func numeric(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
