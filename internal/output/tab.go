// Package output writes the merged annotation table.
package output

import (
	"bufio"
	"database/sql"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-annotate/internal/annotate"
)

// MissingMarker is the default rendering for absent annotation fields.
// Never an empty string: an empty column means an empty stored value.
const MissingMarker = `\N`

// TabWriter writes merged rows as a 16-column tab-delimited table.
type TabWriter struct {
	w       *bufio.Writer
	missing string
	columns []string
}

// NewTabWriter creates a tab-delimited writer over w.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{
		w:       bufio.NewWriter(w),
		missing: MissingMarker,
		columns: []string{
			"#_rec", "n_alt", "chrom", "pos", "var_id", "ref", "alt",
			"qual", "filter", "info", "format", "samples",
			"snp_id", "snp_ref", "snp_alt", "snp_info",
		},
	}
}

// SetMissingMarker overrides the marker used for absent fields.
func (tw *TabWriter) SetMissingMarker(m string) {
	tw.missing = m
}

// WriteHeader writes the column header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// Write writes a single merged row.
func (tw *TabWriter) Write(m *annotate.MergedRow) error {
	values := []string{
		strconv.FormatInt(m.RecordNumber, 10),
		strconv.Itoa(m.AltIndex),
		m.Chrom,
		strconv.FormatInt(m.Pos, 10),
		m.ID,
		m.Ref,
		m.Alt,
		m.Qual,
		m.Filter,
		m.Info,
		m.Format,
		m.Samples,
		tw.orMissing(m.SnpID),
		tw.orMissing(m.SnpRef),
		tw.orMissing(m.SnpAlt),
		tw.orMissing(m.SnpInfo),
	}
	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

func (tw *TabWriter) orMissing(v sql.NullString) string {
	if !v.Valid {
		return tw.missing
	}
	return v.String
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}
