// Package vcf implements parsing and per-allele normalization of VCF
// variant records.
package vcf

import (
	"fmt"
	"strconv"
	"strings"
)

// Record is a single VCF data line after parsing, before per-allele
// normalization. Alt holds every alternate allele of a multi-allelic
// record. Format and Samples are present together or not at all; the
// parser rejects a FORMAT column without sample columns.
type Record struct {
	Chrom   string
	Pos     int64  // 1-based genomic position
	ID      string // variant identifier (e.g. rs ID), "." when absent
	Ref     string
	Alt     []string
	Qual    string // opaque passthrough
	Filter  string
	Info    string // semicolon-delimited; only FREQ is interpreted
	Format  string
	Samples []string
}

// String re-serializes the record as a tab-delimited VCF line.
func (r *Record) String() string {
	fields := []string{
		r.Chrom,
		strconv.FormatInt(r.Pos, 10),
		r.ID,
		r.Ref,
		strings.Join(r.Alt, ","),
		r.Qual,
		r.Filter,
		r.Info,
	}
	if r.Format != "" {
		fields = append(fields, r.Format)
		fields = append(fields, r.Samples...)
	}
	return strings.Join(fields, "\t")
}

// AddInfo returns the record's INFO string with key=value appended,
// separated by a semicolon. A trailing semicolon on the existing INFO
// is stripped first.
func (r *Record) AddInfo(key, value string) (string, error) {
	if key == "" || value == "" {
		return "", fmt.Errorf("%w: %q=%q", ErrInvalidInfoField, key, value)
	}
	return strings.TrimRight(r.Info, ";") + ";" + key + "=" + value, nil
}
