package vcf

import (
	"fmt"
	"strings"
)

const freqKey = "FREQ="

// Row is one (record, alternate allele) pair ready for storage.
// RecordNumber is stamped by the loader and counts original records,
// 1-based. AltIndex is 1-based and dense with respect to the record's
// original allele order.
type Row struct {
	RecordNumber int64
	AltIndex     int
	Chrom        string
	Pos          int64
	ID           string
	Ref          string
	Alt          string
	Qual         string
	Filter       string
	Info         string
	Format       string
	Samples      string // tab-joined sample columns
}

// Normalize expands a record into one Row per alternate allele.
// Single-allele records pass their INFO through verbatim; multi-allele
// records get a per-allele FREQ rewrite.
func Normalize(r *Record) ([]Row, error) {
	samples := strings.Join(r.Samples, "\t")

	rows := make([]Row, 0, len(r.Alt))
	for i, alt := range r.Alt {
		info := r.Info
		if len(r.Alt) > 1 {
			var err error
			info, err = rewriteFreq(r.Info, i+1, len(r.Alt))
			if err != nil {
				return nil, err
			}
		}
		rows = append(rows, Row{
			AltIndex: i + 1,
			Chrom:    r.Chrom,
			Pos:      r.Pos,
			ID:       r.ID,
			Ref:      r.Ref,
			Alt:      alt,
			Qual:     r.Qual,
			Filter:   r.Filter,
			Info:     info,
			Format:   r.Format,
			Samples:  samples,
		})
	}
	return rows, nil
}

// rewriteFreq reduces the FREQ annotation of a multi-allelic record to
// the reference frequency plus the frequency of allele k. Each
// pipe-separated population group "ver:f0,f1,...,fN" becomes
// "ver:f0,fk"; every group must carry exactly nAlt+1 frequencies.
// Other INFO keys, and INFO without a FREQ key, pass through untouched.
func rewriteFreq(info string, k, nAlt int) (string, error) {
	parts := strings.Split(info, ";")
	for pi, part := range parts {
		if !strings.HasPrefix(part, freqKey) {
			continue
		}

		groups := strings.Split(part[len(freqKey):], "|")
		kept := make([]string, 0, len(groups))
		for _, group := range groups {
			ver, freqs, ok := strings.Cut(group, ":")
			if !ok {
				return "", fmt.Errorf("%w: %q", ErrInvalidFrequencyData, info)
			}
			fa := strings.Split(freqs, ",")
			if len(fa) < 2 || len(fa) != nAlt+1 {
				return "", fmt.Errorf("%w: %q", ErrInvalidFrequencyData, info)
			}
			kept = append(kept, ver+":"+fa[0]+","+fa[k])
		}

		parts[pi] = freqKey + strings.Join(kept, "|")
		return strings.Join(parts, ";"), nil
	}
	return info, nil
}
