// Package annotate joins a subject variant store against an annotation
// store and emits the merged rows.
package annotate

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/vibe-annotate/internal/store"
	"github.com/inodb/vibe-annotate/internal/vcf"
)

// TieBreak selects which annotation row wins when several match one
// subject row.
type TieBreak string

const (
	FirstMatch TieBreak = "first"
	LastMatch  TieBreak = "last"
)

// MergedRow is one subject row plus its annotation fields. The
// annotation fields are NULL when no annotation row matched.
type MergedRow struct {
	vcf.Row
	SnpID   sql.NullString
	SnpRef  sql.NullString
	SnpAlt  sql.NullString
	SnpInfo sql.NullString
}

// RowWriter receives merged rows in output order.
type RowWriter interface {
	WriteHeader() error
	Write(*MergedRow) error
	Flush() error
}

// Joiner matches every subject row against the annotation store. Two
// rows match when position and chromosome are equal and the allele
// pair is equal in either orientation: ref and alt may be flipped
// between the two datasets.
type Joiner struct {
	subject  *store.Store
	annPath  string
	tieBreak TieBreak
	logger   *zap.Logger
}

// New creates a Joiner over the subject store and the annotation store
// file at annotationPath.
func New(subject *store.Store, annotationPath string) *Joiner {
	return &Joiner{
		subject:  subject,
		annPath:  annotationPath,
		tieBreak: FirstMatch,
		logger:   zap.NewNop(),
	}
}

// SetTieBreak overrides the multi-match tie-break.
func (j *Joiner) SetTieBreak(tb TieBreak) {
	j.tieBreak = tb
}

// SetLogger sets the logger for the run summary.
func (j *Joiner) SetLogger(l *zap.Logger) {
	j.logger = l
}

// The lateral subquery pins the join to one annotation row per subject
// row; a plain left join would duplicate subject rows on multi-matches.
const joinQuery = `SELECT t1.n_rec, t1.n_alt, t1.chrom, t1.pos, t1.snp_id, t1.ref, t1.alt,
	t1.qual, t1.filter, t1.info, t1.format, t1.samples,
	t2.snp_id, t2.ref, t2.alt, t2.info
FROM vcf AS t1
LEFT JOIN LATERAL (
	SELECT a.snp_id, a.ref, a.alt, a.info FROM annotation.vcf AS a
	WHERE a.pos = t1.pos AND a.chrom = t1.chrom
	  AND (a.ref = t1.ref AND a.alt = t1.alt OR a.ref = t1.alt AND a.alt = t1.ref)
	ORDER BY a.id %s
	LIMIT 1
) AS t2 ON true
ORDER BY t1.n_rec, t1.n_alt`

// Run executes the left outer join and streams merged rows to w in
// subject file order (record number, then allele index). Every subject
// row is written exactly once. It returns the number of rows written.
func (j *Joiner) Run(w RowWriter) (int64, error) {
	if err := j.subject.Attach("annotation", j.annPath); err != nil {
		return 0, err
	}

	order := "ASC"
	if j.tieBreak == LastMatch {
		order = "DESC"
	}

	rows, err := j.subject.DB().Query(fmt.Sprintf(joinQuery, order))
	if err != nil {
		return 0, fmt.Errorf("annotation join: %w", err)
	}
	defer rows.Close()

	if err := w.WriteHeader(); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	var n int64
	for rows.Next() {
		var m MergedRow
		if err := rows.Scan(&m.RecordNumber, &m.AltIndex, &m.Chrom, &m.Pos,
			&m.ID, &m.Ref, &m.Alt, &m.Qual, &m.Filter, &m.Info, &m.Format, &m.Samples,
			&m.SnpID, &m.SnpRef, &m.SnpAlt, &m.SnpInfo); err != nil {
			return n, fmt.Errorf("scan merged row: %w", err)
		}
		if err := w.Write(&m); err != nil {
			return n, fmt.Errorf("write merged row: %w", err)
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return n, fmt.Errorf("iterate merged rows: %w", err)
	}
	if err := w.Flush(); err != nil {
		return n, fmt.Errorf("flush output: %w", err)
	}

	j.logger.Info("annotation complete", zap.Int64("rows", n))
	return n, nil
}
