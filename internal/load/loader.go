// Package load streams VCF files into variant stores.
package load

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/inodb/vibe-annotate/internal/store"
	"github.com/inodb/vibe-annotate/internal/vcf"
)

// DefaultBatchSize bounds the number of rows buffered in memory before
// they are flushed to the store. Any positive value produces the same
// final store contents.
const DefaultBatchSize = 100000

// Loader streams a VCF file through parsing and allele normalization
// into a store, then builds the store's indexes. One bad record fails
// the whole load; there is no skip policy.
type Loader struct {
	store     *store.Store
	parser    *vcf.Parser
	logger    *zap.Logger
	batchSize int
	header    *vcf.Header
}

// New creates a Loader writing to st.
func New(st *store.Store) *Loader {
	return &Loader{
		store:     st,
		parser:    vcf.NewParser(),
		logger:    zap.NewNop(),
		batchSize: DefaultBatchSize,
	}
}

// SetLogger sets the logger used for progress and sequence warnings.
func (l *Loader) SetLogger(lg *zap.Logger) {
	l.logger = lg
	l.parser.SetLogger(lg)
}

// SetBatchSize overrides the insert batch size. Non-positive values
// are ignored.
func (l *Loader) SetBatchSize(n int) {
	if n > 0 {
		l.batchSize = n
	}
}

// Header returns the header of the last loaded file.
func (l *Loader) Header() *vcf.Header { return l.header }

// LoadFile loads a VCF file, transparently decompressing gzip input,
// and returns the number of records read (before allele splitting).
func (l *Loader) LoadFile(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var src io.Reader = br
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return 0, fmt.Errorf("open gzip stream %s: %w", path, err)
		}
		defer gz.Close()
		src = gz
	}

	n, err := l.Load(src)
	if err != nil {
		return n, fmt.Errorf("load %s: %w", path, err)
	}
	return n, nil
}

// Load streams decompressed VCF text into the store: header scan, then
// parse, normalize and batch every data line, a final flush (a no-op
// when the last batch is empty), and one index build. It returns the
// original record count.
func (l *Loader) Load(r io.Reader) (int64, error) {
	br := bufio.NewReader(r)

	header, lineNo, err := vcf.ScanHeader(br)
	if err != nil {
		return 0, err
	}
	l.header = header

	var nRec int64
	batch := make([]vcf.Row, 0, l.batchSize)

	for {
		line, rerr := br.ReadString('\n')
		if rerr != nil && rerr != io.EOF {
			return nRec, fmt.Errorf("read record line: %w", rerr)
		}
		if line != "" {
			lineNo++
			line = strings.TrimRight(line, "\r\n")
			if line != "" && !strings.HasPrefix(line, "#") {
				rec, err := l.parser.ParseRecord(line)
				if err != nil {
					return nRec, &vcf.ParseError{Line: lineNo, Err: err}
				}
				nRec++

				rows, err := vcf.Normalize(rec)
				if err != nil {
					return nRec, &vcf.ParseError{Line: lineNo, Err: err}
				}
				for i := range rows {
					rows[i].RecordNumber = nRec
				}
				batch = append(batch, rows...)

				if len(batch) >= l.batchSize {
					if err := l.store.InsertBatch(batch); err != nil {
						return nRec, err
					}
					batch = batch[:0]
				}
			}
		}
		if rerr == io.EOF {
			break
		}
	}

	if err := l.store.InsertBatch(batch); err != nil {
		return nRec, err
	}
	if err := l.store.BuildIndex(); err != nil {
		return nRec, err
	}

	l.logger.Info("loaded VCF", zap.Int64("records", nRec))
	return nRec, nil
}

// StorePath derives the durable store location for a VCF file.
func StorePath(vcfPath string) string {
	return vcfPath + ".db"
}

// LoadFileOnce loads path into a durable store at StorePath(path),
// skipping the load entirely when that store already exists from an
// earlier run. A failed load removes the half-built store file. It
// returns the store path.
func LoadFileOnce(path string, lg *zap.Logger, batchSize int) (string, error) {
	dbPath := StorePath(path)
	if _, err := os.Stat(dbPath); err == nil {
		lg.Info("reusing existing store", zap.String("store", dbPath))
		return dbPath, nil
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return "", err
	}

	l := New(st)
	l.SetLogger(lg)
	l.SetBatchSize(batchSize)

	if _, err := l.LoadFile(path); err != nil {
		st.Close()
		os.Remove(dbPath)
		return "", err
	}
	if err := st.Close(); err != nil {
		return "", fmt.Errorf("close store %s: %w", dbPath, err)
	}
	return dbPath, nil
}
