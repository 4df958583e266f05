package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-annotate/internal/vcf"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testRows() []vcf.Row {
	return []vcf.Row{
		{RecordNumber: 1, AltIndex: 1, Chrom: "chr1", Pos: 100, ID: "rs1", Ref: "A", Alt: "G",
			Qual: ".", Filter: ".", Info: "FREQ=POP:0.9,0.1"},
		{RecordNumber: 2, AltIndex: 1, Chrom: "chr1", Pos: 200, ID: ".", Ref: "C", Alt: "T",
			Qual: ".", Filter: ".", Info: "."},
		{RecordNumber: 2, AltIndex: 2, Chrom: "chr1", Pos: 200, ID: ".", Ref: "C", Alt: "A",
			Qual: ".", Filter: ".", Info: "."},
	}
}

func TestOpenClose(t *testing.T) {
	s := openInMemory(t)
	assert.NotNil(t, s.DB())
}

func TestInsertBatchAndRows(t *testing.T) {
	s := openInMemory(t)

	require.NoError(t, s.InsertBatch(testRows()))

	n, err := s.Rows()
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestInsertBatch_EmptyIsNoOp(t *testing.T) {
	s := openInMemory(t)

	require.NoError(t, s.InsertBatch(nil))
	require.NoError(t, s.InsertBatch([]vcf.Row{}))

	n, err := s.Rows()
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestInsertBatch_IDsMonotonicAcrossBatches(t *testing.T) {
	s := openInMemory(t)

	rows := testRows()
	require.NoError(t, s.InsertBatch(rows[:2]))
	require.NoError(t, s.InsertBatch(rows[2:]))

	var ids []int64
	res, err := s.DB().Query("SELECT id FROM vcf ORDER BY id")
	require.NoError(t, err)
	defer res.Close()
	for res.Next() {
		var id int64
		require.NoError(t, res.Scan(&id))
		ids = append(ids, id)
	}
	require.NoError(t, res.Err())
	assert.Equal(t, []int64{1, 2, 3}, ids)
}

func TestBuildIndexAndLookup(t *testing.T) {
	s := openInMemory(t)

	require.NoError(t, s.InsertBatch(testRows()))
	require.NoError(t, s.BuildIndex())

	var alt string
	err := s.DB().QueryRow(
		"SELECT alt FROM vcf WHERE pos = ? AND chrom = ? AND n_alt = 2", 200, "chr1").Scan(&alt)
	require.NoError(t, err)
	assert.Equal(t, "A", alt)
}

func TestAttachCrossStoreQuery(t *testing.T) {
	dir := t.TempDir()
	annPath := filepath.Join(dir, "annotation.db")

	ann, err := Open(annPath)
	require.NoError(t, err)
	require.NoError(t, ann.InsertBatch(testRows()))
	require.NoError(t, ann.BuildIndex())
	require.NoError(t, ann.Close())

	s := openInMemory(t)
	require.NoError(t, s.Attach("annotation", annPath))

	var n int64
	require.NoError(t, s.DB().QueryRow("SELECT count(*) FROM annotation.vcf").Scan(&n))
	assert.Equal(t, int64(3), n)
}

func TestAttach_MissingFile(t *testing.T) {
	s := openInMemory(t)

	err := s.Attach("annotation", filepath.Join(t.TempDir(), "nope.db"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorageAttach)
}

func TestOpenTempCleansUp(t *testing.T) {
	s, err := OpenTemp()
	require.NoError(t, err)

	path := s.Path()
	require.NotEmpty(t, path)

	require.NoError(t, s.InsertBatch(testRows()))
	_, err = os.Stat(path)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	_, err = os.Stat(filepath.Dir(path))
	assert.True(t, os.IsNotExist(err))
}

func TestReopenResumesIDSequence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "variants.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.InsertBatch(testRows()))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.InsertBatch([]vcf.Row{
		{RecordNumber: 3, AltIndex: 1, Chrom: "chr2", Pos: 300, ID: ".", Ref: "G", Alt: "C"},
	}))

	var maxID int64
	require.NoError(t, s.DB().QueryRow("SELECT max(id) FROM vcf").Scan(&maxID))
	assert.Equal(t, int64(4), maxID)
}
