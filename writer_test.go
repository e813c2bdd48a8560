package evstore

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func testWriter(t *testing.T, family Family) *Writer {
	path := filepath.Join(t.TempDir(), "ds.ev")
	w := must(Create(path, family, WriterOptions{Logger: testLogger(t)}))
	t.Cleanup(func() { w.Close() })
	return w
}

func TestCreateIsCreateOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ds.ev")
	w := must(Create(path, RowLog, WriterOptions{Logger: testLogger(t)}))
	defer w.Close()

	_, err := Create(path, RowLog, WriterOptions{Logger: testLogger(t)})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("second Create = %v, wanted ErrAlreadyExists", err)
	}
}

func TestRecordRowIsBufferedOnly(t *testing.T) {
	w := testWriter(t, RowLog)
	ensure(w.RecordRow("row1", []Entry{{Column: "colA", Value: 1, Timestamp: 0}}))

	if size := must(os.Stat(w.Path())).Size(); size != 0 {
		t.Fatalf("file has %d bytes before commit, wanted 0", size)
	}
}

func TestCommitWithoutRowsIsNoop(t *testing.T) {
	w := testWriter(t, BinaryColumnar)
	ensure(w.Commit())
	ensure(w.Commit())

	if size := must(os.Stat(w.Path())).Size(); size != 0 {
		t.Fatalf("file has %d bytes after empty commits, wanted 0", size)
	}
}

func TestCommitIsIdempotent(t *testing.T) {
	for _, family := range []Family{RowLog, BinaryColumnar} {
		w := testWriter(t, family)
		ensure(w.RecordRow("row1", []Entry{{Column: "colA", Value: 1, Timestamp: 0}}))
		ensure(w.Commit())
		once := must(os.ReadFile(w.Path()))

		ensure(w.Commit())
		twice := must(os.ReadFile(w.Path()))

		if !bytes.Equal(once, twice) {
			t.Fatalf("%v: repeated commit changed the file: %d bytes vs %d bytes", family, len(once), len(twice))
		}
	}
}

func TestFirstCommitWritesTag(t *testing.T) {
	w := testWriter(t, BinaryColumnar)
	ensure(w.RecordRow("row1", []Entry{{Column: "colA", Value: 1, Timestamp: 0}}))
	ensure(w.Commit())

	deepEq(t, must(ReadTag(w.Path())), Tag{Family: BinaryColumnar, Mutable: true, Version: 1})

	// The batch must land after the header, not on top of it.
	data := must(os.ReadFile(w.Path()))
	if len(data) <= tagSize {
		t.Fatalf("file has %d bytes, wanted tag plus row data", len(data))
	}
	deepEq(t, must(decodeTag(data[:tagSize])), Tag{Family: BinaryColumnar, Mutable: true, Version: 1})
}

func TestTagSurvivesRepeatedCommits(t *testing.T) {
	w := testWriter(t, RowLog)
	ensure(w.RecordRow("row1", []Entry{{Column: "colA", Value: 1, Timestamp: 0}}))
	ensure(w.Commit())
	ensure(w.RecordRow("row2", []Entry{{Column: "colB", Value: 2, Timestamp: 1}}))
	ensure(w.Commit())

	deepEq(t, must(ReadTag(w.Path())), Tag{Family: RowLog, Mutable: true, Version: 1})
	r := must(openRowLogReader(w.Path()))
	deepEq(t, r.Rows(), []Row{
		{ID: "row1", Entries: []Entry{{Column: "colA", Value: int64(1), Timestamp: 0}}},
		{ID: "row2", Entries: []Entry{{Column: "colB", Value: int64(2), Timestamp: 1}}},
	})
}

func TestRecordRowRejectsBadValues(t *testing.T) {
	w := testWriter(t, RowLog)

	if err := w.RecordRow("row1", nil); err == nil {
		t.Fatalf("RecordRow with no entries succeeded, wanted error")
	}
	if err := w.RecordRow("row1", []Entry{{Column: "c", Value: []int{1}}}); err == nil {
		t.Fatalf("RecordRow with slice value succeeded, wanted error")
	}
	if err := w.RecordRow("row1", []Entry{{Column: "c", Value: nil}}); err == nil {
		t.Fatalf("RecordRow with nil value succeeded, wanted error")
	}
}

func TestWriterClosedIsFatal(t *testing.T) {
	w := testWriter(t, RowLog)
	ensure(w.Close())

	if err := w.RecordRow("row1", []Entry{{Column: "c", Value: 1}}); err == nil {
		t.Fatalf("RecordRow after Close succeeded, wanted error")
	}
	if err := w.Commit(); err == nil {
		t.Fatalf("Commit after Close succeeded, wanted error")
	}
}

func TestCloseDropsUncommittedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ds.ev")
	w := must(Create(path, RowLog, WriterOptions{Logger: testLogger(t)}))
	ensure(w.RecordRow("row1", []Entry{{Column: "colA", Value: 1, Timestamp: 0}}))
	ensure(w.Commit())
	ensure(w.RecordRow("row2", []Entry{{Column: "colB", Value: 2, Timestamp: 1}}))
	ensure(w.Close())

	r := must(openRowLogReader(path))
	deepEq(t, r.Rows(), []Row{
		{ID: "row1", Entries: []Entry{{Column: "colA", Value: int64(1), Timestamp: 0}}},
	})
}
