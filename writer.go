package evstore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"sync"
)

// Writer is the mutable log write path: it owns a newly created dataset file,
// buffers row records in memory and flushes them as sealed batches on Commit.
//
// A failed flush is fatal to the Writer: the first error is latched, every
// later call returns it, and the instance must be discarded. Retrying is the
// caller's explicit decision, never done here.
type Writer struct {
	path   string
	family Family
	logger *slog.Logger

	lock    sync.Mutex
	f       *os.File
	err     error
	tagged  bool // format tag persisted
	rowSeq  uint64
	pending []Row
}

// WriterOptions tune a Writer. The zero value is valid.
type WriterOptions struct {
	Logger *slog.Logger
}

// Create makes a new mutable dataset file of the given family. Creation is
// create-only: an existing path fails with ErrAlreadyExists before any tag
// is written.
func Create(path string, family Family, o WriterOptions) (*Writer, error) {
	if !family.known() {
		return nil, fmt.Errorf("cannot create dataset of %v", family)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o666)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, path)
		}
		return nil, err
	}

	return &Writer{
		path:   path,
		family: family,
		logger: o.Logger,
		f:      f,
	}, nil
}

func (w *Writer) Path() string { return w.path }

func (w *Writer) Family() Family { return w.family }

// RecordRow appends one row record to the in-memory buffer. Nothing reaches
// the disk until Commit.
func (w *Writer) RecordRow(rowID string, entries []Entry) error {
	norm, err := normalizeEntries(entries)
	if err != nil {
		return fmt.Errorf("row %q: %w", rowID, err)
	}

	w.lock.Lock()
	defer w.lock.Unlock()

	if w.err != nil {
		return w.err
	}
	w.pending = append(w.pending, Row{ID: rowID, Entries: norm})
	return nil
}

// Commit flushes the buffered rows as one sealed batch and syncs the file.
// The format tag is persisted together with the first batch. Committing with
// no pending rows is a no-op, leaving the file byte-identical.
func (w *Writer) Commit() error {
	w.lock.Lock()
	defer w.lock.Unlock()

	if w.err != nil {
		return w.err
	}
	if len(w.pending) == 0 {
		return nil
	}

	if !w.tagged {
		if err := writeTag(w.f, w.family, true); err != nil {
			return w.fail(err)
		}
		// writeTag uses WriteAt, which leaves the seek offset at 0; move
		// past the header so the batch lands after it.
		if _, err := w.f.Seek(tagSize, io.SeekStart); err != nil {
			return w.fail(err)
		}
		w.tagged = true
	}

	var buf []byte
	switch w.family {
	case RowLog:
		buf = appendRowLogBatch(buf, w.rowSeq, w.pending)
	case BinaryColumnar:
		var err error
		buf, err = appendColumnarBlock(buf, w.pending)
		if err != nil {
			return w.fail(err)
		}
	}
	w.rowSeq += uint64(len(w.pending))

	if _, err := w.f.Write(buf); err != nil {
		return w.fail(err)
	}
	if err := w.f.Sync(); err != nil {
		return w.fail(err)
	}

	n := len(w.pending)
	w.pending = w.pending[:0]
	w.logger.Debug("dataset: committed batch", slog.String("path", w.path), slog.String("family", w.family.String()), slog.Int("rows", n))
	return nil
}

// Close releases the file. It does not commit implicitly; buffered rows that
// were never committed are dropped.
func (w *Writer) Close() error {
	w.lock.Lock()
	defer w.lock.Unlock()

	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	if w.err == nil {
		w.err = errWriterClosed
	}
	return err
}

func (w *Writer) fail(err error) error {
	if w.err == nil {
		w.err = err
		w.logger.Error("dataset: write failed", slog.String("path", w.path), slog.Any("err", err))
	}
	return err
}
