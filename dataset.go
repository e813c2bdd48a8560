package evstore

import "fmt"

// Reader is the read side of one dataset file. Readers are variant-specific
// and selected by the Store via the file's format tag, never by sniffing
// content.
type Reader interface {
	// Rows returns every committed row record, in record order.
	Rows() []Row
	Tag() Tag
	Close() error
}

// Dataset is a handle over exactly one dataset file. It is bound to the file
// at open/create time and never re-pointed; close it when done. A handle is
// either a read session (from Store.Open) or a write session (from
// Store.Create), never both.
type Dataset struct {
	typeName string
	path     string
	tag      Tag

	reader Reader
	writer *Writer
}

// DeclaredType returns the type name the handle was opened or created under.
func (ds *Dataset) DeclaredType() string { return ds.typeName }

func (ds *Dataset) Path() string { return ds.path }

// Tag returns the file's resolved format tag. For a freshly created dataset
// this is the tag the first commit will persist.
func (ds *Dataset) Tag() Tag { return ds.tag }

// Rows returns all committed row records. Only valid on read sessions.
func (ds *Dataset) Rows() ([]Row, error) {
	if ds.reader == nil {
		return nil, fmt.Errorf("%s: dataset is open for writing", ds.path)
	}
	return ds.reader.Rows(), nil
}

// RecordRow buffers one row record. Only valid on write sessions.
func (ds *Dataset) RecordRow(rowID string, entries []Entry) error {
	if ds.writer == nil {
		return fmt.Errorf("%s: dataset is open read-only", ds.path)
	}
	return ds.writer.RecordRow(rowID, entries)
}

// Commit flushes buffered rows. Only valid on write sessions.
func (ds *Dataset) Commit() error {
	if ds.writer == nil {
		return fmt.Errorf("%s: dataset is open read-only", ds.path)
	}
	return ds.writer.Commit()
}

func (ds *Dataset) Close() error {
	if ds.writer != nil {
		return ds.writer.Close()
	}
	if ds.reader != nil {
		return ds.reader.Close()
	}
	return nil
}
