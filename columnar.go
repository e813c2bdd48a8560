package evstore

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// Binary-columnar family: one block per commit, framed as
//
//	payloadSize:uvarint payload checksum:64
//
// where payload is a msgpack-encoded columnarBlock and checksum is xxhash64
// of the payload. Inside a block, entries are packed per column as parallel
// vectors; row ordinals and slot-in-row positions let a reader reassemble the
// exact row records, duplicate columns included. A truncated trailing block
// is an unflushed tail and is skipped; a checksum mismatch on a complete
// block is a decode error.

type columnarBlock struct {
	RowIDs  []string         `msgpack:"r"`
	Counts  []uint32         `msgpack:"e"` // entries per row
	Columns []columnarColumn `msgpack:"c"`
}

type columnarColumn struct {
	Name       string   `msgpack:"n"`
	Rows       []uint32 `msgpack:"r"` // row ordinal within the block, per entry
	Slots      []uint32 `msgpack:"s"` // entry position within its row
	Values     []any    `msgpack:"v"`
	Timestamps []int64  `msgpack:"t"`
}

func appendColumnarBlock(buf []byte, rows []Row) ([]byte, error) {
	blk := columnarBlock{
		RowIDs: make([]string, len(rows)),
		Counts: make([]uint32, len(rows)),
	}
	byName := make(map[string]int)
	for i, row := range rows {
		blk.RowIDs[i] = row.ID
		blk.Counts[i] = uint32(len(row.Entries))
		for slot, e := range row.Entries {
			ci, ok := byName[e.Column]
			if !ok {
				ci = len(blk.Columns)
				byName[e.Column] = ci
				blk.Columns = append(blk.Columns, columnarColumn{Name: e.Column})
			}
			col := &blk.Columns[ci]
			col.Rows = append(col.Rows, uint32(i))
			col.Slots = append(col.Slots, uint32(slot))
			col.Values = append(col.Values, e.Value)
			col.Timestamps = append(col.Timestamps, e.Timestamp)
		}
	}

	payload, err := msgpack.Marshal(&blk)
	if err != nil {
		return nil, err
	}

	buf = binary.AppendUvarint(buf, uint64(len(payload)))
	buf = append(buf, payload...)
	buf = binary.LittleEndian.AppendUint64(buf, xxhash.Sum64(payload))
	return buf, nil
}

func (blk *columnarBlock) rows(path string) ([]Row, error) {
	if len(blk.Counts) != len(blk.RowIDs) {
		return nil, decodeErrf(path, BinaryColumnar, nil, "row count mismatch: %d ids, %d counts", len(blk.RowIDs), len(blk.Counts))
	}
	rows := make([]Row, len(blk.RowIDs))
	for i, id := range blk.RowIDs {
		rows[i] = Row{ID: id, Entries: make([]Entry, blk.Counts[i])}
	}

	for _, col := range blk.Columns {
		n := len(col.Rows)
		if len(col.Slots) != n || len(col.Values) != n || len(col.Timestamps) != n {
			return nil, decodeErrf(path, BinaryColumnar, nil, "column %q: ragged vectors", col.Name)
		}
		for k := 0; k < n; k++ {
			ri, slot := int(col.Rows[k]), int(col.Slots[k])
			if ri >= len(rows) || slot >= len(rows[ri].Entries) {
				return nil, decodeErrf(path, BinaryColumnar, nil, "column %q: entry out of range (row %d, slot %d)", col.Name, ri, slot)
			}
			if rows[ri].Entries[slot].Value != nil {
				return nil, decodeErrf(path, BinaryColumnar, nil, "column %q: duplicate entry (row %d, slot %d)", col.Name, ri, slot)
			}
			v, err := normalizeValue(col.Values[k])
			if err != nil {
				return nil, decodeErrf(path, BinaryColumnar, err, "column %q", col.Name)
			}
			rows[ri].Entries[slot] = Entry{Column: col.Name, Value: v, Timestamp: col.Timestamps[k]}
		}
	}

	for i := range rows {
		for slot, e := range rows[i].Entries {
			if e.Value == nil {
				return nil, decodeErrf(path, BinaryColumnar, nil, "row %d: missing entry in slot %d", i, slot)
			}
		}
	}
	return rows, nil
}

type columnarReader struct {
	path string
	tag  Tag
	rows []Row
}

func openColumnarReader(path string) (*columnarReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	tag, err := readTag(br)
	if err != nil {
		return nil, err
	}
	if tag.Family != BinaryColumnar {
		return nil, decodeErrf(path, BinaryColumnar, nil, "file is tagged %v", tag.Family)
	}

	r := &columnarReader{path: path, tag: tag}
	for {
		size, err := binary.ReadUvarint(br)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break // end of file, or a torn frame header
		} else if err != nil {
			return nil, err
		}

		payload := make([]byte, size)
		if _, err := io.ReadFull(br, payload); err == io.EOF || err == io.ErrUnexpectedEOF {
			break // unflushed tail
		} else if err != nil {
			return nil, err
		}

		var sumBuf [8]byte
		if _, err := io.ReadFull(br, sumBuf[:]); err == io.EOF || err == io.ErrUnexpectedEOF {
			break // unflushed tail
		} else if err != nil {
			return nil, err
		}
		if binary.LittleEndian.Uint64(sumBuf[:]) != xxhash.Sum64(payload) {
			return nil, decodeErrf(path, BinaryColumnar, nil, "block checksum mismatch")
		}

		var blk columnarBlock
		if err := msgpack.Unmarshal(payload, &blk); err != nil {
			return nil, decodeErrf(path, BinaryColumnar, err, "bad block payload")
		}
		rows, err := blk.rows(path)
		if err != nil {
			return nil, err
		}
		r.rows = append(r.rows, rows...)
	}
	return r, nil
}

func (r *columnarReader) Rows() []Row { return r.rows }

func (r *columnarReader) Tag() Tag { return r.tag }

func (r *columnarReader) Close() error { return nil }
