package evstore

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Row-log family: newline-delimited text, one tuple per line:
//
//	rowSeq TAB rowID TAB column TAB value TAB timestamp
//
// rowSeq is a monotonically increasing row ordinal; consecutive lines with
// the same ordinal belong to the same row record, so duplicate row IDs across
// records survive a round trip. rowID, column and string values are quoted.
// A trailing line without a newline is an unflushed tail and is skipped.

func appendRowLogBatch(buf []byte, firstSeq uint64, rows []Row) []byte {
	for i, row := range rows {
		seq := firstSeq + uint64(i)
		for _, e := range row.Entries {
			buf = strconv.AppendUint(buf, seq, 10)
			buf = append(buf, '\t')
			buf = strconv.AppendQuote(buf, row.ID)
			buf = append(buf, '\t')
			buf = strconv.AppendQuote(buf, e.Column)
			buf = append(buf, '\t')
			buf = appendTextValue(buf, e.Value)
			buf = append(buf, '\t')
			buf = strconv.AppendInt(buf, e.Timestamp, 10)
			buf = append(buf, '\n')
		}
	}
	return buf
}

func appendTextValue(buf []byte, v any) []byte {
	switch v := v.(type) {
	case string:
		return strconv.AppendQuote(buf, v)
	case bool:
		return strconv.AppendBool(buf, v)
	case int64:
		return strconv.AppendInt(buf, v, 10)
	case float64:
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return strconv.AppendFloat(buf, v, 'g', -1, 64)
		}
		s := strconv.FormatFloat(v, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0" // keep floats distinguishable from ints
		}
		return append(buf, s...)
	default:
		panic("unreachable: values are normalized on record")
	}
}

func parseTextValue(s string) (any, error) {
	if strings.HasPrefix(s, `"`) {
		return strconv.Unquote(s)
	}
	switch s {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	return strconv.ParseFloat(s, 64)
}

type rowLogReader struct {
	path string
	tag  Tag
	rows []Row
}

func openRowLogReader(path string) (*rowLogReader, error) {
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
	if tag.Family != RowLog {
		return nil, decodeErrf(path, RowLog, nil, "file is tagged %v", tag.Family)
	}

	r := &rowLogReader{path: path, tag: tag}
	var (
		haveRow bool
		lastSeq uint64
		lineNo  int
	)
	for {
		line, err := br.ReadString('\n')
		if err == io.EOF {
			// No trailing newline: an unflushed tail, skip it.
			break
		} else if err != nil {
			return nil, err
		}
		lineNo++

		seq, rowID, entry, err := parseRowLogLine(strings.TrimSuffix(line, "\n"))
		if err != nil {
			return nil, decodeErrf(path, RowLog, err, "line %d", lineNo)
		}
		if !haveRow || seq != lastSeq {
			r.rows = append(r.rows, Row{ID: rowID})
			haveRow, lastSeq = true, seq
		}
		last := &r.rows[len(r.rows)-1]
		last.Entries = append(last.Entries, entry)
	}
	return r, nil
}

func parseRowLogLine(line string) (seq uint64, rowID string, entry Entry, err error) {
	fields := strings.Split(line, "\t")
	if len(fields) != 5 {
		return 0, "", Entry{}, fmt.Errorf("expected 5 tab-separated fields, got %d", len(fields))
	}
	seq, err = strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return 0, "", Entry{}, err
	}
	rowID, err = strconv.Unquote(fields[1])
	if err != nil {
		return 0, "", Entry{}, err
	}
	entry.Column, err = strconv.Unquote(fields[2])
	if err != nil {
		return 0, "", Entry{}, err
	}
	entry.Value, err = parseTextValue(fields[3])
	if err != nil {
		return 0, "", Entry{}, err
	}
	entry.Timestamp, err = strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return 0, "", Entry{}, err
	}
	return seq, rowID, entry, nil
}

func (r *rowLogReader) Rows() []Row { return r.rows }

func (r *rowLogReader) Tag() Tag { return r.tag }

func (r *rowLogReader) Close() error { return nil }
