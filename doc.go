/*
Package evstore implements format-tagged event dataset files: a row/column
event store core whose persisted files carry a versioned format tag, so that
a file written under one storage variant is rejected when reopened under an
incompatible one.

We implement:

1. Format tags, a fixed-size checksummed header naming the encoding family
(row-log or binary-columnar), the mutability class and the format version.

2. A mutable log writer that creates a tagged file and appends row records
(rowID, then ordered (column, value, timestamp) entries) in committed batches.

3. Two readers, one per family, which decode only files of their own tag.

4. A store that dispatches declared dataset type names to the right writer or
reader through an explicit registry, failing fast on family mismatches.

# Technical Details

**Tag.**
24 bytes at offset zero: magic, version, family, flags, then an xxhash64
checksum of the preceding bytes. Written exactly once, with the first commit.

**Row-log family.**
Newline-delimited text, one (row, column, value, timestamp) tuple per line,
prefixed by a row sequence number so that reading reconstitutes the exact row
records. Strings are quoted; a trailing partial line is an unflushed tail and
is ignored.

**Binary-columnar family.**
One block per commit: uvarint payload size, msgpack-encoded column vectors
grouped by column, then an xxhash64 trailer. A truncated trailing block is
ignored; a checksum mismatch anywhere else is a decode error.

**Type checking.**
Opening reads the tag and matches its family against the declared type's
allow-list. The mutability bit is a capability request and never fails an
open; the family check is always fatal and never auto-coerced.
*/
package evstore
